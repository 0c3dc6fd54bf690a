package models

import (
	"time"
)

type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	FolloweeID uint      `gorm:"not null;index;uniqueIndex:idx_follows_pair" json:"followee_id"`
	Followee   User      `gorm:"foreignKey:FolloweeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
