package models

import (
	"time"
)

// Repost is the BookUp bookmark - one row per (user, post)
type Repost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reposts_user_post" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_reposts_user_post" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
