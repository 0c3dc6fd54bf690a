package models

import (
	"time"
)

type Post struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;index" json:"user_id"`
	User                 User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	BookID               *uint     `gorm:"index" json:"book_id"`
	Book                 *Book     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"book,omitempty"`
	UserPhoto            string    `json:"user_photo"`
	BookCoverURLSnapshot string    `gorm:"size:512" json:"book_cover_url_snapshot"`
	Text                 string    `gorm:"type:text" json:"text"`
	LikeCount            int       `gorm:"not null;default:0" json:"like_count"`
	RepostCount          int       `gorm:"not null;default:0" json:"repost_count"` // 被 BookUp 的次数
	CreatedAt            time.Time `gorm:"index" json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
