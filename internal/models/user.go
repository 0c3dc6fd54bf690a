package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Nickname     string    `gorm:"size:255;not null" json:"nickname"`
	Password     string    `gorm:"not null" json:"-"` // bcrypt hash
	ProfileImage string    `json:"profile_image"`     // 头像引用，可为空
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
