package models

import (
	"time"
)

// Book is shared by every post that picked the same (title, author) pair.
// Author is never NULL: an unknown author is stored as "" so the unique index deduplicates it.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null;uniqueIndex:idx_books_title_author" json:"title"`
	Author    string    `gorm:"size:255;not null;default:'';uniqueIndex:idx_books_title_author" json:"author"`
	CoverURL  string    `gorm:"size:512" json:"cover_url"`
	ISBN      string    `gorm:"size:32" json:"isbn"`
	CreatedAt time.Time `json:"created_at"`
}
