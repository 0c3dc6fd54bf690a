package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"readlog/internal/models"

	"gorm.io/gorm"
)

var exportColumns = []string{
	"id", "created_at", "user_id", "nickname", "text", "user_photo",
	"book_title", "book_author", "book_cover_url_snapshot", "like_count", "repost_count",
}

const exportBatchSize = 200

// ExportPostsCSV writes every post, newest first, as a backup/audit mirror.
func ExportPostsCSV(ctx context.Context, db *gorm.DB, w io.Writer) (int, error) {
	wr := csv.NewWriter(w)
	if err := wr.Write(exportColumns); err != nil {
		return 0, err
	}

	written := 0
	for offset := 0; ; offset += exportBatchSize {
		var batch []models.Post
		err := db.WithContext(ctx).Preload("User").Preload("Book").
			Order("created_at DESC").Order("id DESC").
			Limit(exportBatchSize).Offset(offset).
			Find(&batch).Error
		if err != nil {
			return written, err
		}
		for _, p := range batch {
			if err := wr.Write(exportRow(&p)); err != nil {
				return written, err
			}
			written++
		}
		if len(batch) < exportBatchSize {
			break
		}
	}

	wr.Flush()
	return written, wr.Error()
}

func exportRow(p *models.Post) []string {
	var title, author string
	if p.Book != nil {
		title, author = p.Book.Title, p.Book.Author
	}
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.CreatedAt.Format("2006-01-02 15:04:05"),
		strconv.FormatUint(uint64(p.UserID), 10),
		p.User.Nickname,
		p.Text,
		p.UserPhoto,
		title,
		author,
		p.BookCoverURLSnapshot,
		strconv.Itoa(p.LikeCount),
		strconv.Itoa(p.RepostCount),
	}
}
