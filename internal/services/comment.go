package services

import (
	"context"
	"fmt"
	"strings"

	"readlog/internal/dto"
	"readlog/internal/models"
	"readlog/internal/utils"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const maxCommentLength = 2000

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Add appends a comment and notifies the post author in the same transaction.
func (s *CommentService) Add(ctx context.Context, actorID, postID uint, text string) (*models.Comment, error) {
	if actorID == 0 {
		return nil, ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentEmpty
	}
	if len([]rune(text)) > maxCommentLength {
		return nil, ErrParamInvalid
	}

	comment := models.Comment{UserID: actorID, PostID: postID, Text: text}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return Notify(tx, post.UserID, actorID, models.NotificationTypeComment, &post.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// List returns the comments of a post, oldest first.
func (s *CommentService) List(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func CommentToDTO(c *models.Comment) (*dto.CommentDTO, error) {
	item := &dto.CommentDTO{}
	if err := copier.Copy(item, c); err != nil {
		return nil, fmt.Errorf("map comment %d: %w", c.ID, err)
	}
	item.User = UserToBrief(&c.User)
	item.TextHTML = utils.RenderMarkdown(c.Text)
	return item, nil
}
