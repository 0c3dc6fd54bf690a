package services

import (
	"context"
	"fmt"
	"time"

	"readlog/internal/models"

	"gorm.io/gorm"
)

const defaultNotificationLimit = 50

// Notify records a notification for recipient. A user's own action never notifies them.
// tx may be a transaction so the notification commits together with the action that caused it.
func Notify(tx *gorm.DB, recipientID, actorID uint, kind models.NotificationType, postID *uint) error {
	if recipientID == actorID {
		return nil
	}
	n := models.Notification{
		UserID:  recipientID,
		ActorID: actorID,
		Type:    kind,
		PostID:  postID,
		IsRead:  false,
	}
	return tx.Create(&n).Error
}

type NotificationView struct {
	ID            uint                    `json:"id"`
	Type          models.NotificationType `json:"type"`
	ActorID       uint                    `json:"actor_id"`
	ActorNickname string                  `json:"from_user"`
	PostID        *uint                   `json:"post_id"`
	IsRead        bool                    `json:"is_read"`
	CreatedAt     time.Time               `json:"created_at"`
	Message       string                  `json:"message"`
	URL           string                  `json:"url"`
}

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the newest notifications of userID.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]NotificationView, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	var notifications []models.Notification
	err := s.db.WithContext(ctx).Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, NotificationView{
			ID:            n.ID,
			Type:          n.Type,
			ActorID:       n.ActorID,
			ActorNickname: n.Actor.Nickname,
			PostID:        n.PostID,
			IsRead:        n.IsRead,
			CreatedAt:     n.CreatedAt,
			Message:       DisplayMessage(n.Type, n.Actor.Nickname),
			URL:           NotificationURL(n.Type, n.ActorID, n.PostID),
		})
	}
	return views, nil
}

// UnreadCount is recomputed on every call.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead is the only way a notification becomes read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func DisplayMessage(kind models.NotificationType, actorNickname string) string {
	switch kind {
	case models.NotificationTypeLike:
		return fmt.Sprintf("%s님이 회원님의 게시물을 좋아합니다.", actorNickname)
	case models.NotificationTypeRepost:
		return fmt.Sprintf("%s님이 회원님의 게시물을 BookUp 했습니다.", actorNickname)
	case models.NotificationTypeComment:
		return fmt.Sprintf("%s님이 회원님의 게시물에 댓글을 남겼습니다.", actorNickname)
	case models.NotificationTypeFollow:
		return fmt.Sprintf("%s님이 회원님을 팔로우하기 시작했습니다.", actorNickname)
	}
	return fmt.Sprintf("새로운 알림: %s", kind)
}

// NotificationURL points post notifications at the feed anchor and follows at the actor's profile.
func NotificationURL(kind models.NotificationType, actorID uint, postID *uint) string {
	switch kind {
	case models.NotificationTypeLike, models.NotificationTypeRepost, models.NotificationTypeComment:
		if postID != nil {
			return fmt.Sprintf("/#post-%d", *postID)
		}
	case models.NotificationTypeFollow:
		return fmt.Sprintf("/profile/%d", actorID)
	}
	return "#"
}
