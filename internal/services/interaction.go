package services

import (
	"context"
	"errors"

	"readlog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ToggleState string

const (
	StateAdded   ToggleState = "added"
	StateRemoved ToggleState = "removed"
)

// ToggleResult is the committed state of a relationship after a toggle, plus the counter shown next to it.
type ToggleResult struct {
	State ToggleState `json:"state"`
	Count int64       `json:"count"`
}

func (r ToggleResult) Active() bool {
	return r.State == StateAdded
}

// postRelation is a user -> post join table with a denormalized counter on posts.
type postRelation struct {
	counter string
	kind    models.NotificationType
	model   func() interface{}
	row     func(userID, postID uint) interface{}
}

var (
	likeRelation = postRelation{
		counter: "like_count",
		kind:    models.NotificationTypeLike,
		model:   func() interface{} { return &models.Like{} },
		row: func(userID, postID uint) interface{} {
			return &models.Like{UserID: userID, PostID: postID}
		},
	}
	repostRelation = postRelation{
		counter: "repost_count",
		kind:    models.NotificationTypeRepost,
		model:   func() interface{} { return &models.Repost{} },
		row: func(userID, postID uint) interface{} {
			return &models.Repost{UserID: userID, PostID: postID}
		},
	}
)

// InteractionService owns likes and BookUps (reposts) and their post counters.
type InteractionService struct {
	db *gorm.DB
}

func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{db: db}
}

func (s *InteractionService) ToggleLike(ctx context.Context, userID, postID uint) (ToggleResult, error) {
	return s.toggle(ctx, likeRelation, userID, postID)
}

// SetLike is the idempotent form of ToggleLike.
func (s *InteractionService) SetLike(ctx context.Context, userID, postID uint, liked bool) (ToggleResult, error) {
	return s.apply(ctx, likeRelation, userID, postID, liked)
}

func (s *InteractionService) ToggleRepost(ctx context.Context, userID, postID uint) (ToggleResult, error) {
	return s.toggle(ctx, repostRelation, userID, postID)
}

func (s *InteractionService) SetRepost(ctx context.Context, userID, postID uint, reposted bool) (ToggleResult, error) {
	return s.apply(ctx, repostRelation, userID, postID, reposted)
}

func (s *InteractionService) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return relationExists(s.db.WithContext(ctx), likeRelation, userID, postID)
}

func (s *InteractionService) IsReposted(ctx context.Context, userID, postID uint) (bool, error) {
	return relationExists(s.db.WithContext(ctx), repostRelation, userID, postID)
}

// LikedPostIDs reports which of postIDs userID has liked.
func (s *InteractionService) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return s.activePostIDs(ctx, likeRelation, userID, postIDs)
}

func (s *InteractionService) RepostedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return s.activePostIDs(ctx, repostRelation, userID, postIDs)
}

// toggle reads the current state as the caller's intent and applies its inverse.
// Two racing toggles that both saw "absent" both ask for "added"; only one row is created.
func (s *InteractionService) toggle(ctx context.Context, rel postRelation, userID, postID uint) (ToggleResult, error) {
	if userID == 0 {
		return ToggleResult{}, ErrUnauthorized
	}
	exists, err := relationExists(s.db.WithContext(ctx), rel, userID, postID)
	if err != nil {
		return ToggleResult{}, err
	}
	return s.apply(ctx, rel, userID, postID, !exists)
}

func (s *InteractionService) apply(ctx context.Context, rel postRelation, userID, postID uint, want bool) (ToggleResult, error) {
	if userID == 0 {
		return ToggleResult{}, ErrUnauthorized
	}

	result := ToggleResult{State: StateRemoved}
	if want {
		result.State = StateAdded
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}

		if want {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(rel.row(userID, postID))
			if res.Error != nil {
				return res.Error
			}
			// RowsAffected == 0: the row already exists, which is the state we wanted
			if res.RowsAffected == 1 {
				if err := bumpCounter(tx, rel.counter, postID, 1); err != nil {
					return err
				}
				if err := Notify(tx, post.UserID, userID, rel.kind, &post.ID); err != nil {
					return err
				}
			}
		} else {
			res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(rel.model())
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := bumpCounter(tx, rel.counter, postID, -1); err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.Post{}).Select(rel.counter).Where("id = ?", postID).Scan(&result.Count).Error
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

func (s *InteractionService) activePostIDs(ctx context.Context, rel postRelation, userID uint, postIDs []uint) (map[uint]bool, error) {
	active := make(map[uint]bool, len(postIDs))
	if userID == 0 || len(postIDs) == 0 {
		return active, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(rel.model()).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		active[id] = true
	}
	return active, nil
}

func relationExists(tx *gorm.DB, rel postRelation, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := tx.Model(rel.model()).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

// lockPost takes the row lock that serializes every counter change on the post.
func lockPost(tx *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "user_id").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// bumpCounter applies a relative update; decrements never go below zero.
func bumpCounter(tx *gorm.DB, counter string, postID uint, delta int) error {
	q := tx.Model(&models.Post{}).Where("id = ?", postID)
	if delta < 0 {
		q = q.Where(counter+" >= ?", -delta)
		return q.UpdateColumn(counter, gorm.Expr(counter+" - ?", -delta)).Error
	}
	return q.UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error
}
