package services

import (
	"context"
	"errors"

	"readlog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// ToggleFollow flips the follow state. Count in the result is the followee's follower count.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, followeeID uint) (ToggleResult, error) {
	if followerID == 0 {
		return ToggleResult{}, ErrUnauthorized
	}
	if followerID == followeeID {
		return ToggleResult{}, ErrFollowSelf
	}
	following, err := s.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return ToggleResult{}, err
	}
	return s.SetFollow(ctx, followerID, followeeID, !following)
}

func (s *FollowService) SetFollow(ctx context.Context, followerID, followeeID uint, follow bool) (ToggleResult, error) {
	if followerID == 0 {
		return ToggleResult{}, ErrUnauthorized
	}
	if followerID == followeeID {
		return ToggleResult{}, ErrFollowSelf
	}

	result := ToggleResult{State: StateRemoved}
	if follow {
		result.State = StateAdded
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var followee models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&followee, followeeID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if follow {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				if err := Notify(tx, followeeID, followerID, models.NotificationTypeFollow, nil); err != nil {
					return err
				}
			}
		} else {
			err := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
				Delete(&models.Follow{}).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&result.Count).Error
	})
	if err != nil {
		return ToggleResult{}, err
	}
	return result, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followerID == followeeID {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}
