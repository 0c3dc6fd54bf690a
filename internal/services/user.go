package services

import (
	"context"
	"errors"
	"strings"

	"readlog/internal/models"
	"readlog/internal/utils"

	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Signup creates a user. nickname falls back to the local part of the email.
func (s *UserService) Signup(ctx context.Context, email, password, nickname string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	nickname = strings.TrimSpace(nickname)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return nil, ErrParamInvalid
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if nickname == "" {
		nickname = utils.NicknameFromEmail(email)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Nickname: nickname,
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExist
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPasswordIncorrect
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrPasswordIncorrect
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the nickname and, when profileImage is non-nil, the avatar reference.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, nickname string, profileImage *string) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if nickname = strings.TrimSpace(nickname); nickname != "" {
		updates["nickname"] = nickname
	}
	if profileImage != nil {
		updates["profile_image"] = *profileImage
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}
