package dto

import "time"

type SignupDTO struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
	Nickname string `json:"nickname" form:"nickname" binding:"omitempty,max=50"`
}

type LoginDTO struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type UpdateProfileDTO struct {
	Nickname     string  `json:"nickname" form:"nickname" binding:"omitempty,max=50"`
	ProfileImage *string `json:"profile_image" form:"profile_image"`
}

// UserBriefDTO is the author block embedded in posts and comments.
type UserBriefDTO struct {
	ID           uint   `json:"id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image"`
}

type MeDTO struct {
	ID           uint      `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UnreadCount  int64     `json:"unread_count"`
}

type ProfileDTO struct {
	User           UserBriefDTO `json:"user"`
	FollowerCount  int64        `json:"follower_count"`
	FollowingCount int64        `json:"following_count"`
	IsFollowing    bool         `json:"is_following"`
	IsSelf         bool         `json:"is_self"`
	Posts          []*PostDTO   `json:"posts"`
	BookUps        []*PostDTO   `json:"bookups"`
}
