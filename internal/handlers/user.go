package handlers

import (
	"readlog/internal/dto"
	"readlog/internal/middleware"
	"readlog/internal/models"
	"readlog/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type UserHandler struct {
	users   *services.UserService
	posts   *services.PostService
	follows *services.FollowService
}

func NewUserHandler(users *services.UserService, posts *services.PostService, follows *services.FollowService) *UserHandler {
	return &UserHandler{users: users, posts: posts, follows: follows}
}

// Profile 用户主页 /api/users/:id，包含帖子、BookUp 书架和关注数
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewerID := middleware.CurrentUserID(c)

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		Error(c, err)
		return
	}

	profile := &dto.ProfileDTO{
		User:   services.UserToBrief(user),
		IsSelf: viewerID == user.ID,
	}
	var posts, bookups []models.Post

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = h.posts.UserPosts(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		bookups, err = h.posts.UserReposts(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.FollowerCount, err = h.follows.FollowerCount(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.FollowingCount, err = h.follows.FollowingCount(gCtx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		profile.IsFollowing, err = h.follows.IsFollowing(gCtx, viewerID, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		Error(c, err)
		return
	}

	if profile.Posts, err = h.posts.ToDTOs(ctx, viewerID, posts); err != nil {
		Error(c, err)
		return
	}
	if profile.BookUps, err = h.posts.ToDTOs(ctx, viewerID, bookups); err != nil {
		Error(c, err)
		return
	}
	Success(c, profile)
}
