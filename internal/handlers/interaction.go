package handlers

import (
	"context"
	"net/http"

	"readlog/internal/middleware"
	"readlog/internal/services"

	"github.com/gin-gonic/gin"
)

type InteractionHandler struct {
	interactions *services.InteractionService
	follows      *services.FollowService
}

func NewInteractionHandler(interactions *services.InteractionService, follows *services.FollowService) *InteractionHandler {
	return &InteractionHandler{interactions: interactions, follows: follows}
}

type toggleFunc func(ctx context.Context, actorID, targetID uint) (services.ToggleResult, error)
type setFunc func(ctx context.Context, actorID, targetID uint, want bool) (services.ToggleResult, error)

// Like POST 切换 / PUT 设置 / DELETE 取消
func (h *InteractionHandler) Like(c *gin.Context) {
	h.handle(c, h.interactions.ToggleLike, h.interactions.SetLike)
}

// Repost BookUp
func (h *InteractionHandler) Repost(c *gin.Context) {
	h.handle(c, h.interactions.ToggleRepost, h.interactions.SetRepost)
}

func (h *InteractionHandler) Follow(c *gin.Context) {
	h.handle(c, h.follows.ToggleFollow, h.follows.SetFollow)
}

func (h *InteractionHandler) handle(c *gin.Context, toggle toggleFunc, set setFunc) {
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actorID := middleware.CurrentUserID(c)

	var (
		result services.ToggleResult
		err    error
	)
	switch c.Request.Method {
	case http.MethodPut:
		result, err = set(ctx, actorID, targetID, true)
	case http.MethodDelete:
		result, err = set(ctx, actorID, targetID, false)
	default:
		result, err = toggle(ctx, actorID, targetID)
	}
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, toggleDTO(result))
}
