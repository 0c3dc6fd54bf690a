package handlers

import (
	"readlog/internal/middleware"
	"readlog/internal/services"
	"readlog/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit := utils.StringToInt(c.Query("limit"))
	items, err := h.notifications.List(c.Request.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, items)
}

// UnreadCount is read fresh instead of reusing the value LoadUser stored.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"unread_count": count})
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"unread_count": 0})
}
