package middleware

import (
	"log/slog"
	"net/http"

	"readlog/internal/models"
	"readlog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"
const SessionUserKey = "user_id"

// AuthRequired rejects anonymous requests before the handler runs
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": services.ErrUnauthorized.Error(),
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users *services.UserService, notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(SessionUserKey))
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		user, err := users.GetUser(ctx, userID)
		if err != nil {
			// 用户已被删除，清理会话
			session.Delete(SessionUserKey)
			_ = session.Save()
			c.Next()
			return
		}
		c.Set(CheckUserKey, user)

		// Fetch Unread Notification Count
		count, err := notifications.UnreadCount(ctx, user.ID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to count unread notifications", "user_id", user.ID, "error", err)
		}
		c.Set(UnreadCountKey, count)
		c.Next()
	}
}

// CurrentUser returns the session user resolved by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID is 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

func UnreadCount(c *gin.Context) int64 {
	if v, ok := c.Get(UnreadCountKey); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

// sessionUserID accepts the shapes the cookie codec may hand back.
func sessionUserID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id != 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	case uint64:
		return uint(id), id != 0
	}
	return 0, false
}
