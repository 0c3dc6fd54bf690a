package handlers

import (
	"log/slog"

	"readlog/internal/dto"
	"readlog/internal/middleware"
	"readlog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Signup 注册成功后直接登录
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		Error(c, err)
		return
	}
	if err := login(c, user.ID); err != nil {
		Error(c, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "User signed up", "user_id", user.ID)
	Success(c, services.UserToBrief(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		Error(c, err)
		return
	}
	if err := login(c, user.ID); err != nil {
		Error(c, err)
		return
	}
	Success(c, services.UserToBrief(user))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Me 当前用户 + 未读通知数
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var me dto.MeDTO
	if err := copier.Copy(&me, user); err != nil {
		Error(c, err)
		return
	}
	me.UnreadCount = middleware.UnreadCount(c)
	Success(c, me)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), req.Nickname, req.ProfileImage)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, services.UserToBrief(user))
}

func login(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, userID)
	return session.Save()
}
