package router

import (
	"readlog/internal/handlers"
	"readlog/internal/logger"
	"readlog/internal/middleware"
	"readlog/internal/services"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const SessionName = "readlog_session"

// Options carries what the router needs besides the handlers.
type Options struct {
	SessionSecret string
	UploadDir     string // served at UploadPrefix when the local image driver is used
	UploadPrefix  string
}

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	Auth         *handlers.AuthHandler
	Post         *handlers.PostHandler
	Interaction  *handlers.InteractionHandler
	User         *handlers.UserHandler
	Notification *handlers.NotificationHandler
	Book         *handlers.BookHandler
	Image        *handlers.ImageHandler
}

// NewEngine builds the gin engine with sessions, tracing and the session-user loader installed.
func NewEngine(opts Options, users *services.UserService, notifications *services.NotificationService, group *HandlersGroup) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.TraceMiddleware())
	var gzipOpts []gzip.Option
	if opts.UploadPrefix != "" {
		// 图片已压缩过，不再 gzip
		gzipOpts = append(gzipOpts, gzip.WithExcludedPaths([]string{opts.UploadPrefix}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzipOpts...))

	// Setup Sessions
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
	r.Use(sessions.Sessions(SessionName, store))

	if opts.UploadDir != "" {
		uploads := r.Group(opts.UploadPrefix, handlers.HotlinkGuard())
		uploads.Static("/", opts.UploadDir)
	}

	r.Use(middleware.LoadUser(users, notifications))
	RegisterRoutes(r, group)
	return r
}

func RegisterRoutes(r *gin.Engine, h *HandlersGroup) {
	// 公共路由 (Public Routes)
	r.POST("/signup", h.Auth.Signup) // 注册
	r.POST("/login", h.Auth.Login)   // 登录
	r.GET("/logout", h.Auth.Logout)  // 退出登录

	api := r.Group("/api")
	{
		api.GET("/posts", h.Post.List)                   // 信息流
		api.GET("/posts/top-bookups", h.Post.TopBookups) // 侧边栏 BookUp 排行
		api.GET("/posts/:id", h.Post.Detail)
		api.GET("/posts/:id/comments", h.Post.ListComments)
		api.GET("/users/:id", h.User.Profile) // 用户主页
		api.GET("/books/search", h.Book.Search)
		api.GET("/books/:id", h.Book.Detail)
	}

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", h.Auth.Me)
		authorized.PATCH("/me", h.Auth.UpdateProfile)

		authorized.POST("/posts", h.Post.Create)
		authorized.PATCH("/posts/:id", h.Post.Update)
		authorized.DELETE("/posts/:id", h.Post.Delete)
		authorized.POST("/posts/:id/comments", h.Post.AddComment)

		// POST 切换, PUT 设置, DELETE 取消
		for _, method := range []string{"POST", "PUT", "DELETE"} {
			authorized.Handle(method, "/posts/:id/like", h.Interaction.Like)
			authorized.Handle(method, "/posts/:id/repost", h.Interaction.Repost)
			authorized.Handle(method, "/users/:id/follow", h.Interaction.Follow)
		}

		authorized.GET("/notifications", h.Notification.List)
		authorized.GET("/notifications/unread-count", h.Notification.UnreadCount)
		authorized.POST("/notifications/read-all", h.Notification.ReadAll) // 全部通知标记为已读

		authorized.POST("/upload", h.Image.Upload)
	}
}
