package app

import (
	"context"

	"readlog/internal/config"
	"readlog/internal/handlers"
	"readlog/internal/router"
	"readlog/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the wired HTTP application.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
}

// New 依赖注入: services -> handlers -> router
func New(ctx context.Context, cfg *config.Config, conn *gorm.DB) (*App, error) {
	images, err := services.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	users := services.NewUserService(conn)
	notifications := services.NewNotificationService(conn)
	interactions := services.NewInteractionService(conn)
	follows := services.NewFollowService(conn)
	posts := services.NewPostService(conn, interactions)
	comments := services.NewCommentService(conn)
	books := services.NewBookService(conn)
	bookSearch := services.NewBookSearchService(cfg.Books)

	group := &router.HandlersGroup{
		Auth:         handlers.NewAuthHandler(users),
		Post:         handlers.NewPostHandler(posts, comments, images),
		Interaction:  handlers.NewInteractionHandler(interactions, follows),
		User:         handlers.NewUserHandler(users, posts, follows),
		Notification: handlers.NewNotificationHandler(notifications),
		Book:         handlers.NewBookHandler(books, bookSearch),
		Image:        handlers.NewImageHandler(images),
	}

	opts := router.Options{SessionSecret: cfg.SessionSecret}
	if local, ok := images.(*services.LocalImageStore); ok {
		opts.UploadDir = local.Dir()
		opts.UploadPrefix = cfg.Storage.PublicPrefix
	}

	return &App{
		Router: router.NewEngine(opts, users, notifications, group),
		DB:     conn,
	}, nil
}
