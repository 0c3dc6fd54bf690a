package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"readlog/internal/dto"
	"readlog/internal/middleware"
	"readlog/internal/models"
	"readlog/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	images   services.ImageStore
}

func NewPostHandler(posts *services.PostService, comments *services.CommentService, images services.ImageStore) *PostHandler {
	return &PostHandler{posts: posts, comments: comments, images: images}
}

// List 信息流 /api/posts?sort=latest|bookup
func (h *PostHandler) List(c *gin.Context) {
	var req dto.ListPostsDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		BindError(c, err)
		return
	}
	posts, err := h.posts.List(c.Request.Context(), req.Sort, req.Limit, req.Offset)
	if err != nil {
		Error(c, err)
		return
	}
	h.respondPosts(c, posts)
}

func (h *PostHandler) TopBookups(c *gin.Context) {
	posts, err := h.posts.TopBookups(c.Request.Context(), 0)
	if err != nil {
		Error(c, err)
		return
	}
	h.respondPosts(c, posts)
}

func (h *PostHandler) Detail(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), postID)
	if err != nil {
		Error(c, err)
		return
	}
	item, err := h.posts.ToDTO(c.Request.Context(), middleware.CurrentUserID(c), post)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, item)
}

// Create 发帖，multipart: text, book_*, photo
func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}
	photo, err := h.photoUpload(c)
	if err != nil {
		Error(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUserID(c), services.CreatePostInput{
		Text:         req.Text,
		SavePhoto:    photo.saver(),
		BookTitle:    req.BookTitle,
		BookAuthor:   req.BookAuthor,
		BookCoverURL: req.BookCoverURL,
		BookISBN:     req.BookISBN,
	})
	if err != nil {
		photo.discard(c)
		Error(c, err)
		return
	}
	item, err := h.posts.ToDTO(c.Request.Context(), post.UserID, post)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "success", Data: item})
}

func (h *PostHandler) Update(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePostDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}
	photo, err := h.photoUpload(c)
	if err != nil {
		Error(c, err)
		return
	}

	userID := middleware.CurrentUserID(c)
	post, err := h.posts.Update(c.Request.Context(), userID, postID, req.Text, photo.saver())
	if err != nil {
		photo.discard(c)
		Error(c, err)
		return
	}
	item, err := h.posts.ToDTO(c.Request.Context(), userID, post)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, item)
}

func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), middleware.CurrentUserID(c), postID); err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"id": postID})
}

func (h *PostHandler) ListComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.posts.Get(c.Request.Context(), postID); err != nil {
		Error(c, err)
		return
	}
	comments, err := h.comments.List(c.Request.Context(), postID)
	if err != nil {
		Error(c, err)
		return
	}
	items := make([]*dto.CommentDTO, 0, len(comments))
	for i := range comments {
		item, err := services.CommentToDTO(&comments[i])
		if err != nil {
			Error(c, err)
			return
		}
		items = append(items, item)
	}
	Success(c, items)
}

func (h *PostHandler) AddComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateCommentDTO
	if err := c.ShouldBind(&req); err != nil {
		BindError(c, err)
		return
	}
	comment, err := h.comments.Add(c.Request.Context(), middleware.CurrentUserID(c), postID, req.Text)
	if err != nil {
		Error(c, err)
		return
	}
	item, err := services.CommentToDTO(comment)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: "success", Data: item})
}

func (h *PostHandler) respondPosts(c *gin.Context, posts []models.Post) {
	items, err := h.posts.ToDTOs(c.Request.Context(), middleware.CurrentUserID(c), posts)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, items)
}

// pendingPhoto is the optional "photo" part of a post form. Nothing is stored until the
// service calls its saver, and discard undoes a save when the request fails afterwards.
type pendingPhoto struct {
	c      *gin.Context
	images services.ImageStore
	header *multipart.FileHeader
	ref    string
}

// photoUpload reads the "photo" part; a nil result means none was sent.
func (h *PostHandler) photoUpload(c *gin.Context) (*pendingPhoto, error) {
	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, services.ErrParamInvalid
	}
	return &pendingPhoto{c: c, images: h.images, header: header}, nil
}

func (p *pendingPhoto) saver() services.PhotoSaver {
	if p == nil {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		ref, err := saveUpload(p.c, p.images, p.header)
		if err != nil {
			return "", err
		}
		p.ref = ref
		return ref, nil
	}
}

func (p *pendingPhoto) discard(c *gin.Context) {
	if p == nil || p.ref == "" {
		return
	}
	if err := p.images.Remove(c.Request.Context(), p.ref); err != nil {
		slog.WarnContext(c.Request.Context(), "Failed to remove orphan image", "ref", p.ref, "error", err)
	}
	p.ref = ""
}
