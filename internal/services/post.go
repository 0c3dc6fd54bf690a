package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"readlog/internal/dto"
	"readlog/internal/models"
	"readlog/internal/utils"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const (
	SortLatest = "latest"
	SortBookup = "bookup"

	defaultFeedLimit = 50
	maxFeedLimit     = 100
	topBookupLimit   = 5
)

// PhotoSaver stores an uploaded photo and returns its reference.
// Services call it only after every check on the request has passed.
type PhotoSaver func(ctx context.Context) (string, error)

// CreatePostInput carries the photo (an existing reference or a saver) and the selected book, if any.
type CreatePostInput struct {
	Text         string
	UserPhoto    string
	SavePhoto    PhotoSaver
	BookTitle    string
	BookAuthor   string
	BookCoverURL string
	BookISBN     string
}

type PostService struct {
	db           *gorm.DB
	interactions *InteractionService
}

func NewPostService(db *gorm.DB, interactions *InteractionService) *PostService {
	return &PostService{db: db, interactions: interactions}
}

func (s *PostService) Create(ctx context.Context, actorID uint, in CreatePostInput) (*models.Post, error) {
	if actorID == 0 {
		return nil, ErrUnauthorized
	}
	in.Text = strings.TrimSpace(in.Text)
	in.BookTitle = strings.TrimSpace(in.BookTitle)
	if in.Text == "" && in.UserPhoto == "" && in.SavePhoto == nil && in.BookTitle == "" {
		return nil, ErrPostEmpty
	}
	if in.SavePhoto != nil {
		ref, err := in.SavePhoto(ctx)
		if err != nil {
			return nil, err
		}
		in.UserPhoto = ref
	}

	post := models.Post{
		UserID:    actorID,
		UserPhoto: in.UserPhoto,
		Text:      in.Text,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.BookTitle != "" {
			book, err := getOrCreateBook(tx, in.BookTitle, in.BookAuthor, in.BookCoverURL, in.BookISBN)
			if err != nil {
				return err
			}
			post.BookID = &book.ID
			// the cover the user picked is kept even if the shared book has another one
			post.BookCoverURLSnapshot = strings.TrimSpace(in.BookCoverURL)
			if post.BookCoverURLSnapshot == "" {
				post.BookCoverURLSnapshot = book.CoverURL
			}
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, post.ID)
}

// Update changes text and/or photo; a nil text or saver leaves the field untouched.
func (s *PostService) Update(ctx context.Context, actorID, postID uint, text *string, savePhoto PhotoSaver) (*models.Post, error) {
	if actorID == 0 {
		return nil, ErrUnauthorized
	}
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	newText := post.Text
	if text != nil {
		newText = strings.TrimSpace(*text)
		updates["text"] = newText
	}
	if newText == "" && post.UserPhoto == "" && savePhoto == nil && post.BookID == nil {
		return nil, ErrPostEmpty
	}
	if savePhoto != nil {
		ref, err := savePhoto(ctx)
		if err != nil {
			return nil, err
		}
		updates["user_photo"] = ref
	}
	if len(updates) == 0 {
		return post, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.Post{ID: postID}).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, postID)
}

// Delete removes the post and everything that references it in one transaction.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	if actorID == 0 {
		return ErrUnauthorized
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.UserID != actorID {
			return ErrForbidden
		}
		for _, model := range []interface{}{&models.Like{}, &models.Repost{}, &models.Comment{}, &models.Notification{}} {
			if err := tx.Where("post_id = ?", postID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
}

func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Book").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns a feed page. sort is "latest" (default) or "bookup".
func (s *PostService) List(ctx context.Context, sort string, limit, offset int) ([]models.Post, error) {
	limit = utils.ClampLimit(limit, defaultFeedLimit, maxFeedLimit)
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Preload("User").Preload("Book")
	if sort == SortBookup {
		q = q.Order("repost_count DESC")
	}
	var posts []models.Post
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

// TopBookups is the sidebar list of the most bookmarked posts.
func (s *PostService) TopBookups(ctx context.Context, limit int) ([]models.Post, error) {
	return s.List(ctx, SortBookup, utils.ClampLimit(limit, topBookupLimit, maxFeedLimit), 0)
}

func (s *PostService) UserPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).Preload("User").Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&posts).Error
	return posts, err
}

// UserReposts is the user's BookUp shelf, most recently bookmarked first.
func (s *PostService) UserReposts(ctx context.Context, userID uint) ([]models.Post, error) {
	var reposts []models.Repost
	err := s.db.WithContext(ctx).
		Preload("Post").Preload("Post.User").Preload("Post.Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&reposts).Error
	if err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(reposts))
	for _, r := range reposts {
		posts = append(posts, r.Post)
	}
	return posts, nil
}

// ToDTOs attaches rendered text and the viewer's like/BookUp flags.
func (s *PostService) ToDTOs(ctx context.Context, viewerID uint, posts []models.Post) ([]*dto.PostDTO, error) {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	liked, err := s.interactions.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	reposted, err := s.interactions.RepostedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.PostDTO, 0, len(posts))
	for i := range posts {
		item, err := PostToDTO(&posts[i])
		if err != nil {
			return nil, err
		}
		item.IsLiked = liked[item.ID]
		item.IsReposted = reposted[item.ID]
		out = append(out, item)
	}
	return out, nil
}

func (s *PostService) ToDTO(ctx context.Context, viewerID uint, post *models.Post) (*dto.PostDTO, error) {
	items, err := s.ToDTOs(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

func PostToDTO(post *models.Post) (*dto.PostDTO, error) {
	item := &dto.PostDTO{}
	if err := copier.Copy(item, post); err != nil {
		return nil, fmt.Errorf("map post %d: %w", post.ID, err)
	}
	item.User = UserToBrief(&post.User)
	item.Book = nil
	if post.Book != nil {
		item.Book = &dto.BookDTO{}
		if err := copier.Copy(item.Book, post.Book); err != nil {
			return nil, fmt.Errorf("map book %d: %w", post.Book.ID, err)
		}
	}
	item.TextHTML = utils.RenderMarkdown(post.Text)
	return item, nil
}

// UserToBrief is the public author block; never copies email or password.
func UserToBrief(user *models.User) dto.UserBriefDTO {
	return dto.UserBriefDTO{
		ID:           user.ID,
		Nickname:     user.Nickname,
		ProfileImage: user.ProfileImage,
	}
}
