package dto

import "time"

type BookDTO struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url"`
	ISBN     string `json:"isbn"`
}

type PostDTO struct {
	ID                   uint         `json:"id"`
	User                 UserBriefDTO `json:"user"`
	Book                 *BookDTO     `json:"book,omitempty"`
	UserPhoto            string       `json:"user_photo"`
	BookCoverURLSnapshot string       `json:"book_cover_url_snapshot"`
	Text                 string       `json:"text"`
	TextHTML             string       `json:"text_html"`
	LikeCount            int          `json:"like_count"`
	RepostCount          int          `json:"repost_count"`
	IsLiked              bool         `json:"is_liked"`
	IsReposted           bool         `json:"is_reposted"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// CreatePostDTO is bound from the multipart create form; the photo travels as a file part.
type CreatePostDTO struct {
	Text         string `form:"text" binding:"max=5000"`
	BookTitle    string `form:"book_title" binding:"max=255"`
	BookAuthor   string `form:"book_author" binding:"max=255"`
	BookCoverURL string `form:"book_cover_url" binding:"omitempty,max=512"`
	BookISBN     string `form:"book_isbn" binding:"max=32"`
}

type UpdatePostDTO struct {
	Text *string `form:"text" binding:"omitempty,max=5000"`
}

type ListPostsDTO struct {
	Sort   string `form:"sort" binding:"omitempty,oneof=latest bookup"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type CommentDTO struct {
	ID        uint         `json:"id"`
	PostID    uint         `json:"post_id"`
	User      UserBriefDTO `json:"user"`
	Text      string       `json:"text"`
	TextHTML  string       `json:"text_html"`
	CreatedAt time.Time    `json:"created_at"`
}

type CreateCommentDTO struct {
	Text string `json:"text" form:"text" binding:"required,max=2000"`
}
