package handlers

import (
	"context"

	"readlog/internal/dto"
	"readlog/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// BookSearcher is satisfied by services.BookSearchService.
type BookSearcher interface {
	Search(ctx context.Context, query string) []dto.BookSearchResultDTO
}

type BookHandler struct {
	books  *services.BookService
	search BookSearcher
}

func NewBookHandler(books *services.BookService, search BookSearcher) *BookHandler {
	return &BookHandler{books: books, search: search}
}

// Search /api/books/search?query= ; provider trouble yields an empty list, never an error
func (h *BookHandler) Search(c *gin.Context) {
	var req dto.BookSearchDTO
	if err := c.ShouldBindQuery(&req); err != nil {
		BindError(c, err)
		return
	}
	Success(c, h.search.Search(c.Request.Context(), req.Query))
}

func (h *BookHandler) Detail(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	book, err := h.books.Get(c.Request.Context(), bookID)
	if err != nil {
		Error(c, err)
		return
	}
	var item dto.BookDTO
	if err := copier.Copy(&item, book); err != nil {
		Error(c, err)
		return
	}
	Success(c, item)
}
