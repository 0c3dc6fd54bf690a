package services

import (
	"context"
	"errors"
	"strings"

	"readlog/internal/models"

	"gorm.io/gorm"
)

type BookService struct {
	db *gorm.DB
}

func NewBookService(db *gorm.DB) *BookService {
	return &BookService{db: db}
}

// GetOrCreateBook returns the shared Book row for (title, author).
// An existing row keeps its cover; coverURL and isbn are only used for a new row.
func (s *BookService) GetOrCreateBook(ctx context.Context, title, author, coverURL, isbn string) (*models.Book, error) {
	return getOrCreateBook(s.db.WithContext(ctx), title, author, coverURL, isbn)
}

func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func getOrCreateBook(tx *gorm.DB, title, author, coverURL, isbn string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author) // "" is the stored form of "no author"
	if title == "" {
		return nil, ErrParamInvalid
	}

	book, err := findBook(tx, title, author)
	if err != nil || book != nil {
		return book, err
	}

	book = &models.Book{
		Title:    title,
		Author:   author,
		CoverURL: strings.TrimSpace(coverURL),
		ISBN:     strings.TrimSpace(isbn),
	}
	// A savepoint keeps an enclosing postgres transaction usable after the unique violation.
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(book).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost the race against another first insert; use the winner
		winner, ferr := findBook(tx, title, author)
		if ferr != nil {
			return nil, ferr
		}
		if winner == nil {
			return nil, err
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

func findBook(tx *gorm.DB, title, author string) (*models.Book, error) {
	var book models.Book
	err := tx.Where("title = ? AND author = ?", title, author).Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}
