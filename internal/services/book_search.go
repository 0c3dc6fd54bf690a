package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"readlog/internal/config"
	"readlog/internal/dto"
	"readlog/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	bookSearchSize     = 10
	minCoverBytes      = 1024
	maxCoverProbeBytes = 16 * 1024
	coverProbeWorkers  = 4
	bookCacheSize      = 256
)

// kakaoResponse is the subset of the Kakao book search payload we read.
type kakaoResponse struct {
	Documents []struct {
		Title     string   `json:"title"`
		Authors   []string `json:"authors"`
		ISBN      string   `json:"isbn"`
		Thumbnail string   `json:"thumbnail"`
	} `json:"documents"`
}

type openLibraryResponse struct {
	Docs []struct {
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
		ISBN       []string `json:"isbn"`
		CoverI     int64    `json:"cover_i"`
	} `json:"docs"`
}

type googleBooksResponse struct {
	Items []struct {
		VolumeInfo struct {
			ImageLinks map[string]string `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

var googleImageSizes = []string{"extraLarge", "large", "medium", "small", "thumbnail"}

// BookSearchService looks books up in Kakao (when a key is configured) and OpenLibrary.
// It never fails: provider errors are logged and produce fewer results.
type BookSearchService struct {
	cfg    config.BooksConfig
	client *resty.Client
	cache  *utils.TTLCache[[]dto.BookSearchResultDTO]
}

func NewBookSearchService(cfg config.BooksConfig) *BookSearchService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "readlog/1.0")
	client.JSONUnmarshal = json.Unmarshal
	client.JSONMarshal = json.Marshal

	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	cache, err := utils.NewTTLCache[[]dto.BookSearchResultDTO](bookCacheSize, ttl)
	if err != nil {
		panic(err)
	}

	return &BookSearchService{cfg: cfg, client: client, cache: cache}
}

// IsISBNQuery reports whether q (hyphens removed) is 10 or more digits.
func IsISBNQuery(q string) bool {
	digits := strings.ReplaceAll(q, "-", "")
	if len(digits) < 10 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *BookSearchService) Search(ctx context.Context, query string) []dto.BookSearchResultDTO {
	q := strings.TrimSpace(query)
	if q == "" {
		return []dto.BookSearchResultDTO{}
	}
	if cached, ok := s.cache.Get(q); ok {
		return cached
	}

	var results []dto.BookSearchResultDTO
	if s.cfg.KakaoAPIKey != "" {
		var err error
		results, err = s.searchKakao(ctx, q)
		if err != nil {
			slog.WarnContext(ctx, "Kakao book search failed", "query", q, "error", err)
		}
	}
	if len(results) == 0 {
		var err error
		results, err = s.searchOpenLibrary(ctx, q)
		if err != nil {
			slog.WarnContext(ctx, "OpenLibrary search failed", "query", q, "error", err)
		}
	}
	if results == nil {
		results = []dto.BookSearchResultDTO{}
	}

	// empty answers are usually provider trouble; retry next time
	if len(results) > 0 {
		s.cache.Set(q, results)
	}
	return results
}

func (s *BookSearchService) searchKakao(ctx context.Context, q string) ([]dto.BookSearchResultDTO, error) {
	target := "title"
	if IsISBNQuery(q) {
		target = "isbn"
	}

	var payload kakaoResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "KakaoAK "+s.cfg.KakaoAPIKey).
		SetQueryParams(map[string]string{
			"query":  q,
			"target": target,
			"size":   strconv.Itoa(bookSearchSize),
		}).
		SetResult(&payload).
		Get(s.cfg.KakaoURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("kakao: unexpected status %d", resp.StatusCode())
	}

	results := make([]dto.BookSearchResultDTO, len(payload.Documents))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(coverProbeWorkers)
	for i, d := range payload.Documents {
		isbn := lastISBN(d.ISBN)
		results[i] = dto.BookSearchResultDTO{
			Title:  strings.TrimSpace(d.Title),
			Author: strings.Join(d.Authors, ", "),
			ISBN:   isbn,
		}
		thumb := strings.TrimSpace(d.Thumbnail)
		g.Go(func() error {
			results[i].CoverURL = s.resolveCover(gCtx, isbn, thumb)
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r.Title != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *BookSearchService) searchOpenLibrary(ctx context.Context, q string) ([]dto.BookSearchResultDTO, error) {
	var payload openLibraryResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     q,
			"limit": strconv.Itoa(bookSearchSize),
		}).
		SetResult(&payload).
		Get(strings.TrimRight(s.cfg.OpenLibraryURL, "/") + "/search.json")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openlibrary: unexpected status %d", resp.StatusCode())
	}

	results := make([]dto.BookSearchResultDTO, 0, len(payload.Docs))
	for _, d := range payload.Docs {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			continue
		}
		r := dto.BookSearchResultDTO{
			Title:  title,
			Author: strings.Join(d.AuthorName, ", "),
		}
		if len(d.ISBN) > 0 {
			r.ISBN = d.ISBN[0]
		}
		if d.CoverI > 0 {
			r.CoverURL = fmt.Sprintf("%s/b/id/%d-M.jpg", strings.TrimRight(s.cfg.CoversURL, "/"), d.CoverI)
		}
		results = append(results, r)
	}
	return results, nil
}

// resolveCover walks OpenLibrary large cover, Google Books, then the Kakao thumbnail.
func (s *BookSearchService) resolveCover(ctx context.Context, isbn, fallback string) string {
	if isbn == "" {
		return fallback
	}
	if u := fmt.Sprintf("%s/b/isbn/%s-L.jpg", strings.TrimRight(s.cfg.CoversURL, "/"), isbn); s.looksLikeImage(ctx, u) {
		return u
	}
	if u := s.googleCover(ctx, isbn); u != "" && s.looksLikeImage(ctx, u) {
		return u
	}
	return fallback
}

func (s *BookSearchService) googleCover(ctx context.Context, isbn string) string {
	var payload googleBooksResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("q", "isbn:"+isbn).
		SetResult(&payload).
		Get(s.cfg.GoogleBooksURL)
	if err != nil || resp.IsError() || len(payload.Items) == 0 {
		return ""
	}
	links := payload.Items[0].VolumeInfo.ImageLinks
	for _, size := range googleImageSizes {
		if link, ok := links[size]; ok && link != "" {
			return strings.Replace(link, "http://", "https://", 1)
		}
	}
	return ""
}

// looksLikeImage rejects placeholder covers (OpenLibrary answers a 1x1 gif for unknown ISBNs).
func (s *BookSearchService) looksLikeImage(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	head, err := s.client.R().SetContext(ctx).Head(url)
	if err == nil && head.StatusCode() == http.StatusOK {
		if size, err := strconv.ParseInt(head.Header().Get("Content-Length"), 10, 64); err == nil && size >= minCoverBytes {
			return true
		}
	}

	// some servers don't answer HEAD properly
	resp, err := s.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return false
	}
	body := resp.RawBody()
	if body == nil {
		return false
	}
	defer body.Close()
	if resp.StatusCode() != http.StatusOK {
		return false
	}
	n, _ := io.Copy(io.Discard, io.LimitReader(body, maxCoverProbeBytes))
	return n >= minCoverBytes
}

// lastISBN picks the ISBN13 out of Kakao's "ISBN10 ISBN13" field.
func lastISBN(raw string) string {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
