package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"testing"

	"readlog/internal/config"
	"readlog/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// client keeps the latest session cookie like a browser would.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, _ := newTestAppWithUploads(t)
	return a
}

// newTestAppWithUploads also returns the local upload directory.
func newTestAppWithUploads(t *testing.T) (*App, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploadDir := t.TempDir()

	conn, err := db.Open(&config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		SessionSecret: "test-session-secret-32-bytes-long",
		DB:            config.DBConfig{Driver: "sqlite"},
		Storage: config.StorageConfig{
			Driver:       "local",
			UploadDir:    uploadDir,
			PublicPrefix: "/uploads",
		},
	}
	a, err := New(context.Background(), cfg, conn)
	require.NoError(t, err)
	return a, uploadDir
}

func (c *client) do(method, path, contentType, body string) (int, envelope) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (c *client) json(method, path, body string) (int, envelope) {
	return c.do(method, path, "application/json", body)
}

func (c *client) form(method, path string, values url.Values) (int, envelope) {
	return c.do(method, path, "application/x-www-form-urlencoded", values.Encode())
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type idOnly struct {
	ID uint `json:"id"`
}

type toggleBody struct {
	State  string `json:"state"`
	Count  int64  `json:"count"`
	Active bool   `json:"active"`
}

func signup(t *testing.T, a *App, email, nickname string) (*client, uint) {
	t.Helper()
	c := &client{t: t, handler: a.Router}
	code, env := c.json(http.MethodPost, "/signup", fmt.Sprintf(`{"email":%q,"password":"secret1","nickname":%q}`, email, nickname))
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NotEmpty(t, c.cookies)
	return c, decode[idOnly](t, env).ID
}

func TestAnonymousAccess(t *testing.T) {
	a := newTestApp(t)
	anon := &client{t: t, handler: a.Router}

	code, env := anon.json(http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = anon.json(http.MethodPost, "/api/posts/1/like", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	code, _ = anon.json(http.MethodGet, "/api/notifications", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = anon.json(http.MethodGet, "/api/posts/999", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = anon.json(http.MethodGet, "/api/posts/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSignupAndLogin(t *testing.T) {
	a := newTestApp(t)
	reader, _ := signup(t, a, "reader@example.com", "reader")

	code, env := reader.json(http.MethodGet, "/api/me", "")
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		Email       string `json:"email"`
		UnreadCount int64  `json:"unread_count"`
	}](t, env)
	assert.Equal(t, "reader@example.com", me.Email)

	dup := &client{t: t, handler: a.Router}
	code, _ = dup.json(http.MethodPost, "/signup", `{"email":"READER@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = dup.json(http.MethodPost, "/signup", `{"email":"short@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = dup.json(http.MethodPost, "/login", `{"email":"reader@example.com","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = dup.form(http.MethodPost, "/login", url.Values{"email": {"reader@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusOK, code)
	code, _ = dup.json(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = dup.json(http.MethodGet, "/logout", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = dup.json(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPostLikeAndNotify(t *testing.T) {
	a := newTestApp(t)
	author, _ := signup(t, a, "a@example.com", "a")
	reader, _ := signup(t, a, "b@example.com", "b")

	code, env := author.form(http.MethodPost, "/api/posts", url.Values{
		"text":       {"오늘 읽은 책"},
		"book_title": {"데미안"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	postID := decode[idOnly](t, env).ID

	code, _ = author.form(http.MethodPost, "/api/posts", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, code)

	likePath := fmt.Sprintf("/api/posts/%d/like", postID)
	code, env = reader.json(http.MethodPost, likePath, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, toggleBody{State: "added", Count: 1, Active: true}, decode[toggleBody](t, env))

	code, env = reader.json(http.MethodPut, likePath, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, decode[toggleBody](t, env).Count)

	code, env = author.json(http.MethodGet, "/api/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread_count":1}`, string(env.Data))

	code, env = reader.json(http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), "")
	require.Equal(t, http.StatusOK, code)
	detail := decode[struct {
		IsLiked   bool `json:"is_liked"`
		LikeCount int  `json:"like_count"`
		Book      struct {
			ID    uint   `json:"id"`
			Title string `json:"title"`
		} `json:"book"`
	}](t, env)
	assert.True(t, detail.IsLiked)
	assert.Equal(t, 1, detail.LikeCount)
	assert.Equal(t, "데미안", detail.Book.Title)

	code, env = reader.json(http.MethodGet, fmt.Sprintf("/api/books/%d", detail.Book.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"title":"데미안","author":"","cover_url":"","isbn":""}`, detail.Book.ID), string(env.Data))

	code, env = reader.json(http.MethodDelete, likePath, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, toggleBody{State: "removed", Count: 0, Active: false}, decode[toggleBody](t, env))

	code, _ = author.json(http.MethodPost, "/api/notifications/read-all", "")
	require.Equal(t, http.StatusOK, code)
	code, env = author.json(http.MethodGet, "/api/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread_count":0}`, string(env.Data))

	// only the author may delete
	code, _ = reader.json(http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = author.json(http.MethodDelete, fmt.Sprintf("/api/posts/%d", postID), "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = reader.json(http.MethodPost, likePath, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFollowAndProfile(t *testing.T) {
	a := newTestApp(t)
	alice, aliceID := signup(t, a, "alice@example.com", "alice")
	bob, bobID := signup(t, a, "bob@example.com", "bob")

	code, _ := bob.json(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bobID), "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env := bob.json(http.MethodPut, fmt.Sprintf("/api/users/%d/follow", aliceID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, toggleBody{State: "added", Count: 1, Active: true}, decode[toggleBody](t, env))

	code, _ = bob.json(http.MethodPut, "/api/users/999/follow", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = bob.json(http.MethodGet, fmt.Sprintf("/api/users/%d", aliceID), "")
	require.Equal(t, http.StatusOK, code)
	profile := decode[struct {
		FollowerCount int64 `json:"follower_count"`
		IsFollowing   bool  `json:"is_following"`
		IsSelf        bool  `json:"is_self"`
	}](t, env)
	assert.EqualValues(t, 1, profile.FollowerCount)
	assert.True(t, profile.IsFollowing)
	assert.False(t, profile.IsSelf)

	code, env = alice.json(http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), fmt.Sprintf("/profile/%d", bobID))
}

func TestCommentFlow(t *testing.T) {
	a := newTestApp(t)
	author, _ := signup(t, a, "a@example.com", "a")
	reader, _ := signup(t, a, "b@example.com", "b")

	_, env := author.form(http.MethodPost, "/api/posts", url.Values{"text": {"글"}})
	postID := decode[idOnly](t, env).ID
	path := fmt.Sprintf("/api/posts/%d/comments", postID)

	code, _ := reader.json(http.MethodPost, path, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = reader.json(http.MethodPost, path, `{"text":"좋아요"}`)
	assert.Equal(t, http.StatusCreated, code)

	code, env = reader.json(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "좋아요")
}

func TestUploadAndHotlinkGuard(t *testing.T) {
	a := newTestApp(t)
	reader, _ := signup(t, a, "b@example.com", "b")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewNRGBA(image.Rect(0, 0, 32, 32))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="shelf.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	code, env := reader.do(http.MethodPost, "/api/upload", mw.FormDataContentType(), body.String())
	require.Equal(t, http.StatusOK, code, env.Message)
	uploaded := decode[struct {
		URL string `json:"url"`
	}](t, env)
	require.True(t, strings.HasPrefix(uploaded.URL, "/uploads/"))

	req := httptest.NewRequest(http.MethodGet, uploaded.URL, nil)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, uploaded.URL, nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-Mode", "no-cors")
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	anon := &client{t: t, handler: a.Router}
	code, _ = anon.do(http.MethodPost, "/api/upload", mw.FormDataContentType(), body.String())
	assert.Equal(t, http.StatusUnauthorized, code)
}

func photoForm(t *testing.T, text string) (string, string) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewNRGBA(image.Rect(0, 0, 16, 16))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", text))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="page.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), body.String()
}

func storedFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestPostPhotoNotStoredOnRejectedWrite(t *testing.T) {
	a, uploadDir := newTestAppWithUploads(t)
	author, _ := signup(t, a, "a@example.com", "a")
	reader, _ := signup(t, a, "b@example.com", "b")

	_, env := author.form(http.MethodPost, "/api/posts", url.Values{"text": {"글"}})
	postID := decode[idOnly](t, env).ID
	path := fmt.Sprintf("/api/posts/%d", postID)

	contentType, body := photoForm(t, "가로채기")
	code, _ := reader.do(http.MethodPatch, path, contentType, body)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 0, storedFiles(t, uploadDir))

	code, _ = author.do(http.MethodPatch, "/api/posts/999", contentType, body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 0, storedFiles(t, uploadDir))

	anon := &client{t: t, handler: a.Router}
	code, _ = anon.do(http.MethodPost, "/api/posts", contentType, body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 0, storedFiles(t, uploadDir))

	code, env = reader.do(http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "글", decode[struct {
		Text string `json:"text"`
	}](t, env).Text)

	contentType, body = photoForm(t, "사진 추가")
	code, env = author.do(http.MethodPatch, path, contentType, body)
	require.Equal(t, http.StatusOK, code, env.Message)
	updated := decode[struct {
		Text      string `json:"text"`
		UserPhoto string `json:"user_photo"`
	}](t, env)
	assert.Equal(t, "사진 추가", updated.Text)
	assert.True(t, strings.HasPrefix(updated.UserPhoto, "/uploads/"))
	assert.Equal(t, 1, storedFiles(t, uploadDir))
}
