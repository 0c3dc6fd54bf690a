package services

import (
	"fmt"
	"testing"

	"readlog/internal/config"
	"readlog/internal/db"
	"readlog/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(&config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, nickname string) *models.User {
	t.Helper()
	u := &models.User{
		Email:    fmt.Sprintf("%s@readlog.test", nickname),
		Nickname: nickname,
		Password: "not-a-real-hash",
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func createPost(t *testing.T, conn *gorm.DB, author *models.User, text string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: author.ID, Text: text}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func reloadPost(t *testing.T, conn *gorm.DB, id uint) *models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, conn.First(&p, id).Error)
	return &p
}

func countRows(t *testing.T, conn *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
