package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	GinMode       string `mapstructure:"GIN_MODE"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	DB      DBConfig      `mapstructure:",squash"`
	Books   BooksConfig   `mapstructure:",squash"`
	Storage StorageConfig `mapstructure:",squash"`
}

type DBConfig struct {
	Driver      string `mapstructure:"DB_DRIVER"` // postgres | sqlite
	DSN         string `mapstructure:"DATABASE_URL"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	MaxIdle     int    `mapstructure:"DB_MAX_IDLE"`
	MaxOpen     int    `mapstructure:"DB_MAX_OPEN"`
	MaxLifetime int    `mapstructure:"DB_MAX_LIFETIME"` // minutes
}

type BooksConfig struct {
	KakaoAPIKey     string `mapstructure:"KAKAO_API_KEY"`
	KakaoURL        string `mapstructure:"KAKAO_API_URL"`
	OpenLibraryURL  string `mapstructure:"OPENLIBRARY_URL"`
	CoversURL       string `mapstructure:"OPENLIBRARY_COVERS_URL"`
	GoogleBooksURL  string `mapstructure:"GOOGLE_BOOKS_URL"`
	TimeoutSeconds  int    `mapstructure:"BOOK_SEARCH_TIMEOUT"`
	CacheTTLMinutes int    `mapstructure:"BOOK_SEARCH_CACHE_TTL"`
}

type StorageConfig struct {
	Driver         string `mapstructure:"STORAGE_DRIVER"` // local | minio
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	PublicPrefix   string `mapstructure:"UPLOAD_PUBLIC_PREFIX"`
	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	MinioPublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
}

// devSessionSecret is only accepted outside release mode.
const devSessionSecret = "secret_key_change_me"

var ErrDevSessionSecret = errors.New("SESSION_SECRET must be set when GIN_MODE=release")

var defaults = map[string]any{
	"PORT":                   "8080",
	"GIN_MODE":               "release",
	"LOG_LEVEL":              "info",
	"SESSION_SECRET":         devSessionSecret,
	"DB_DRIVER":              "postgres",
	"DATABASE_URL":           "host=localhost user=postgres password=postgres dbname=readlog port=5432 sslmode=disable TimeZone=Asia/Seoul",
	"SQLITE_PATH":            "data.db",
	"DB_MAX_IDLE":            5,
	"DB_MAX_OPEN":            20,
	"DB_MAX_LIFETIME":        30,
	"KAKAO_API_KEY":          "",
	"KAKAO_API_URL":          "https://dapi.kakao.com/v3/search/book",
	"OPENLIBRARY_URL":        "https://openlibrary.org",
	"OPENLIBRARY_COVERS_URL": "https://covers.openlibrary.org",
	"GOOGLE_BOOKS_URL":       "https://www.googleapis.com/books/v1/volumes",
	"BOOK_SEARCH_TIMEOUT":    8,
	"BOOK_SEARCH_CACHE_TTL":  10,
	"STORAGE_DRIVER":         "local",
	"UPLOAD_DIR":             "uploads",
	"UPLOAD_PUBLIC_PREFIX":   "/uploads",
	"MINIO_ENDPOINT":         "",
	"MINIO_ACCESS_KEY":       "",
	"MINIO_SECRET_KEY":       "",
	"MINIO_BUCKET":           "readlog",
	"MINIO_USE_SSL":          false,
	"MINIO_PUBLIC_URL":       "",
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading config from environment")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(cfg.DB.Driver)
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	cfg.GinMode = strings.ToLower(cfg.GinMode)

	if cfg.SessionSecret == devSessionSecret {
		if cfg.GinMode == "release" {
			return nil, ErrDevSessionSecret
		}
		slog.Warn("SESSION_SECRET is not set, using the development default", "gin_mode", cfg.GinMode)
	}
	return &cfg, nil
}
