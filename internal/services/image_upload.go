package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"readlog/internal/config"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	_ "golang.org/x/image/webp"
)

const (
	MaxImageBytes = 10 << 20
	maxImageSide  = 1280
	jpegQuality   = 85
	sniffLen      = 512
	defaultImgExt = ".jpg"
)

// ImageStore keeps uploaded photos and returns the reference stored on posts and profiles.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	// Remove deletes an image by the reference Save returned; unknown references are ignored.
	Remove(ctx context.Context, ref string) error
}

// NewImageStore 根据 STORAGE_DRIVER 选择存储
func NewImageStore(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinioImageStore(ctx, cfg)
	case "local", "":
		return NewLocalImageStore(cfg.UploadDir, cfg.PublicPrefix)
	}
	return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Driver)
}

// processedImage is an upload after validation and thumbnailing.
type processedImage struct {
	data        []byte
	ext         string
	contentType string
}

// processImage 校验并缩放图片，长边不超过 1280
func processImage(filename string, r io.Reader) (*processedImage, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return nil, ErrFileTooLarge
	}
	head := raw
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return nil, ErrFileNotSupported
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrFileNotSupported
	}
	img = fitImage(img)

	ext := strings.ToLower(filepath.Ext(filename))
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		// webp 等只能解码的格式统一转成 jpeg
		ext, format = defaultImgExt, imaging.JPEG
	}
	if ext == ".jpeg" {
		ext = defaultImgExt
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("编码图片失败: %w", err)
	}
	return &processedImage{
		data:        buf.Bytes(),
		ext:         ext,
		contentType: http.DetectContentType(buf.Bytes()),
	}, nil
}

func fitImage(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxImageSide && b.Dy() <= maxImageSide {
		return img
	}
	return imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
}

// newObjectName 生成 20060102_150405_<uuid> 形式的文件名
func newObjectName(ext string) string {
	return fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8], ext)
}

// LocalImageStore writes files under dir, served at publicPrefix.
type LocalImageStore struct {
	dir          string
	publicPrefix string
}

func NewLocalImageStore(dir, publicPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &LocalImageStore{dir: dir, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	img, err := processImage(filename, r)
	if err != nil {
		return "", err
	}
	name := newObjectName(img.ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), img.data, 0o644); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	slog.InfoContext(ctx, "Image saved", "driver", "local", "name", name, "bytes", len(img.data))
	return path.Join(s.publicPrefix, name), nil
}

func (s *LocalImageStore) Remove(ctx context.Context, ref string) error {
	name := path.Base(ref)
	if name == "." || name == ".." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	slog.InfoContext(ctx, "Image removed", "driver", "local", "name", name)
	return nil
}

// MinioImageStore puts objects into a bucket and returns their public URL.
type MinioImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioImageStore(ctx context.Context, cfg config.StorageConfig) (*MinioImageStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		slog.Info("Created MinIO bucket", "bucket", cfg.MinioBucket)
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		protocol := "http"
		if cfg.MinioUseSSL {
			protocol = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", protocol, cfg.MinioEndpoint, cfg.MinioBucket)
	}
	return &MinioImageStore{client: client, bucket: cfg.MinioBucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *MinioImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	img, err := processImage(filename, r)
	if err != nil {
		return "", err
	}
	name := newObjectName(img.ext)
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(img.data), int64(len(img.data)), minio.PutObjectOptions{
		ContentType: img.contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	slog.InfoContext(ctx, "Image saved", "driver", "minio", "name", name, "bytes", len(img.data))
	return s.publicURL + "/" + name, nil
}

func (s *MinioImageStore) Remove(ctx context.Context, ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	slog.InfoContext(ctx, "Image removed", "driver", "minio", "name", name)
	return nil
}
