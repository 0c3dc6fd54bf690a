package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"readlog/internal/services"

	"github.com/gin-gonic/gin"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    ReadLog 내부에서만 사용할 수 있는 이미지입니다
  </text>
</svg>`

// ImageHandler 图片处理 Handler
type ImageHandler struct {
	images services.ImageStore
}

// NewImageHandler 创建 ImageHandler 实例
func NewImageHandler(images services.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload 处理图片上传请求 (POST /api/upload)
// 需要用户已登录
func (h *ImageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		Error(c, services.ErrParamInvalid)
		return
	}
	ref, err := saveUpload(c, h.images, header)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"url": ref})
}

// saveUpload 校验 multipart 文件并交给 ImageStore
func saveUpload(c *gin.Context, images services.ImageStore, header *multipart.FileHeader) (string, error) {
	// 验证文件类型
	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", services.ErrFileNotSupported
	}
	// 验证文件大小（限制 10MB）
	if header.Size > services.MaxImageBytes {
		return "", services.ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", services.ErrParamInvalid
	}
	defer file.Close()

	return images.Save(c.Request.Context(), header.Filename, file)
}

// HotlinkGuard 使用 Sec-Fetch-* 头部检测盗链，挂在 /uploads 上
func HotlinkGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAllowedRequest(c) {
			c.Header("Content-Type", "image/svg+xml")
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.String(http.StatusOK, hotlinkSVG)
			c.Abort()
			return
		}
		// 缓存控制：缓存 7 天
		c.Header("Cache-Control", "public, max-age=604800")
		c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
		c.Next()
	}
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	// 旧浏览器或直接访问 / 同源 / 同站 / 地址栏
	case "", "same-origin", "same-site", "none":
		return true
	}
	// navigate 模式: 允许在新标签页打开图片
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
