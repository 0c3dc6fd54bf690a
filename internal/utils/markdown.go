package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown renders post or comment text to sanitized HTML.
// Results are cached by content hash.
func RenderMarkdown(source string) string {
	if source == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(source))
	key := "md:" + hex.EncodeToString(sum[:])
	if cached, ok := GetCache().Get(key); ok {
		return cached
	}

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return policy.Sanitize(source) // Fallback
	}

	// Sanitize HTML
	sanitized := policy.SanitizeBytes(buf.Bytes())

	out := EnhanceHTMLContent(string(sanitized))
	GetCache().Set(key, out)
	return out
}
