package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversions(t *testing.T) {
	assert.Equal(t, 12, StringToInt("12"))
	assert.Equal(t, 0, StringToInt("x"))
	assert.Equal(t, uint(7), StringToUint("7"))
	assert.Equal(t, uint(0), StringToUint("-1"))

	assert.Equal(t, 50, ClampLimit(0, 50, 100))
	assert.Equal(t, 100, ClampLimit(500, 50, 100))
	assert.Equal(t, 20, ClampLimit(20, 50, 100))
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "reader@example.com", NormalizeEmail("  Reader@Example.com "))
	assert.Equal(t, "reader", NicknameFromEmail("reader@example.com"))

	hash, err := HashPassword("secret1")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("secret1", hash))
	assert.False(t, CheckPasswordHash("secret2", hash))
}
