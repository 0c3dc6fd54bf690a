package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail 去掉首尾空格并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NicknameFromEmail 取邮箱 @ 前的部分作为默认昵称
func NicknameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
