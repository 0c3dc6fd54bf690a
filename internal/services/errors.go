package services

import (
	"errors"
	"net/http"
)

var (
	ErrParamInvalid      = errors.New("잘못된 요청입니다.")
	ErrUnauthorized      = errors.New("로그인이 필요합니다.")
	ErrForbidden         = errors.New("권한이 없습니다.")
	ErrUserNotFound      = errors.New("사용자를 찾을 수 없습니다.")
	ErrUserExist         = errors.New("이미 가입된 이메일입니다.")
	ErrPasswordIncorrect = errors.New("이메일 또는 비밀번호가 올바르지 않습니다.")
	ErrPasswordTooShort  = errors.New("비밀번호는 6자 이상이어야 합니다.")
	ErrFollowSelf        = errors.New("자기 자신을 팔로우할 수 없습니다.")
	ErrPostNotFound      = errors.New("게시물을 찾을 수 없습니다.")
	ErrPostEmpty         = errors.New("사진, 책 또는 내용 중 하나는 필요합니다.")
	ErrCommentEmpty      = errors.New("댓글 내용을 입력해주세요.")
	ErrBookNotFound      = errors.New("책을 찾을 수 없습니다.")
	ErrFileNotSupported  = errors.New("이미지 파일만 업로드할 수 있습니다.")
	ErrFileTooLarge      = errors.New("이미지 크기는 10MB를 넘을 수 없습니다.")
	ErrUnexpected        = errors.New("internal error")
)

// ErrorMap maps service errors to HTTP status codes.
var ErrorMap = map[error]int{
	ErrParamInvalid:      http.StatusBadRequest,
	ErrUnauthorized:      http.StatusUnauthorized,
	ErrForbidden:         http.StatusForbidden,
	ErrUserNotFound:      http.StatusNotFound,
	ErrUserExist:         http.StatusBadRequest,
	ErrPasswordIncorrect: http.StatusUnauthorized,
	ErrPasswordTooShort:  http.StatusBadRequest,
	ErrFollowSelf:        http.StatusForbidden,
	ErrPostNotFound:      http.StatusNotFound,
	ErrPostEmpty:         http.StatusBadRequest,
	ErrCommentEmpty:      http.StatusBadRequest,
	ErrBookNotFound:      http.StatusNotFound,
	ErrFileNotSupported:  http.StatusBadRequest,
	ErrFileTooLarge:      http.StatusBadRequest,
	ErrUnexpected:        http.StatusInternalServerError,
}

// StatusOf returns the HTTP status for err and whether err is a known service error.
func StatusOf(err error) (int, bool) {
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return http.StatusInternalServerError, false
}
