package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"readlog/internal/services"
	"readlog/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Response is the envelope of every API answer; Code mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	code, ok := services.StatusOf(err)
	if !ok {
		slog.ErrorContext(c.Request.Context(), "Unhandled error", "path", c.FullPath(), "error", err)
		Fail(c, http.StatusInternalServerError, services.ErrUnexpected.Error())
		return
	}
	Fail(c, code, err.Error())
}

// BindError answers a request that failed gin binding or validation.
func BindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		Fail(c, http.StatusBadRequest, fmt.Sprintf("%s (%s)", services.ErrParamInvalid.Error(), strings.ToLower(ve[0].Field())))
		return
	}
	Fail(c, http.StatusBadRequest, services.ErrParamInvalid.Error())
}

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	id := utils.StringToUint(c.Param(name))
	if id == 0 {
		Error(c, services.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

func toggleDTO(r services.ToggleResult) gin.H {
	return gin.H{"state": r.State, "count": r.Count, "active": r.Active()}
}
