package handler

import (
	"errors"
	"net/http"

	"github.com/clusterwiki/internal/service"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// pageErrorStatus 把服务层错误翻译为 HTTP 状态码与可读原因。
func pageErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidSlug):
		return http.StatusBadRequest, "Slug cannot be empty"
	case errors.Is(err, service.ErrDuplicateSlug):
		return http.StatusConflict, "A page with that slug already exists"
	case errors.Is(err, service.ErrPageNotFound):
		return http.StatusNotFound, "Page not found"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}

// failPage 记录非预期错误，便于日志与 span 关联。
func failPage(c *gin.Context, err error) (int, string) {
	status, message := pageErrorStatus(err)
	if status >= http.StatusInternalServerError {
		c.Error(err)
	}
	return status, message
}
