package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportbot/docclassify/internal/classify"
	"github.com/supportbot/docclassify/internal/middleware"
	"github.com/supportbot/docclassify/internal/model"
)

// MapError 把分类错误映射为 HTTP 状态码和错误详情
func MapError(err error) (int, model.ErrorInfo) {
	var parseErr *classify.QueryParseError
	var classErr *classify.ClassificationError

	switch {
	case errors.Is(err, classify.ErrUnsupportedAlgorithm):
		return http.StatusBadRequest, model.ErrorInfo{Code: "UNSUPPORTED_ALGORITHM", Message: err.Error()}
	case errors.Is(err, classify.ErrInvalidRequest):
		return http.StatusBadRequest, model.ErrorInfo{Code: "INVALID_REQUEST", Message: err.Error()}
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, model.ErrorInfo{Code: "QUERY_PARSE_ERROR", Message: err.Error()}
	case errors.As(err, &classErr):
		return http.StatusInternalServerError, model.ErrorInfo{Code: "CLASSIFICATION_FAILED", Message: "classification failed"}
	default:
		return http.StatusInternalServerError, model.ErrorInfo{Code: "INTERNAL_ERROR", Message: "internal server error"}
	}
}

func respondError(c *gin.Context, err error) {
	status, info := MapError(err)
	c.JSON(status, gin.H{
		"error":      info,
		"request_id": c.GetString(middleware.RequestIDKey),
	})
}
