package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/middleware"
	"github.com/supportbot/docclassify/internal/service"
)

// IndexStatter 索引统计接口
type IndexStatter interface {
	Stats() (*service.IndexStats, error)
}

// StreamCounter 当前连接数接口
type StreamCounter interface {
	Count() int
}

// APIHandler API 处理器
type APIHandler struct {
	serviceName string
	algorithm   string
	index       IndexStatter
	streams     StreamCounter
	logger      *zap.Logger
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(serviceName, algorithm string, index IndexStatter, streams StreamCounter, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		serviceName: serviceName,
		algorithm:   algorithm,
		index:       index,
		streams:     streams,
		logger:      logger,
	}
}

// Health 健康检查
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "UP",
		"service":      h.serviceName,
		"algorithm":    h.algorithm,
		"open_streams": h.streams.Count(),
	})
}

// IndexStats 索引统计
func (h *APIHandler) IndexStats(c *gin.Context) {
	stats, err := h.index.Stats()
	if err != nil {
		h.logger.Error("获取索引统计失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      gin.H{"code": "INTERNAL_ERROR", "message": "index unavailable"},
			"request_id": c.GetString(middleware.RequestIDKey),
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
