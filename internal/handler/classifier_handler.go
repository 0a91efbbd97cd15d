package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/middleware"
	"github.com/supportbot/docclassify/internal/model"
)

// Classifier 分类服务接口
type Classifier interface {
	Classify(ctx context.Context, req *model.ClassifyRequest) (*model.ClassifyResponse, error)
}

// ClassifierHandler 分类处理器
type ClassifierHandler struct {
	classifier Classifier
	logger     *zap.Logger
}

// NewClassifierHandler 创建分类处理器
func NewClassifierHandler(classifier Classifier, logger *zap.Logger) *ClassifierHandler {
	return &ClassifierHandler{
		classifier: classifier,
		logger:     logger,
	}
}

// Classify 文本分类接口
//
// GET /api/classify?q=&analyze=&fq=&domain=&range=&defType=&algorithm=
func (h *ClassifierHandler) Classify(c *gin.Context) {
	req := parseClassifyRequest(c)

	h.logger.Info("收到分类请求",
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Strings("domain", req.TrainFields),
		zap.String("range", req.TargetField),
		zap.Int("fq", len(req.Filters)))

	resp, err := h.classifier.Classify(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseClassifyRequest 从查询参数构造请求，区分“未提供”和“空字符串”
func parseClassifyRequest(c *gin.Context) *model.ClassifyRequest {
	req := &model.ClassifyRequest{
		Algorithm:   c.Query("algorithm"),
		Filters:     c.QueryArray("fq"),
		Dialect:     c.Query("defType"),
		TrainFields: c.QueryArray("domain"),
		TargetField: c.Query("range"),
	}
	if q, ok := c.GetQuery("q"); ok {
		req.Query = &q
	}
	if analyze, ok := c.GetQuery("analyze"); ok {
		req.Analyze = &analyze
	}
	return req
}
