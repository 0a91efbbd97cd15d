package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/model"
	"github.com/supportbot/docclassify/internal/service"
)

// StreamHandler 分类 WebSocket 处理器
type StreamHandler struct {
	classifier Classifier
	registry   *service.StreamRegistry
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewStreamHandler 创建分类 WebSocket 处理器，allowedOrigins 为空时不校验 Origin
func NewStreamHandler(classifier Classifier, registry *service.StreamRegistry, allowedOrigins []string, logger *zap.Logger) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &StreamHandler{
		classifier: classifier,
		registry:   registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		logger: logger,
	}
}

// HandleStream WebSocket 连接入口，每条入站消息是一次分类请求
func (h *StreamHandler) HandleStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	session := h.registry.Register(conn, c.ClientIP())
	defer h.registry.Remove(session.ID)

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.String("sessionId", session.ID), zap.Error(err))
			}
			return
		}

		var req model.ClassifyRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply := model.StreamMessage{Error: &model.ErrorInfo{Code: "INVALID_REQUEST", Message: "malformed request: " + err.Error()}}
			if err := session.WriteMessage(reply); err != nil {
				return
			}
			continue
		}

		msg := model.StreamMessage{ID: req.ID}
		resp, err := h.classifier.Classify(ctx, &req)
		if err != nil {
			_, info := MapError(err)
			msg.Error = &info
		} else {
			msg.Result = resp
		}

		if err := session.WriteMessage(msg); err != nil {
			h.logger.Warn("WebSocket 写入失败", zap.String("sessionId", session.ID), zap.Error(err))
			return
		}
	}
}
