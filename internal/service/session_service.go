package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/supportbot/docclassify/internal/metrics"
	"github.com/supportbot/docclassify/internal/model"
)

// StreamRegistry 分类 WebSocket 连接管理
type StreamRegistry struct {
	sessions map[string]*model.StreamSession // sessionId -> session
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewStreamRegistry 创建连接管理器
func NewStreamRegistry(logger *zap.Logger) *StreamRegistry {
	return &StreamRegistry{
		sessions: make(map[string]*model.StreamSession),
		logger:   logger,
	}
}

// Register 注册连接
func (r *StreamRegistry) Register(conn *websocket.Conn, clientIP string) *model.StreamSession {
	session := &model.StreamSession{
		ID:       uuid.New().String(),
		ClientIP: clientIP,
		Conn:     conn,
		OpenedAt: time.Now(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	metrics.OpenStreams.Inc()

	r.logger.Info("分类流连接建立",
		zap.String("sessionId", session.ID),
		zap.String("clientIp", clientIP))
	return session
}

// Remove 移除连接
func (r *StreamRegistry) Remove(sessionID string) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if !ok {
		return
	}
	metrics.OpenStreams.Dec()
	r.logger.Info("分类流连接断开",
		zap.String("sessionId", sessionID),
		zap.Int("handled", session.Handled()),
		zap.Duration("duration", time.Since(session.OpenedAt)))
}

// Count 当前连接数
func (r *StreamRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll 关闭所有连接，停机时调用
func (r *StreamRegistry) CloseAll() {
	r.mu.RLock()
	sessions := make([]*model.StreamSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			r.logger.Debug("关闭连接失败", zap.String("sessionId", s.ID), zap.Error(err))
		}
	}
}
