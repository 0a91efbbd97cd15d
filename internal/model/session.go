package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamSession 一条分类 WebSocket 连接
type StreamSession struct {
	ID       string
	ClientIP string
	Conn     *websocket.Conn
	OpenedAt time.Time
	handled  int
	mu       sync.Mutex // 保护写入和计数
}

// WriteMessage 向 WebSocket 写入消息（线程安全）
func (s *StreamSession) WriteMessage(message interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handled++
	return s.Conn.WriteJSON(message)
}

// Handled 已回复的消息数
func (s *StreamSession) Handled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handled
}

// Close 发送关闭帧并断开连接
func (s *StreamSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	return s.Conn.Close()
}
