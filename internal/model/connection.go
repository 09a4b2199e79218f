package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConnection 一个浏览器聊天窗口的 WebSocket 连接
type ClientConnection struct {
	ConnectionID  string
	SessionID     string
	Conn          *websocket.Conn
	ClientIP      string
	LastHeartbeat time.Time
	MissedBeats   int
	mu            sync.Mutex // 保护心跳字段和写操作
}

// UpdateHeartbeat 更新心跳时间
func (c *ClientConnection) UpdateHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastHeartbeat = time.Now()
	c.MissedBeats = 0
}

// CheckHeartbeat 心跳超时则累加丢失次数，返回当前丢失次数
func (c *ClientConnection) CheckHeartbeat(now time.Time, timeout time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.LastHeartbeat) > timeout {
		c.MissedBeats++
	}
	return c.MissedBeats
}

// WriteFrame 向 WebSocket 写入消息（线程安全）
func (c *ClientConnection) WriteFrame(frame interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(frame)
}
