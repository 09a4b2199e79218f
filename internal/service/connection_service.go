package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrSessionOffline = fmt.Errorf("会话没有在线连接")
)

// ConnectionService WebSocket 连接管理，每个会话保留一个连接
type ConnectionService struct {
	connections map[string]*model.ClientConnection // sessionId -> connection
	mu          sync.RWMutex
	timeout     time.Duration
	maxMissed   int
	logger      *zap.Logger
}

// NewConnectionService 创建连接管理服务
func NewConnectionService(timeout time.Duration, maxMissed int, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{
		connections: make(map[string]*model.ClientConnection),
		timeout:     timeout,
		maxMissed:   maxMissed,
		logger:      logger,
	}
}

// Register 注册连接，同一会话的旧连接会被关闭
func (s *ConnectionService) Register(sessionID string, conn *websocket.Conn, clientIP string) *model.ClientConnection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.connections[sessionID]; ok {
		s.logger.Info("会话重新连接，关闭旧连接",
			zap.String("sessionId", sessionID),
			zap.String("oldConnectionId", existing.ConnectionID))
		if existing.Conn != nil {
			existing.Conn.Close()
		}
	}

	c := &model.ClientConnection{
		ConnectionID:  uuid.NewString(),
		SessionID:     sessionID,
		Conn:          conn,
		ClientIP:      clientIP,
		LastHeartbeat: time.Now(),
	}
	s.connections[sessionID] = c

	s.logger.Info("连接注册成功",
		zap.String("sessionId", sessionID),
		zap.String("connectionId", c.ConnectionID),
		zap.String("clientIp", clientIP))
	return c
}

// SendToSession 向会话的连接推送消息
func (s *ConnectionService) SendToSession(sessionID string, frame interface{}) error {
	s.mu.RLock()
	c, ok := s.connections[sessionID]
	s.mu.RUnlock()

	if !ok {
		s.logger.Warn("会话不在线，消息发送失败", zap.String("sessionId", sessionID))
		return ErrSessionOffline
	}

	if err := c.WriteFrame(frame); err != nil {
		s.logger.Error("消息发送失败",
			zap.String("sessionId", sessionID),
			zap.Error(err))
		s.Remove(sessionID, c.ConnectionID)
		return err
	}
	return nil
}

// UpdateHeartbeat 更新心跳时间
func (s *ConnectionService) UpdateHeartbeat(sessionID string) bool {
	s.mu.RLock()
	c, ok := s.connections[sessionID]
	s.mu.RUnlock()

	if !ok {
		return false
	}
	c.UpdateHeartbeat()
	s.logger.Debug("心跳已更新", zap.String("sessionId", sessionID))
	return true
}

// Remove 移除连接，connectionID 不匹配时说明已被新连接替换，不做处理
func (s *ConnectionService) Remove(sessionID, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.connections[sessionID]; ok && c.ConnectionID == connectionID {
		delete(s.connections, sessionID)
		s.logger.Info("连接已移除",
			zap.String("sessionId", sessionID),
			zap.String("connectionId", connectionID))
	}
}

// OnlineCount 在线连接数
func (s *ConnectionService) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// Run 定期检测心跳，ctx 取消后退出
func (s *ConnectionService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.checkHeartbeats(now)
		}
	}
}

// checkHeartbeats 连续丢失心跳达到上限的连接会被关闭
func (s *ConnectionService) checkHeartbeats(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, c := range s.connections {
		missed := c.CheckHeartbeat(now, s.timeout)
		if missed == 0 {
			continue
		}
		if missed >= s.maxMissed {
			s.logger.Info("清理无效连接",
				zap.String("sessionId", sessionID),
				zap.Int("missedBeats", missed))
			if c.Conn != nil {
				c.Conn.Close()
			}
			delete(s.connections, sessionID)
			continue
		}
		s.logger.Warn("连接心跳丢失",
			zap.String("sessionId", sessionID),
			zap.Int("missedBeats", missed))
	}
}
