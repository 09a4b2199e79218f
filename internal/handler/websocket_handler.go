package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const turnQueueSize = 16

// newUpgrader origins 为空时接受任意来源
func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// WebSocketHandler WebSocket 聊天入口，一个 CHAT 帧对应一轮对话
type WebSocketHandler struct {
	conversations *service.ConversationService
	connections   *service.ConnectionService
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(conversations *service.ConversationService, connections *service.ConnectionService, origins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		conversations: conversations,
		connections:   connections,
		upgrader:      newUpgrader(origins),
		logger:        logger,
	}
}

// HandleWebSocket 建立连接，未携带 sessionId 时新建会话
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 连接断开后进行中的轮次仍需保存
	ctx := context.WithoutCancel(c.Request.Context())

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sess, err := h.conversations.Start(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create session failed"})
			return
		}
		sessionID = sess.ID
	} else if _, err := h.conversations.Get(ctx, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load session failed"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	client := h.connections.Register(sessionID, conn, c.ClientIP())
	defer h.connections.Remove(sessionID, client.ConnectionID)

	h.logger.Info("WebSocket 连接建立",
		zap.String("sessionId", sessionID),
		zap.String("connectionId", client.ConnectionID))

	client.WriteFrame(model.ChatFrame{
		MessageID: uuid.NewString(),
		Type:      model.FrameAck,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})

	// 按接收顺序逐条处理 CHAT，读循环只负责入队
	turns := make(chan *model.ChatFrame, turnQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range turns {
			h.handleChat(ctx, sessionID, f.MessageID, f.Content)
		}
	}()

	for {
		var frame model.ChatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}
		h.handleFrame(sessionID, &frame, turns)
	}

	// 已接收的轮次继续处理完再释放连接
	close(turns)
	<-done
	h.logger.Info("WebSocket 连接断开", zap.String("sessionId", sessionID))
}

// handleFrame 处理客户端帧，队列满时阻塞读循环
func (h *WebSocketHandler) handleFrame(sessionID string, frame *model.ChatFrame, turns chan<- *model.ChatFrame) {
	switch frame.Type {
	case model.FrameChat:
		turns <- frame

	case model.FrameHeartbeat:
		h.connections.UpdateHeartbeat(sessionID)

	default:
		h.logger.Warn("未知消息类型",
			zap.String("sessionId", sessionID),
			zap.String("type", frame.Type))
	}
}

func (h *WebSocketHandler) handleChat(ctx context.Context, sessionID, messageID, content string) {
	reply, sess, err := h.conversations.HandleUserMessage(ctx, sessionID, content)
	if err != nil {
		msg := "internal error"
		if service.IsValidationError(err) {
			msg = err.Error()
		}
		h.connections.SendToSession(sessionID, model.ChatFrame{
			MessageID: messageID,
			Type:      model.FrameError,
			Content:   msg,
			SessionID: sessionID,
			Timestamp: time.Now(),
		})
		return
	}

	out := model.ChatFrame{
		MessageID: messageID,
		Type:      model.FrameReply,
		Content:   reply,
		SessionID: sessionID,
		LeadScore: sess.LeadScore,
		Status:    sess.Status,
		Timestamp: time.Now(),
	}
	if n := len(sess.Messages); n >= 2 {
		out.Emotion = sess.Messages[n-2].Emotion
	}
	h.connections.SendToSession(sessionID, out)
}
