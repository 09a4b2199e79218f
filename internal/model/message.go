package model

import "time"

// 聊天帧类型
const (
	FrameChat      = "CHAT"
	FrameHeartbeat = "HEARTBEAT"
	FrameReply     = "AI_RESPONSE"
	FrameAck       = "ACK"
	FrameError     = "ERROR"
)

// ChatFrame WebSocket 聊天帧
type ChatFrame struct {
	MessageID string          `json:"messageId"`
	Type      string          `json:"type"` // CHAT, HEARTBEAT, AI_RESPONSE, ACK, ERROR
	Content   string          `json:"content"`
	SessionID string          `json:"sessionId,omitempty"`
	LeadScore int             `json:"leadScore,omitempty"`
	Status    SessionStatus   `json:"status,omitempty"`
	Emotion   *EmotionReading `json:"emotion,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TurnRequest 用户发言请求
type TurnRequest struct {
	Content string `json:"content"`
}

// TurnResponse 一轮对话的结果
type TurnResponse struct {
	Reply   string   `json:"reply"`
	Session *Session `json:"session"`
}

// ContactRequest 表单提交的联系方式
type ContactRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PreviousPatient *bool  `json:"previousPatient,omitempty"`
}

// ClassifyRequest 情绪识别请求
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// ScoreResponse 线索评分响应
type ScoreResponse struct {
	Score int `json:"score"`
}
