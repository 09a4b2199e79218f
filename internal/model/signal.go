package model

import "time"

// 通知信号类型
const (
	SignalUrgencyCritical = "urgency_critical"
	SignalStatusBooked    = "status_booked"
)

// Signal 对话引擎发出的事件，由外部通知服务消费
type Signal struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	LeadScore int             `json:"leadScore"`
	Status    SessionStatus   `json:"status"`
	Emotion   *EmotionReading `json:"emotion,omitempty"`
	Profile   PatientProfile  `json:"patientProfile"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSignal 根据会话当前状态构造信号
func NewSignal(typ string, s *Session, emotion *EmotionReading, now time.Time) Signal {
	return Signal{
		Type:      typ,
		SessionID: s.ID,
		LeadScore: s.LeadScore,
		Status:    s.Status,
		Emotion:   emotion,
		Profile:   s.Profile,
		Timestamp: now,
	}
}
