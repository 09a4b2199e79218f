package model

import (
	"strings"
	"time"
)

// Urgency 紧急程度（有序）
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Rank 紧急程度排序值，未知值返回 -1
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast 是否不低于指定紧急程度
func (u Urgency) AtLeast(other Urgency) bool {
	return u.Rank() >= other.Rank() && u.Rank() >= 0
}

// EmotionContext 情绪所处场景
type EmotionContext string

const (
	ContextDental    EmotionContext = "dental"
	ContextGeneral   EmotionContext = "general"
	ContextEmergency EmotionContext = "emergency"
)

// 常用情绪标签
const (
	EmotionAnxiety    = "anxiety"
	EmotionDistress   = "distress"
	EmotionDiscomfort = "discomfort"
	EmotionExcitement = "excitement"
	EmotionNeutral    = "neutral"
	EmotionConcern    = "concern"
)

// EmotionReading 一条消息的情绪识别结果
type EmotionReading struct {
	Primary    string         `json:"primary"`
	Secondary  string         `json:"secondary,omitempty"`
	Confidence float64        `json:"confidence"` // 0-1
	Intensity  int            `json:"intensity"`  // 0-10
	Context    EmotionContext `json:"context"`
	Urgency    Urgency        `json:"urgency"`
}

// IsUrgent urgency 为 high 或 critical
func (e EmotionReading) IsUrgent() bool {
	return e.Urgency.AtLeast(UrgencyHigh)
}

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageMetadata 从用户消息中提取的附加信息
type MessageMetadata struct {
	Intent            string   `json:"intent,omitempty"`
	TreatmentInterest []string `json:"treatmentInterest,omitempty"`
	PainLevel         *int     `json:"painLevel,omitempty"`    // 未自述时为 nil
	AnxietyLevel      *int     `json:"anxietyLevel,omitempty"` // 未自述时为 nil
}

// Message 会话中的一条消息，追加后不再修改
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Emotion   *EmotionReading  `json:"emotion,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// Unknown 未获取到的联系信息占位值
const Unknown = "unknown"

// PatientProfile 患者画像，随对话逐步补全
type PatientProfile struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PreviousPatient bool   `json:"previousPatient"`
	AnxietyLevel    int    `json:"anxietyLevel"`
}

// NewPatientProfile 创建空画像
func NewPatientProfile() PatientProfile {
	return PatientProfile{Name: Unknown, Email: Unknown, Phone: Unknown}
}

// HasName 是否已知姓名
func (p PatientProfile) HasName() bool { return known(p.Name) }

// HasEmail 是否已知邮箱
func (p PatientProfile) HasEmail() bool { return known(p.Email) }

// HasPhone 是否已知电话
func (p PatientProfile) HasPhone() bool { return known(p.Phone) }

func known(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, Unknown)
}

// SessionStatus 会话状态，只能向前推进
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusQualified SessionStatus = "qualified"
	StatusBooked    SessionStatus = "booked"
	StatusClosed    SessionStatus = "closed"
)

// Rank 状态推进顺序，closed 为终态
func (s SessionStatus) Rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusQualified:
		return 1
	case StatusBooked:
		return 2
	case StatusClosed:
		return 3
	default:
		return -1
	}
}

// Session 一次完整的潜在患者对话
type Session struct {
	ID        string         `json:"id"`
	Messages  []Message      `json:"messages"`
	Profile   PatientProfile `json:"patientProfile"`
	LeadScore int            `json:"leadScore"`
	Status    SessionStatus  `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewSession 创建新会话
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Messages:  []Message{},
		Profile:   NewPatientProfile(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append 追加消息并刷新更新时间
func (s *Session) Append(msg Message, now time.Time) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
}

// Advance 推进状态。目标状态不比当前更靠后时不做任何修改并返回 false
func (s *Session) Advance(to SessionStatus, now time.Time) bool {
	if to.Rank() <= s.Status.Rank() {
		return false
	}
	s.Status = to
	s.UpdatedAt = now
	return true
}

// Clone 深拷贝会话
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.Emotion != nil {
			e := *m.Emotion
			m.Emotion = &e
		}
		if m.Metadata != nil {
			md := *m.Metadata
			md.TreatmentInterest = append([]string(nil), m.Metadata.TreatmentInterest...)
			m.Metadata = &md
		}
		c.Messages[i] = m
	}
	return &c
}

// LastMessages 返回最后 n 条消息
func (s *Session) LastMessages(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
