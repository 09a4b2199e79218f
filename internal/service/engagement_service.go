package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/engagebot-go/internal/config"
	"github.com/brightsmile/engagebot-go/internal/metrics"
	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SignalPublisher 通知信号出口
type SignalPublisher interface {
	Publish(ctx context.Context, sig model.Signal) error
}

const persona = `You are the virtual patient coordinator for a modern dental practice.
Be warm, concise and human. Keep replies under 120 words, never diagnose, and never quote exact prices.
If the patient mentions an emergency, tell them to call the office immediately.`

const signalTimeout = 2 * time.Second

// EngagementService 对话引擎，每轮：识别情绪 -> 选择策略 -> 生成回复 -> 更新会话 -> 重新评分
type EngagementService struct {
	classifier Classifier
	generator  Generator
	publisher  SignalPublisher
	cfg        config.EngagementConfig
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewEngagementService 创建对话引擎
// classifier、generator、publisher、m 均可为 nil
func NewEngagementService(
	classifier Classifier,
	generator Generator,
	publisher SignalPublisher,
	cfg config.EngagementConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EngagementService {
	return &EngagementService{
		classifier: classifier,
		generator:  generator,
		publisher:  publisher,
		cfg:        cfg,
		metrics:    m,
		tracer:     otel.Tracer(tracing.TracerName),
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// HandleTurn 处理一轮用户发言，返回助手回复和更新后的会话副本
// 只有输入不合法时返回错误，分类或生成失败都在内部兜底
func (s *EngagementService) HandleTurn(ctx context.Context, session *model.Session, userText string) (string, *model.Session, error) {
	if session == nil {
		return "", nil, &ValidationError{Field: "session", Err: ErrNilSession}
	}
	text := strings.TrimSpace(userText)
	if text == "" {
		return "", nil, &ValidationError{Field: "content", Err: ErrEmptyMessage}
	}

	ctx, span := s.tracer.Start(ctx, "engagement.turn",
		trace.WithAttributes(attribute.String("session.id", session.ID)))
	defer span.End()

	sess := session.Clone()
	history := append([]model.Message(nil), sess.LastMessages(s.cfg.ContextWindow)...)

	// 1. 情绪识别
	emotion := s.Classify(ctx, text)

	// 2. 追加用户消息
	md := ExtractMetadata(text, emotion)
	ApplyProfile(&sess.Profile, text, emotion, md)
	reading := emotion
	sess.Append(model.Message{
		ID:        s.newID(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: s.now(),
		Emotion:   &reading,
		Metadata:  md,
	}, s.now())

	// 3. 回复策略
	directive := SelectStrategy(emotion)

	// 4. 生成回复
	reply := s.generate(ctx, sess.ID, buildReplyPrompt(directive, history, text), emotion.Primary)

	// 5. 追加助手消息
	sess.Append(model.Message{
		ID:        s.newID(),
		Role:      model.RoleAssistant,
		Content:   reply,
		Timestamp: s.now(),
	}, s.now())

	// 6. 重新评分并推进状态
	s.rescore(sess)

	if emotion.Urgency == model.UrgencyCritical {
		s.emit(ctx, model.NewSignal(model.SignalUrgencyCritical, sess, &reading, s.now()))
	}

	// 7. 刷新更新时间
	sess.UpdatedAt = s.now()

	span.SetAttributes(
		attribute.String("emotion.primary", emotion.Primary),
		attribute.String("emotion.urgency", string(emotion.Urgency)),
		attribute.Int("lead.score", sess.LeadScore),
		attribute.String("session.status", string(sess.Status)))
	s.metrics.ObserveTurn(emotion.Primary, string(emotion.Urgency), sess.LeadScore)

	s.logger.Info("对话轮次完成",
		zap.String("sessionId", sess.ID),
		zap.String("emotion", emotion.Primary),
		zap.String("urgency", string(emotion.Urgency)),
		zap.Int("leadScore", sess.LeadScore),
		zap.String("status", string(sess.Status)))

	return reply, sess, nil
}

// Classify 识别情绪，失败时使用关键词兜底，不返回错误
func (s *EngagementService) Classify(ctx context.Context, text string) model.EmotionReading {
	ctx, span := s.tracer.Start(ctx, "engagement.classify")
	defer span.End()

	start := time.Now()
	reading, err := classifyWithFallback(ctx, s.classifier, s.cfg.ClassifyTimeout, text)
	if s.classifier != nil {
		s.metrics.ObserveLLM("classify", time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("fallback", true))
		s.metrics.IncFallback("classify")
		s.logger.Warn("情绪识别失败，使用关键词兜底",
			zap.String("primary", reading.Primary),
			zap.Error(err))
	}
	return reading
}

// ConfirmBooking 外部预约确认，推进到 booked
func (s *EngagementService) ConfirmBooking(ctx context.Context, session *model.Session) (*model.Session, error) {
	return s.transition(ctx, session, model.StatusBooked, model.SignalStatusBooked)
}

// Close 主动关闭会话，不发送信号
func (s *EngagementService) Close(ctx context.Context, session *model.Session) (*model.Session, error) {
	return s.transition(ctx, session, model.StatusClosed, "")
}

// UpdateContact 表单提交联系方式后更新画像并重新评分，空字段保持原值
func (s *EngagementService) UpdateContact(session *model.Session, req model.ContactRequest) (*model.Session, error) {
	if session == nil {
		return nil, &ValidationError{Field: "session", Err: ErrNilSession}
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return nil, &ValidationError{Field: "email", Err: fmt.Errorf("邮箱格式不正确: %s", email)}
	}
	phone := strings.TrimSpace(req.Phone)
	if phone != "" && digitCount(phone) < 7 {
		return nil, &ValidationError{Field: "phone", Err: fmt.Errorf("电话号码格式不正确: %s", phone)}
	}

	sess := session.Clone()
	if name := strings.TrimSpace(req.Name); name != "" {
		sess.Profile.Name = name
	}
	if email != "" {
		sess.Profile.Email = strings.ToLower(email)
	}
	if phone != "" {
		sess.Profile.Phone = phone
	}
	if req.PreviousPatient != nil {
		sess.Profile.PreviousPatient = *req.PreviousPatient
	}

	s.rescore(sess)
	sess.UpdatedAt = s.now()

	s.logger.Info("联系方式已更新",
		zap.String("sessionId", sess.ID),
		zap.Int("leadScore", sess.LeadScore))
	return sess, nil
}

func (s *EngagementService) transition(ctx context.Context, session *model.Session, to model.SessionStatus, signalType string) (*model.Session, error) {
	if session == nil {
		return nil, &ValidationError{Field: "session", Err: ErrNilSession}
	}

	sess := session.Clone()
	if !sess.Advance(to, s.now()) {
		s.logger.Info("状态未变更",
			zap.String("sessionId", sess.ID),
			zap.String("current", string(sess.Status)),
			zap.String("requested", string(to)))
		return sess, nil
	}

	s.metrics.IncTransition(string(to))
	s.logger.Info("会话状态已推进",
		zap.String("sessionId", sess.ID),
		zap.String("status", string(to)))
	if signalType != "" {
		s.emit(ctx, model.NewSignal(signalType, sess, nil, s.now()))
	}
	return sess, nil
}

// rescore 重新计算评分，首次达到阈值时 active -> qualified
func (s *EngagementService) rescore(sess *model.Session) {
	sess.LeadScore = Score(sess)
	if sess.Status == model.StatusActive && sess.LeadScore >= s.cfg.QualifyThreshold {
		if sess.Advance(model.StatusQualified, s.now()) {
			s.metrics.IncTransition(string(model.StatusQualified))
			s.logger.Info("会话已达到合格线索",
				zap.String("sessionId", sess.ID),
				zap.Int("leadScore", sess.LeadScore))
		}
	}
}

// generate 带超时生成回复，失败返回按情绪准备的固定回复
func (s *EngagementService) generate(ctx context.Context, sessionID, prompt, primary string) string {
	ctx, span := s.tracer.Start(ctx, "engagement.generate")
	defer span.End()

	if s.generator == nil {
		s.metrics.IncFallback("generate")
		return CannedReply(primary)
	}

	start := time.Now()
	reply, err := withTimeout(ctx, s.cfg.GenerateTimeout, func(gctx context.Context) (string, error) {
		return s.generator.Generate(gctx, prompt, s.cfg.MaxTokens, s.cfg.Temperature)
	})
	s.metrics.ObserveLLM("generate", time.Since(start), err)

	if err == nil {
		reply = strings.TrimSpace(reply)
		if reply == "" {
			err = fmt.Errorf("生成内容为空")
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		s.metrics.IncFallback("generate")
		s.logger.Warn("回复生成失败，使用固定回复",
			zap.String("sessionId", sessionID),
			zap.String("emotion", primary),
			zap.Error(err))
		return CannedReply(primary)
	}
	return reply
}

// emit 发送信号，失败只记录日志
func (s *EngagementService) emit(ctx context.Context, sig model.Signal) {
	if s.publisher == nil {
		return
	}
	err := func() error {
		pctx, cancel := context.WithTimeout(ctx, signalTimeout)
		defer cancel()
		return s.publisher.Publish(pctx, sig)
	}()
	s.metrics.IncSignal(sig.Type, err)
	if err != nil {
		s.logger.Error("通知信号发送失败",
			zap.String("type", sig.Type),
			zap.String("sessionId", sig.SessionID),
			zap.Error(err))
	}
}

// buildReplyPrompt 构建回复提示词：人设 + 策略 + 最近 N 条消息 + 当前发言
func buildReplyPrompt(directive StrategyDirective, history []model.Message, text string) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nGuidance: ")
	b.WriteString(directive.Instruction)
	b.WriteString("\nUrgency: ")
	b.WriteString(string(directive.ToneUrgency))

	if len(history) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, m := range history {
			speaker := "Patient"
			if m.Role == model.RoleAssistant {
				speaker = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
		}
	}

	b.WriteString("\nPatient: ")
	b.WriteString(text)
	b.WriteString("\nAssistant:")
	return b.String()
}
