package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/workers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationService 会话级服务：读取会话 -> 调用引擎 -> 保存
// 同一会话的操作通过 worker 池串行执行
type ConversationService struct {
	engine *EngagementService
	store  SessionStore
	pool   *workers.Pool
	logger *zap.Logger
}

// NewConversationService 创建会话服务
func NewConversationService(engine *EngagementService, store SessionStore, pool *workers.Pool, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		engine: engine,
		store:  store,
		pool:   pool,
		logger: logger,
	}
}

// Start 新建会话
func (s *ConversationService) Start(ctx context.Context) (*model.Session, error) {
	sess := model.NewSession(uuid.NewString(), time.Now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("新建会话", zap.String("sessionId", sess.ID))
	return sess, nil
}

// Get 读取会话
func (s *ConversationService) Get(ctx context.Context, id string) (*model.Session, error) {
	return s.store.Get(ctx, id)
}

// HandleUserMessage 处理用户消息
func (s *ConversationService) HandleUserMessage(ctx context.Context, sessionID, content string) (string, *model.Session, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil, &ValidationError{Field: "content", Err: ErrEmptyMessage}
	}

	s.logger.Info("处理用户消息",
		zap.String("sessionId", sessionID),
		zap.Int("length", len(content)))

	var reply string
	updated, err := s.mutate(ctx, sessionID, func(sess *model.Session) (*model.Session, error) {
		r, next, err := s.engine.HandleTurn(ctx, sess, content)
		reply = r
		return next, err
	})
	if err != nil {
		return "", nil, err
	}
	return reply, updated, nil
}

// ConfirmBooking 预约确认
func (s *ConversationService) ConfirmBooking(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(sess *model.Session) (*model.Session, error) {
		return s.engine.ConfirmBooking(ctx, sess)
	})
}

// Close 关闭会话
func (s *ConversationService) Close(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(sess *model.Session) (*model.Session, error) {
		return s.engine.Close(ctx, sess)
	})
}

// UpdateContact 更新联系方式
func (s *ConversationService) UpdateContact(ctx context.Context, sessionID string, req model.ContactRequest) (*model.Session, error) {
	return s.mutate(ctx, sessionID, func(sess *model.Session) (*model.Session, error) {
		return s.engine.UpdateContact(sess, req)
	})
}

// mutate 在会话所属 worker 上执行 读取 -> 修改 -> 保存
func (s *ConversationService) mutate(ctx context.Context, sessionID string, fn func(*model.Session) (*model.Session, error)) (*model.Session, error) {
	var (
		result *model.Session
		opErr  error
	)
	err := s.pool.Do(ctx, sessionID, func() {
		sess, err := s.store.Get(ctx, sessionID)
		if err != nil {
			opErr = err
			return
		}

		next, err := fn(sess)
		if err != nil {
			opErr = err
			return
		}

		if err := s.store.Save(ctx, next); err != nil {
			opErr = err
			return
		}
		result = next
	})
	if err != nil {
		return nil, fmt.Errorf("会话任务调度失败: %w", err)
	}
	if opErr != nil {
		s.logger.Warn("会话操作失败",
			zap.String("sessionId", sessionID),
			zap.Error(opErr))
		return nil, opErr
	}
	return result, nil
}
