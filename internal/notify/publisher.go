package notify

import (
	"context"

	"github.com/brightsmile/engagebot-go/internal/model"
	"go.uber.org/zap"
)

// LogPublisher 未启用 Kafka 时只记录日志
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher 创建日志信号发布器
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish 记录信号
func (p *LogPublisher) Publish(_ context.Context, sig model.Signal) error {
	p.logger.Info("发出通知信号",
		zap.String("type", sig.Type),
		zap.String("sessionId", sig.SessionID),
		zap.Int("leadScore", sig.LeadScore),
		zap.String("status", string(sig.Status)))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
