package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter kafka.Writer 的子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 将信号写入 Kafka，key 为会话 ID，同一会话落在同一分区
type KafkaPublisher struct {
	writer     messageWriter
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewKafkaPublisher 创建 Kafka 信号发布器
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:     w,
		maxRetries: 2,
		backoff:    100 * time.Millisecond,
		logger:     logger,
	}
}

// Publish 写入信号，瞬时错误按退避重试
func (p *KafkaPublisher) Publish(ctx context.Context, sig model.Signal) error {
	value, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("序列化信号失败: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(sig.SessionID),
		Value: value,
		Time:  sig.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(sig.Type)},
		},
	}

	var writeErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		writeErr = p.writer.WriteMessages(ctx, msg)
		if writeErr == nil {
			p.logger.Debug("信号已写入 Kafka",
				zap.String("type", sig.Type),
				zap.String("sessionId", sig.SessionID))
			return nil
		}
		if ctx.Err() != nil {
			break
		}

		p.logger.Warn("写入 Kafka 失败，准备重试",
			zap.Int("attempt", attempt+1),
			zap.String("sessionId", sig.SessionID),
			zap.Error(writeErr))

		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt+1) * p.backoff):
		}
	}
	return fmt.Errorf("写入 Kafka 失败: %w", writeErr)
}

// Close 关闭 writer，进程退出时调用
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
