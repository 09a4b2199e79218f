package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"go.uber.org/zap"
)

// Generator 文本生成能力
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Classifier 情绪识别能力
type Classifier interface {
	Classify(ctx context.Context, text string) (model.EmotionReading, error)
}

const classifyInstruction = `Analyze the emotional state of the following message from a prospective dental patient.
Respond with a single JSON object and nothing else, using exactly these fields:
{"primary": "anxiety|distress|discomfort|excitement|neutral|concern", "secondary": "optional tag or empty",
"confidence": 0.0-1.0, "intensity": 0-10, "context": "dental|general|emergency", "urgency": "low|medium|high|critical"}

Message: `

// LLMClassifier 基于大模型的情绪识别
type LLMClassifier struct {
	generator Generator
	maxTokens int
	logger    *zap.Logger
}

// NewLLMClassifier 创建大模型情绪识别器
func NewLLMClassifier(generator Generator, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{
		generator: generator,
		maxTokens: 150,
		logger:    logger,
	}
}

// Classify 调用大模型识别情绪，返回结果已校验修正
func (c *LLMClassifier) Classify(ctx context.Context, text string) (model.EmotionReading, error) {
	raw, err := c.generator.Generate(ctx, classifyInstruction+text, c.maxTokens, 0.1)
	if err != nil {
		return model.EmotionReading{}, fmt.Errorf("LLM 情绪识别失败: %w", err)
	}

	reading, err := DecodeEmotionReading(raw)
	if err != nil {
		return model.EmotionReading{}, err
	}

	c.logger.Debug("情绪识别完成",
		zap.String("primary", reading.Primary),
		zap.String("urgency", string(reading.Urgency)))
	return reading, nil
}

type rawReading struct {
	Primary    string  `json:"primary"`
	Secondary  string  `json:"secondary"`
	Confidence float64 `json:"confidence"`
	Intensity  float64 `json:"intensity"`
	Context    string  `json:"context"`
	Urgency    string  `json:"urgency"`
}

// DecodeEmotionReading 解析大模型返回的 JSON
// 缺少 primary 视为失败；越界数值截断到合法范围，未知枚举值取默认值
func DecodeEmotionReading(raw string) (model.EmotionReading, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return model.EmotionReading{}, fmt.Errorf("情绪识别结果不是 JSON: %q", truncate(raw, 80))
	}

	var r rawReading
	if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil {
		return model.EmotionReading{}, fmt.Errorf("解析情绪识别结果失败: %w", err)
	}

	primary := strings.ToLower(strings.TrimSpace(r.Primary))
	if primary == "" {
		return model.EmotionReading{}, fmt.Errorf("情绪识别结果缺少 primary")
	}

	return normalizeReading(model.EmotionReading{
		Primary:    primary,
		Secondary:  r.Secondary,
		Confidence: r.Confidence,
		Intensity:  int(clampFloat(r.Intensity, 0, 10) + 0.5),
		Context:    model.EmotionContext(r.Context),
		Urgency:    model.Urgency(r.Urgency),
	}), nil
}

// normalizeReading 把任意分类器的结果修正到合法范围
// emergency 语境的 urgency 至少为 high
func normalizeReading(r model.EmotionReading) model.EmotionReading {
	r.Primary = strings.ToLower(strings.TrimSpace(r.Primary))
	r.Secondary = strings.ToLower(strings.TrimSpace(r.Secondary))
	r.Confidence = clampFloat(r.Confidence, 0, 1)
	r.Intensity = min(max(r.Intensity, 0), 10)
	r.Context = model.EmotionContext(strings.ToLower(strings.TrimSpace(string(r.Context))))
	r.Urgency = model.Urgency(strings.ToLower(strings.TrimSpace(string(r.Urgency))))

	switch r.Context {
	case model.ContextDental, model.ContextGeneral, model.ContextEmergency:
	default:
		r.Context = model.ContextGeneral
	}
	if r.Urgency.Rank() < 0 {
		r.Urgency = model.UrgencyLow
	}
	if r.Context == model.ContextEmergency && !r.Urgency.AtLeast(model.UrgencyHigh) {
		r.Urgency = model.UrgencyHigh
	}
	return r
}

// classifyWithFallback 带超时调用分类器，任何失败都退回关键词分类
func classifyWithFallback(ctx context.Context, c Classifier, timeout time.Duration, text string) (model.EmotionReading, error) {
	if c == nil {
		return FallbackClassify(text), fmt.Errorf("未配置情绪识别器")
	}
	reading, err := withTimeout(ctx, timeout, func(cctx context.Context) (model.EmotionReading, error) {
		return c.Classify(cctx, text)
	})
	if err != nil {
		return FallbackClassify(text), err
	}
	reading = normalizeReading(reading)
	if reading.Primary == "" {
		return FallbackClassify(text), fmt.Errorf("情绪识别结果缺少 primary")
	}
	return reading, nil
}

type timedResult[T any] struct {
	val T
	err error
}

// withTimeout 在超时内等待 fn 返回，fn 不响应 ctx 时也按时返回
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan timedResult[T], 1)
	go func() {
		v, err := fn(cctx)
		done <- timedResult[T]{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-cctx.Done():
		var zero T
		return zero, cctx.Err()
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// truncate 按字符截断，不会切开多字节字符
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
