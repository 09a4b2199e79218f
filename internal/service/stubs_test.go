package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brightsmile/engagebot-go/internal/config"
	"github.com/brightsmile/engagebot-go/internal/model"
	"go.uber.org/zap"
)

var errUnavailable = errors.New("upstream unavailable")

type stubClassifier struct {
	reading model.EmotionReading
	err     error
	delay   time.Duration
}

func (c *stubClassifier) Classify(ctx context.Context, _ string) (model.EmotionReading, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.reading, c.err
}

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	prompts []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, _ int, _ float64) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return g.reply, g.err
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type stubPublisher struct {
	mu      sync.Mutex
	err     error
	signals []model.Signal
}

func (p *stubPublisher) Publish(_ context.Context, sig model.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, sig)
	return p.err
}

func (p *stubPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, s := range p.signals {
		out = append(out, s.Type)
	}
	return out
}

func testEngagementConfig() config.EngagementConfig {
	return config.EngagementConfig{
		QualifyThreshold: 60,
		ContextWindow:    5,
		ClassifyTimeout:  200 * time.Millisecond,
		GenerateTimeout:  200 * time.Millisecond,
		MaxTokens:        300,
		Temperature:      0.7,
	}
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestEngine(c Classifier, g Generator, p SignalPublisher, logger *zap.Logger) *EngagementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := NewEngagementService(c, g, p, testEngagementConfig(), nil, logger)
	e.now = func() time.Time { return testNow }
	return e
}

func userMsg(content string, emotion *model.EmotionReading) model.Message {
	return model.Message{Role: model.RoleUser, Content: content, Emotion: emotion}
}

func assistantMsg(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}
