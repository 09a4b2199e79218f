package metrics

import (
	"time"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// otherLabel 未知标签统一归类，限制序列数量
const otherLabel = "other"

var knownEmotions = map[string]bool{
	model.EmotionAnxiety:    true,
	model.EmotionDistress:   true,
	model.EmotionDiscomfort: true,
	model.EmotionExcitement: true,
	model.EmotionNeutral:    true,
	model.EmotionConcern:    true,
}

// Metrics 对话引擎指标
type Metrics struct {
	turns       *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	signals     *prometheus.CounterVec
	leadScore   prometheus.Histogram
	llmLatency  *prometheus.HistogramVec
}

// New 创建并注册指标，reg 为 nil 时不注册
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_turns_total",
			Help: "Conversation turns handled, by primary emotion and urgency.",
		}, []string{"emotion", "urgency"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_fallbacks_total",
			Help: "Deterministic fallbacks used because a collaborator failed.",
		}, []string{"stage"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_status_transitions_total",
			Help: "Session status transitions, by target status.",
		}, []string{"status"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "engagement_signals_total",
			Help: "Notification signals emitted, by type and outcome.",
		}, []string{"type", "outcome"}),
		leadScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engagement_lead_score",
			Help:    "Lead score after each turn.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "engagement_llm_latency_seconds",
			Help:    "Latency of classifier and generator calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"stage", "status"}),
	}

	if reg != nil {
		reg.MustRegister(m.turns, m.fallbacks, m.transitions, m.signals, m.leadScore, m.llmLatency)
	}
	return m
}

// ObserveTurn 记录一轮对话
func (m *Metrics) ObserveTurn(emotion, urgency string, score int) {
	if m == nil {
		return
	}
	if !knownEmotions[emotion] {
		emotion = otherLabel
	}
	if model.Urgency(urgency).Rank() < 0 {
		urgency = otherLabel
	}
	m.turns.WithLabelValues(emotion, urgency).Inc()
	m.leadScore.Observe(float64(score))
}

// IncFallback 记录兜底，stage 为 classify 或 generate
func (m *Metrics) IncFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

// IncTransition 记录状态推进
func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// IncSignal 记录信号发送结果
func (m *Metrics) IncSignal(typ string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.signals.WithLabelValues(typ, outcome).Inc()
}

// ObserveLLM 记录模型调用耗时
func (m *Metrics) ObserveLLM(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmLatency.WithLabelValues(stage, status).Observe(elapsed.Seconds())
}
