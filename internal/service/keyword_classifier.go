package service

import (
	"strings"

	"github.com/brightsmile/engagebot-go/internal/model"
)

// keywordRule 关键词规则，按声明顺序匹配，先命中者生效
type keywordRule struct {
	name     string
	keywords []string
	reading  model.EmotionReading
}

var fallbackRules = []keywordRule{
	{
		name: "emergency",
		keywords: []string{
			"emergency", "severe pain", "broken tooth", "cracked tooth", "knocked out",
			"unbearable", "bleeding", "swollen",
		},
		reading: model.EmotionReading{
			Primary:    model.EmotionDistress,
			Confidence: 0.9,
			Intensity:  9,
			Context:    model.ContextEmergency,
			Urgency:    model.UrgencyCritical,
		},
	},
	{
		name: "anxiety",
		keywords: []string{
			"nervous", "scared", "anxious", "afraid", "worried", "fear", "terrified", "panic",
		},
		reading: model.EmotionReading{
			Primary:    model.EmotionAnxiety,
			Secondary:  model.EmotionConcern,
			Confidence: 0.8,
			Intensity:  7,
			Context:    model.ContextDental,
			Urgency:    model.UrgencyMedium,
		},
	},
	{
		name:     "pain",
		keywords: []string{"pain", "hurt", "ache", "sore", "sensitive", "throbbing"},
		reading: model.EmotionReading{
			Primary:    model.EmotionDiscomfort,
			Confidence: 0.8,
			Intensity:  6,
			Context:    model.ContextDental,
			Urgency:    model.UrgencyHigh,
		},
	},
	{
		name:     "excitement",
		keywords: []string{"excited", "amazing", "perfect smile", "can't wait", "dream smile"},
		reading: model.EmotionReading{
			Primary:    model.EmotionExcitement,
			Confidence: 0.7,
			Intensity:  6,
			Context:    model.ContextDental,
			Urgency:    model.UrgencyLow,
		},
	},
}

var neutralReading = model.EmotionReading{
	Primary:    model.EmotionNeutral,
	Confidence: 0.6,
	Intensity:  3,
	Context:    model.ContextGeneral,
	Urgency:    model.UrgencyLow,
}

// FallbackClassify 关键词兜底分类
// 优先级固定为 emergency > anxiety > pain > excitement > neutral，与命中数量无关
func FallbackClassify(text string) model.EmotionReading {
	lower := strings.ToLower(text)
	for _, rule := range fallbackRules {
		if containsAny(lower, rule.keywords) {
			return rule.reading
		}
	}
	return neutralReading
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
