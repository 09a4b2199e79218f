package service

import (
	"testing"

	"github.com/brightsmile/engagebot-go/internal/model"
)

func TestFallbackClassify(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantPrimary string
		wantUrgency model.Urgency
		wantContext model.EmotionContext
		wantIntens  int
	}{
		{"emergency", "This is an EMERGENCY, my tooth fell out", model.EmotionDistress, model.UrgencyCritical, model.ContextEmergency, 9},
		{"broken tooth", "I have a broken tooth", model.EmotionDistress, model.UrgencyCritical, model.ContextEmergency, 9},
		{"emergency beats anxiety", "I'm scared, I have severe pain", model.EmotionDistress, model.UrgencyCritical, model.ContextEmergency, 9},
		{"anxiety beats pain", "I'm really scared, it hurts so much", model.EmotionAnxiety, model.UrgencyMedium, model.ContextDental, 7},
		{"anxiety", "I get so nervous at the dentist", model.EmotionAnxiety, model.UrgencyMedium, model.ContextDental, 7},
		{"pain", "My molar has a dull ache", model.EmotionDiscomfort, model.UrgencyHigh, model.ContextDental, 6},
		{"pain beats excitement", "Excited but my gums are sore", model.EmotionDiscomfort, model.UrgencyHigh, model.ContextDental, 6},
		{"excitement", "I want the perfect smile for my wedding!", model.EmotionExcitement, model.UrgencyLow, model.ContextDental, 6},
		{"neutral", "What are your opening hours?", model.EmotionNeutral, model.UrgencyLow, model.ContextGeneral, 3},
		{"empty", "", model.EmotionNeutral, model.UrgencyLow, model.ContextGeneral, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackClassify(tt.text)
			if got.Primary != tt.wantPrimary {
				t.Errorf("Primary = %q, want %q", got.Primary, tt.wantPrimary)
			}
			if got.Urgency != tt.wantUrgency {
				t.Errorf("Urgency = %q, want %q", got.Urgency, tt.wantUrgency)
			}
			if got.Context != tt.wantContext {
				t.Errorf("Context = %q, want %q", got.Context, tt.wantContext)
			}
			if got.Intensity != tt.wantIntens {
				t.Errorf("Intensity = %d, want %d", got.Intensity, tt.wantIntens)
			}
		})
	}
}

func TestFallbackClassify_AnxietySecondary(t *testing.T) {
	got := FallbackClassify("honestly I'm terrified")
	if got.Secondary != model.EmotionConcern {
		t.Errorf("Secondary = %q, want %q", got.Secondary, model.EmotionConcern)
	}
	if got.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", got.Confidence)
	}
}

func TestFallbackClassify_EmergencyKeywordsAlwaysCritical(t *testing.T) {
	for _, kw := range fallbackRules[0].keywords {
		got := FallbackClassify("Hello, " + kw + " and I'm excited and nervous")
		if got.Urgency != model.UrgencyCritical || got.Context != model.ContextEmergency {
			t.Errorf("FallbackClassify(%q) = %+v, want critical emergency", kw, got)
		}
	}
}

func TestFallbackClassify_ReadingsInRange(t *testing.T) {
	for _, rule := range append(fallbackRules, keywordRule{reading: neutralReading}) {
		r := rule.reading
		if r.Confidence < 0 || r.Confidence > 1 || r.Intensity < 0 || r.Intensity > 10 {
			t.Errorf("rule %q reading out of range: %+v", rule.name, r)
		}
		if r.Context == model.ContextEmergency && !r.IsUrgent() {
			t.Errorf("rule %q emergency reading not urgent: %+v", rule.name, r)
		}
	}
}
