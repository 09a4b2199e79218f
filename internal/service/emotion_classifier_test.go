package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/brightsmile/engagebot-go/internal/model"
	"go.uber.org/zap"
)

func TestDecodeEmotionReading(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.EmotionReading
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"primary":"anxiety","secondary":"concern","confidence":0.85,"intensity":7,"context":"dental","urgency":"medium"}`,
			want: model.EmotionReading{Primary: "anxiety", Secondary: "concern", Confidence: 0.85, Intensity: 7, Context: model.ContextDental, Urgency: model.UrgencyMedium},
		},
		{
			name: "wrapped in prose and fences",
			raw:  "Here you go:\n```json\n{\"primary\":\"Excitement\",\"confidence\":0.7,\"intensity\":6,\"context\":\"dental\",\"urgency\":\"low\"}\n```",
			want: model.EmotionReading{Primary: "excitement", Confidence: 0.7, Intensity: 6, Context: model.ContextDental, Urgency: model.UrgencyLow},
		},
		{
			name: "out of range values clamped",
			raw:  `{"primary":"distress","confidence":1.7,"intensity":14,"context":"dental","urgency":"high"}`,
			want: model.EmotionReading{Primary: "distress", Confidence: 1, Intensity: 10, Context: model.ContextDental, Urgency: model.UrgencyHigh},
		},
		{
			name: "negative values clamped",
			raw:  `{"primary":"neutral","confidence":-0.2,"intensity":-3,"context":"general","urgency":"low"}`,
			want: model.EmotionReading{Primary: "neutral", Confidence: 0, Intensity: 0, Context: model.ContextGeneral, Urgency: model.UrgencyLow},
		},
		{
			name: "unknown enums defaulted",
			raw:  `{"primary":"joy","confidence":0.5,"intensity":4.6,"context":"party","urgency":"whenever"}`,
			want: model.EmotionReading{Primary: "joy", Confidence: 0.5, Intensity: 5, Context: model.ContextGeneral, Urgency: model.UrgencyLow},
		},
		{
			name: "emergency raised to high urgency",
			raw:  `{"primary":"distress","confidence":0.9,"intensity":9,"context":"emergency","urgency":"low"}`,
			want: model.EmotionReading{Primary: "distress", Confidence: 0.9, Intensity: 9, Context: model.ContextEmergency, Urgency: model.UrgencyHigh},
		},
		{name: "missing primary", raw: `{"confidence":0.9}`, wantErr: true},
		{name: "not json", raw: "I think the patient is anxious", wantErr: true},
		{name: "malformed json", raw: `{"primary": "anxiety",}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEmotionReading(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeEmotionReading() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEmotionReading() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeEmotionReading() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLLMClassifier_Classify(t *testing.T) {
	gen := &stubGenerator{reply: `{"primary":"anxiety","confidence":0.8,"intensity":8,"context":"dental","urgency":"medium"}`}
	c := NewLLMClassifier(gen, zap.NewNop())

	got, err := c.Classify(context.Background(), "I hate needles")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.Primary != model.EmotionAnxiety || got.Intensity != 8 {
		t.Errorf("Classify() = %+v, want anxiety intensity 8", got)
	}
	if !strings.HasSuffix(gen.lastPrompt(), "I hate needles") {
		t.Errorf("prompt does not end with message: %q", gen.lastPrompt())
	}
}

func TestLLMClassifier_GeneratorError(t *testing.T) {
	c := NewLLMClassifier(&stubGenerator{err: errUnavailable}, zap.NewNop())
	if _, err := c.Classify(context.Background(), "hi"); !errors.Is(err, errUnavailable) {
		t.Errorf("Classify() error = %v, want wrapping errUnavailable", err)
	}
}

func TestClassifyWithFallback(t *testing.T) {
	llm := model.EmotionReading{Primary: "excitement", Confidence: 0.9, Intensity: 8, Context: model.ContextDental, Urgency: model.UrgencyLow}

	tests := []struct {
		name        string
		classifier  Classifier
		wantPrimary string
		wantErr     bool
	}{
		{"classifier succeeds", &stubClassifier{reading: llm}, model.EmotionExcitement, false},
		{"classifier fails", &stubClassifier{err: errUnavailable}, model.EmotionAnxiety, true},
		{"classifier hangs", &stubClassifier{reading: llm, delay: 2 * time.Second}, model.EmotionAnxiety, true},
		{"no classifier", nil, model.EmotionAnxiety, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			got, err := classifyWithFallback(context.Background(), tt.classifier, 50*time.Millisecond, "I'm so nervous")
			if (err != nil) != tt.wantErr {
				t.Errorf("classifyWithFallback() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.Primary != tt.wantPrimary {
				t.Errorf("Primary = %q, want %q", got.Primary, tt.wantPrimary)
			}
			if elapsed := time.Since(start); elapsed > time.Second {
				t.Errorf("classifyWithFallback() took %v, want bounded by timeout", elapsed)
			}
		})
	}
}

func TestClassifyWithFallback_RepairsInjectedReading(t *testing.T) {
	tests := []struct {
		name string
		in   model.EmotionReading
		want model.EmotionReading
	}{
		{
			name: "out of range values clamped",
			in:   model.EmotionReading{Primary: "Distress", Confidence: 3.5, Intensity: 42, Context: model.ContextEmergency, Urgency: "whenever"},
			want: model.EmotionReading{Primary: "distress", Confidence: 1, Intensity: 10, Context: model.ContextEmergency, Urgency: model.UrgencyHigh},
		},
		{
			name: "negative values raised",
			in:   model.EmotionReading{Primary: "concern", Confidence: -0.2, Intensity: -3, Context: model.ContextDental, Urgency: model.UrgencyMedium},
			want: model.EmotionReading{Primary: "concern", Confidence: 0, Intensity: 0, Context: model.ContextDental, Urgency: model.UrgencyMedium},
		},
		{
			name: "emergency with low urgency",
			in:   model.EmotionReading{Primary: "distress", Confidence: 0.9, Intensity: 9, Context: model.ContextEmergency, Urgency: model.UrgencyLow},
			want: model.EmotionReading{Primary: "distress", Confidence: 0.9, Intensity: 9, Context: model.ContextEmergency, Urgency: model.UrgencyHigh},
		},
		{
			name: "unknown context and urgency",
			in:   model.EmotionReading{Primary: "excitement", Secondary: " Joy ", Confidence: 0.7, Intensity: 6, Context: "spa", Urgency: "URGENT"},
			want: model.EmotionReading{Primary: "excitement", Secondary: "joy", Confidence: 0.7, Intensity: 6, Context: model.ContextGeneral, Urgency: model.UrgencyLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifyWithFallback(context.Background(), &stubClassifier{reading: tt.in}, time.Second, "hello")
			if err != nil {
				t.Fatalf("classifyWithFallback() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("classifyWithFallback() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyWithFallback_EmptyPrimaryFallsBack(t *testing.T) {
	c := &stubClassifier{reading: model.EmotionReading{Primary: "  ", Confidence: 0.9, Intensity: 5}}
	got, err := classifyWithFallback(context.Background(), c, time.Second, "I'm so nervous")
	if err == nil {
		t.Error("classifyWithFallback() error = nil, want missing primary error")
	}
	if got.Primary != model.EmotionAnxiety {
		t.Errorf("Primary = %q, want keyword fallback anxiety", got.Primary)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"牙齿很疼请帮忙", 3, "牙齿很..."},
		{"café au lait", 4, "café..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
