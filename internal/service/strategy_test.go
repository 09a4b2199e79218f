package service

import (
	"testing"

	"github.com/brightsmile/engagebot-go/internal/model"
)

func TestSelectStrategy(t *testing.T) {
	primaries := []string{
		model.EmotionAnxiety, model.EmotionDistress, model.EmotionDiscomfort,
		model.EmotionExcitement, model.EmotionConcern,
	}
	seen := map[string]string{}
	for _, p := range primaries {
		d := SelectStrategy(model.EmotionReading{Primary: p, Urgency: model.UrgencyMedium})
		if d.Instruction == "" || d.Instruction == defaultInstruction {
			t.Errorf("SelectStrategy(%q) used default instruction", p)
		}
		if other, dup := seen[d.Instruction]; dup {
			t.Errorf("SelectStrategy(%q) shares instruction with %q", p, other)
		}
		seen[d.Instruction] = p
	}
}

func TestSelectStrategy_DefaultBranch(t *testing.T) {
	for _, p := range []string{model.EmotionNeutral, "joy", ""} {
		d := SelectStrategy(model.EmotionReading{Primary: p})
		if d.Instruction != defaultInstruction {
			t.Errorf("SelectStrategy(%q) = %q, want default", p, d.Instruction)
		}
	}
}

func TestSelectStrategy_EchoesUrgencyDeterministically(t *testing.T) {
	e := model.EmotionReading{Primary: model.EmotionDistress, Urgency: model.UrgencyCritical}
	a, b := SelectStrategy(e), SelectStrategy(e)
	if a != b {
		t.Errorf("SelectStrategy() not deterministic: %+v vs %+v", a, b)
	}
	if a.ToneUrgency != model.UrgencyCritical {
		t.Errorf("ToneUrgency = %q, want critical", a.ToneUrgency)
	}
}
