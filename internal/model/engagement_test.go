package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUrgency_AtLeast(t *testing.T) {
	tests := []struct {
		u, other Urgency
		want     bool
	}{
		{UrgencyCritical, UrgencyHigh, true},
		{UrgencyHigh, UrgencyHigh, true},
		{UrgencyMedium, UrgencyHigh, false},
		{UrgencyLow, UrgencyLow, true},
		{Urgency("bogus"), UrgencyLow, false},
	}
	for _, tt := range tests {
		if got := tt.u.AtLeast(tt.other); got != tt.want {
			t.Errorf("%q.AtLeast(%q) = %v, want %v", tt.u, tt.other, got, tt.want)
		}
	}
}

func TestSession_Advance(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession("s1", t0)

	steps := []struct {
		to         SessionStatus
		wantChange bool
		wantStatus SessionStatus
	}{
		{StatusActive, false, StatusActive},
		{StatusQualified, true, StatusQualified},
		{StatusActive, false, StatusQualified},
		{StatusBooked, true, StatusBooked},
		{StatusQualified, false, StatusBooked},
		{SessionStatus("bogus"), false, StatusBooked},
		{StatusClosed, true, StatusClosed},
		{StatusBooked, false, StatusClosed},
	}

	for i, step := range steps {
		at := t0.Add(time.Duration(i+1) * time.Minute)
		changed := s.Advance(step.to, at)
		if changed != step.wantChange {
			t.Errorf("step %d Advance(%q) = %v, want %v", i, step.to, changed, step.wantChange)
		}
		if s.Status != step.wantStatus {
			t.Errorf("step %d Status = %q, want %q", i, s.Status, step.wantStatus)
		}
		if changed && !s.UpdatedAt.Equal(at) {
			t.Errorf("step %d UpdatedAt = %v, want %v", i, s.UpdatedAt, at)
		}
	}
}

func TestSession_AdvanceSkipsForward(t *testing.T) {
	s := NewSession("s1", time.Now())
	if !s.Advance(StatusBooked, time.Now()) || s.Status != StatusBooked {
		t.Errorf("Advance(active -> booked) status = %q", s.Status)
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.Append(Message{
		ID:       "m1",
		Role:     RoleUser,
		Content:  "hi",
		Emotion:  &EmotionReading{Primary: EmotionNeutral},
		Metadata: &MessageMetadata{TreatmentInterest: []string{"veneers"}},
	}, time.Now())

	c := s.Clone()
	c.Messages[0].Emotion.Primary = "changed"
	c.Messages[0].Metadata.TreatmentInterest[0] = "changed"
	c.Messages = append(c.Messages, Message{ID: "m2"})
	c.Profile.Name = "Changed"

	if s.Messages[0].Emotion.Primary != EmotionNeutral {
		t.Error("Clone() shares emotion")
	}
	if s.Messages[0].Metadata.TreatmentInterest[0] != "veneers" {
		t.Error("Clone() shares metadata")
	}
	if len(s.Messages) != 1 || s.Profile.Name != Unknown {
		t.Error("Clone() shares messages or profile")
	}

	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Error("Clone() of nil session should be nil")
	}
}

func TestSession_LastMessages(t *testing.T) {
	s := NewSession("s1", time.Now())
	for _, id := range []string{"a", "b", "c"} {
		s.Append(Message{ID: id}, time.Now())
	}

	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{2, "bc"},
		{3, "abc"},
		{10, "abc"},
	}
	for _, tt := range tests {
		var got string
		for _, m := range s.LastMessages(tt.n) {
			got += m.ID
		}
		if got != tt.want {
			t.Errorf("LastMessages(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPatientProfile_Known(t *testing.T) {
	p := NewPatientProfile()
	if p.HasName() || p.HasEmail() || p.HasPhone() {
		t.Errorf("new profile reports known fields: %+v", p)
	}

	p.Name = "UNKNOWN"
	p.Email = "x@y.com"
	if p.HasName() {
		t.Error("HasName() true for UNKNOWN")
	}
	if !p.HasEmail() {
		t.Error("HasEmail() false for real address")
	}
}

func TestSession_JSONShape(t *testing.T) {
	s := NewSession("s1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"id", "messages", "patientProfile", "leadScore", "status", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("session JSON missing %q: %s", key, data)
		}
	}
}
