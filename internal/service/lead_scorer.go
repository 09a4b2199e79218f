package service

import (
	"strings"

	"github.com/brightsmile/engagebot-go/internal/model"
)

// 评分权重
const (
	engagementPerMessage = 5
	engagementCap        = 30
	treatmentInterestPts = 25
	emailPts             = 15
	phonePts             = 15
	namePts              = 10
	urgentMessagePts     = 10
	bookingIntentPts     = 20
	maxLeadScore         = 100
)

var (
	treatmentKeywords = []string{"veneers", "implants", "whitening", "cosmetic", "smile makeover"}
	bookingKeywords   = []string{"appointment", "booking", "schedule", "consultation"}
)

// Score 计算线索评分，每次从头计算，不读取 session.LeadScore
func Score(s *model.Session) int {
	if s == nil {
		return 0
	}

	total := min(len(s.Messages)*engagementPerMessage, engagementCap)

	var treatment, booking bool
	for _, m := range s.Messages {
		lower := strings.ToLower(m.Content)
		if !treatment && containsAny(lower, treatmentKeywords) {
			treatment = true
		}
		if !booking && containsAny(lower, bookingKeywords) {
			booking = true
		}
		if m.Emotion != nil && m.Emotion.IsUrgent() {
			total += urgentMessagePts
			if total > maxLeadScore {
				total = maxLeadScore
			}
		}
	}

	if treatment {
		total += treatmentInterestPts
	}
	if booking {
		total += bookingIntentPts
	}
	if s.Profile.HasEmail() {
		total += emailPts
	}
	if s.Profile.HasPhone() {
		total += phonePts
	}
	if s.Profile.HasName() {
		total += namePts
	}

	return min(total, maxLeadScore)
}
