package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/brightsmile/engagebot-go/internal/model"
)

// 意图
const (
	IntentEmergency        = "emergency"
	IntentBooking          = "booking"
	IntentTreatmentInquiry = "treatment_inquiry"
	IntentPricing          = "pricing"
	IntentGeneral          = "general"
)

var (
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern   = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{8,}\d`)
	namePattern    = regexp.MustCompile(`(?i:my name is|call me)\s+([A-Z][A-Za-z'\-]+(?:\s+[A-Z][A-Za-z'\-]+)?)`)
	anxietyPattern = regexp.MustCompile(`(?i)(?:anxiety|anxious|nervous)[^0-9]{0,30}(\d{1,2})\s*(?:/|out of)\s*10`)
	painPattern    = regexp.MustCompile(`(?i)(?:pain|hurts?|ache)[^0-9]{0,30}(\d{1,2})\s*(?:/|out of)\s*10`)
)

var (
	previousPatientPhrases = []string{
		"been here before", "existing patient", "returning patient", "current patient", "seen me before",
	}
	pricingKeywords = []string{"price", "cost", "how much", "insurance", "payment", "afford"}
	treatmentTags   = map[string][]string{
		"veneers":        {"veneer"},
		"implants":       {"implant"},
		"whitening":      {"whitening", "whiten"},
		"cosmetic":       {"cosmetic"},
		"smile_makeover": {"smile makeover"},
		"invisalign":     {"invisalign", "aligner", "braces"},
		"cleaning":       {"cleaning", "checkup", "check-up"},
	}
	// 固定顺序保证标签顺序稳定
	treatmentTagOrder = []string{
		"veneers", "implants", "whitening", "cosmetic", "smile_makeover", "invisalign", "cleaning",
	}
)

// ExtractMetadata 从用户消息中提取意图、治疗意向和自述的疼痛/焦虑程度
func ExtractMetadata(text string, emotion model.EmotionReading) *model.MessageMetadata {
	lower := strings.ToLower(text)
	md := &model.MessageMetadata{
		TreatmentInterest: treatmentInterest(lower),
		PainLevel:         levelFrom(painPattern, text),
		AnxietyLevel:      levelFrom(anxietyPattern, text),
	}

	switch {
	case emotion.Context == model.ContextEmergency:
		md.Intent = IntentEmergency
	case containsAny(lower, bookingKeywords) || strings.Contains(lower, "book"):
		md.Intent = IntentBooking
	case containsAny(lower, pricingKeywords):
		md.Intent = IntentPricing
	case len(md.TreatmentInterest) > 0:
		md.Intent = IntentTreatmentInquiry
	default:
		md.Intent = IntentGeneral
	}
	return md
}

// ApplyProfile 用消息中提取到的信息补全患者画像，已知字段会被新值覆盖
func ApplyProfile(p *model.PatientProfile, text string, emotion model.EmotionReading, md *model.MessageMetadata) {
	if email := emailPattern.FindString(text); email != "" {
		p.Email = strings.ToLower(email)
	}
	if phone := phonePattern.FindString(text); phone != "" && digitCount(phone) >= 10 {
		p.Phone = strings.TrimSpace(phone)
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		p.Name = strings.TrimSpace(m[1])
	}
	if containsAny(strings.ToLower(text), previousPatientPhrases) {
		p.PreviousPatient = true
	}

	switch {
	case md != nil && md.AnxietyLevel != nil:
		p.AnxietyLevel = *md.AnxietyLevel
	case emotion.Primary == model.EmotionAnxiety:
		p.AnxietyLevel = emotion.Intensity
	}
}

func treatmentInterest(lower string) []string {
	var tags []string
	for _, tag := range treatmentTagOrder {
		if containsAny(lower, treatmentTags[tag]) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// levelFrom 提取 "N/10" 形式的自述程度，未找到或越界返回 nil
func levelFrom(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 10 {
		return nil
	}
	return &n
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
