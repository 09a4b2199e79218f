package tools

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 门诊时间
const (
	openHour   = 9
	lunchStart = 12
	lunchEnd   = 13
	closeHour  = 17
)

// treatmentDurations 各项目预计时长（分钟）
var treatmentDurations = map[string]int{
	"consultation": 30,
	"cleaning":     60,
	"checkup":      45,
	"emergency":    45,
	"whitening":    90,
	"veneers":      120,
	"implants":     120,
	"invisalign":   45,
	"filling":      60,
	"root_canal":   90,
}

const defaultDuration = 60

// TreatmentDuration 返回项目时长，未知项目按默认时长
func TreatmentDuration(treatment string) (int, bool) {
	d, ok := treatmentDurations[normalizeTreatment(treatment)]
	if !ok {
		return defaultDuration, false
	}
	return d, true
}

// AvailableSlots 返回当天可预约的开始时间，周日休诊
func AvailableSlots(day time.Time, treatment string) []string {
	if day.Weekday() == time.Sunday {
		return []string{}
	}
	duration, _ := TreatmentDuration(treatment)
	step := 30 * time.Minute
	length := time.Duration(duration) * time.Minute

	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	closing := closeHour
	if day.Weekday() == time.Saturday {
		closing = lunchStart
	}

	slots := []string{}
	for start := base.Add(openHour * time.Hour); ; start = start.Add(step) {
		end := start.Add(length)
		if end.After(base.Add(time.Duration(closing) * time.Hour)) {
			break
		}
		if overlapsLunch(base, start, end) {
			continue
		}
		slots = append(slots, start.Format("15:04"))
	}
	return slots
}

func overlapsLunch(base, start, end time.Time) bool {
	ls := base.Add(lunchStart * time.Hour)
	le := base.Add(lunchEnd * time.Hour)
	return start.Before(le) && end.After(ls)
}

func normalizeTreatment(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.ReplaceAll(t, " ", "_")
}

// SlotsResult get_available_slots 的返回
type SlotsResult struct {
	Date      string   `json:"date"`
	Treatment string   `json:"treatment,omitempty"`
	Duration  int      `json:"duration"`
	Slots     []string `json:"slots"`
}

// DurationResult get_treatment_duration 的返回
type DurationResult struct {
	Treatment string `json:"treatment"`
	Minutes   int    `json:"minutes"`
}

// RegisterBookingTools 登记预约相关的只读查询，供外围预约流程使用
func RegisterBookingTools(registry *Registry, logger *zap.Logger) error {
	treatments := make([]string, 0, len(treatmentDurations))
	for name := range treatmentDurations {
		treatments = append(treatments, name)
	}
	sort.Strings(treatments)

	slotsTool := &Tool{
		Name:        "get_available_slots",
		Description: "Query available appointment start times for a date and treatment",
		Params: []Param{
			{Name: "date", Kind: KindDate, Description: "Date in YYYY-MM-DD format", Required: true},
			{Name: "treatment", Kind: KindTreatment, Description: "Treatment; defaults to a 60 minute visit", Enum: treatments},
		},
		Handler: func(a Args) (any, error) {
			treatment := a.String("treatment")
			duration, _ := TreatmentDuration(treatment)
			day := a.Date("date")
			return SlotsResult{
				Date:      day.Format(dateLayout),
				Treatment: treatment,
				Duration:  duration,
				Slots:     AvailableSlots(day, treatment),
			}, nil
		},
	}

	durationTool := &Tool{
		Name:        "get_treatment_duration",
		Description: "Look up the expected duration in minutes of a treatment",
		Params: []Param{
			{Name: "treatment", Kind: KindTreatment, Description: "Treatment name", Required: true, Enum: treatments},
		},
		Handler: func(a Args) (any, error) {
			treatment := a.String("treatment")
			minutes, _ := TreatmentDuration(treatment)
			return DurationResult{Treatment: treatment, Minutes: minutes}, nil
		},
	}

	for _, tool := range []*Tool{slotsTool, durationTool} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	logger.Info("预约工具登记完成", zap.Int("count", registry.Count()))
	return nil
}
