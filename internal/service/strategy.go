package service

import "github.com/brightsmile/engagebot-go/internal/model"

// StrategyDirective 回复语气指令
type StrategyDirective struct {
	Instruction string        `json:"instruction"`
	ToneUrgency model.Urgency `json:"toneUrgency"`
}

var strategyInstructions = map[string]string{
	model.EmotionAnxiety: "Respond with calm reassurance. Acknowledge the worry, explain that comfort options " +
		"such as sedation and gentle pacing are available, and avoid clinical jargon.",
	model.EmotionDistress: "Treat this as urgent. Express empathy briefly, give clear next steps for immediate " +
		"care, and offer the earliest possible visit.",
	model.EmotionDiscomfort: "Show empathy for the discomfort, ask one short question about the symptom, and " +
		"suggest a prompt examination.",
	model.EmotionExcitement: "Match the enthusiasm, highlight the results the patient can expect, and invite " +
		"them to take the next step.",
	model.EmotionConcern: "Address the concern directly and honestly, offer clear information, and invite " +
		"follow-up questions.",
}

const defaultInstruction = "Respond in a warm, professional tone. Answer the question clearly and offer help " +
	"with the next step."

// SelectStrategy 根据情绪选择回复策略，未知情绪使用默认策略
func SelectStrategy(e model.EmotionReading) StrategyDirective {
	instruction, ok := strategyInstructions[e.Primary]
	if !ok {
		instruction = defaultInstruction
	}
	return StrategyDirective{
		Instruction: instruction,
		ToneUrgency: e.Urgency,
	}
}
