package service

import "github.com/brightsmile/engagebot-go/internal/model"

// 生成失败时的兜底回复
// 回复文本不能包含评分关键词，否则会影响线索评分
var cannedReplies = map[string]string{
	model.EmotionAnxiety: "It's completely normal to feel nervous about dental care, and you're not alone. " +
		"Our team takes things at your pace and offers comfort options to keep you relaxed. " +
		"What worries you most?",
	model.EmotionDistress: "I'm sorry you're going through this. Please call our office right away so we can " +
		"see you as soon as possible. If you have heavy bleeding or swelling that affects breathing, " +
		"go to the nearest emergency room.",
	model.EmotionDiscomfort: "I'm sorry you're uncomfortable. Tooth pain usually means something needs attention, " +
		"and our dentists can find the cause quickly. Can you tell me where it hurts?",
	model.EmotionExcitement: "That's wonderful to hear! We love helping people get the results they're hoping for. " +
		"Tell me a bit more about what you have in mind.",
	model.EmotionConcern: "That's a very reasonable question. I'm happy to walk you through it so you can decide " +
		"with confidence.",
}

const defaultCannedReply = "Thanks for reaching out to our practice! I'm here to help with any questions " +
	"about your dental care. How can I help you today?"

// CannedReply 按情绪返回固定回复，未知情绪返回默认回复
func CannedReply(primary string) string {
	if reply, ok := cannedReplies[primary]; ok {
		return reply
	}
	return defaultCannedReply
}
