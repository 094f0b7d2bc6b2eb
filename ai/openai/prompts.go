package openai

import "fmt"

const chatSystemPreamble = `You are an AI study companion. Be concise and accurate.`

const chatGuestSuffix = ` The user has no indexed documents. Answer from general knowledge.`

const chatGroundedTemplate = ` Answer based on the provided CONTEXT documents. Prefer the context over
general knowledge and say so when the context does not cover the question.

CONTEXT:
%s`

// buildChatSystemPrompt assembles the system message for a chat request.
// With an empty grounding context the prompt degrades to general answering.
func buildChatSystemPrompt(systemContext string) string {
	if systemContext == "" {
		return chatSystemPreamble + chatGuestSuffix
	}
	return chatSystemPreamble + fmt.Sprintf(chatGroundedTemplate, systemContext)
}
