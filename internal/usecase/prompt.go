package usecase

import (
	"strings"

	"portfolio-ai/internal/domain"
)

// DefaultPreamble is used when the chatbot configuration has no custom prompt.
const DefaultPreamble = "You are a helpful AI assistant that answers questions about the user's professional background based on the following bio and resume data. Be conversational and provide specific, relevant information."

// BuildSystemPrompt joins the instructions, the bio and the resume snapshot:
//
//	<prompt or DefaultPreamble>\n\nBio: <bio>\n\nFull Resume Data:\n<json>
func BuildSystemPrompt(cfg domain.ChatbotConfig, resume *domain.Resume) string {
	instructions := cfg.Prompt
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultPreamble
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nBio: ")
	b.WriteString(cfg.Bio)
	b.WriteString(resume.PromptContext())
	return b.String()
}
