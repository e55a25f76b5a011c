package domain

import (
	"context"
	"strings"
)

// ChatbotConfig is the single chatbot configuration record.
type ChatbotConfig struct {
	Bio    string `json:"bio" yaml:"bio"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Validate reports ErrChatbotUnusable when either field is blank.
func (c *ChatbotConfig) Validate() error {
	if c == nil {
		return NewDomainError("ChatbotConfig.Validate", ErrChatbotUnusable, "missing record")
	}
	if strings.TrimSpace(c.Bio) == "" {
		return NewDomainError("ChatbotConfig.Validate", ErrChatbotUnusable, "bio is blank")
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return NewDomainError("ChatbotConfig.Validate", ErrChatbotUnusable, "prompt is blank")
	}
	return nil
}

// ChatbotStore reads the chatbot configuration record.
type ChatbotStore interface {
	Chatbot(ctx context.Context) (*ChatbotConfig, error)
}
