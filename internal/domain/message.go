package domain

import "time"

// Role constants for message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is sent to an LLM provider.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse is returned from an LLM provider.
type ChatResponse struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Message      Message   `json:"message"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        Usage     `json:"usage"`
	CreatedAt    time.Time `json:"created_at"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RawMessage is an inbound conversation message whose content has not been
// validated yet. Content is whatever the client sent: usually a string, but
// numbers, objects and nulls reach the gateway too and must be rejected there.
type RawMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ConversationRequest is what a chat client submits for one send: the system
// prompt, the history without the system message, the model and an optional
// session token used only to correlate diagnostics.
type ConversationRequest struct {
	System    string       `json:"system"`
	Messages  []RawMessage `json:"messages"`
	Model     string       `json:"model,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
}

// RawMessages converts typed messages to their inbound form.
func RawMessages(msgs []Message) []RawMessage {
	out := make([]RawMessage, len(msgs))
	for i, m := range msgs {
		out[i] = RawMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
