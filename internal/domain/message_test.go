package domain

import (
	"encoding/json"
	"testing"
)

func TestRawMessageKeepsNonStringContent(t *testing.T) {
	var req ConversationRequest
	body := `{"system":"s","messages":[{"role":"user","content":123},{"role":"user","content":null},{"role":"user","content":"hi"}]}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(req.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(req.Messages))
	}
	if _, ok := req.Messages[0].Content.(float64); !ok {
		t.Errorf("content[0] = %T, want float64", req.Messages[0].Content)
	}
	if req.Messages[1].Content != nil {
		t.Errorf("content[1] = %v, want nil", req.Messages[1].Content)
	}
	if s, ok := req.Messages[2].Content.(string); !ok || s != "hi" {
		t.Errorf("content[2] = %v, want \"hi\"", req.Messages[2].Content)
	}
}

func TestRawMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	}
	raw := RawMessages(msgs)
	if len(raw) != 2 {
		t.Fatalf("got %d, want 2", len(raw))
	}
	if raw[1].Role != RoleAssistant || raw[1].Content != "a" {
		t.Errorf("got %+v", raw[1])
	}
}
