package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

// roundTripFunc is a function type that implements http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func strPtr(s string) *string { return &s }

func TestOpenAIProviderChat(t *testing.T) {
	var got openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := openaiResponse{
			ID:    "chatcmpl-123",
			Model: "llama-3.3-70b-versatile",
			Choices: []openaiChoice{{
				Message:      openaiMessage{Role: "assistant", Content: strPtr("I mostly write Go.")},
				FinishReason: "stop",
			}},
			Usage:   openaiUsage{PromptTokens: 10, CompletionTokens: 8, TotalTokens: 18},
			Created: 1700000000,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(config.ProviderConfig{
		Name:    "groq",
		BaseURL: server.URL + "/",
		APIKey:  "test-key",
		Model:   "llama-3.3-70b-versatile",
	}, newTestLogger())

	resp, err := provider.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "You are helpful."},
			{Role: domain.RoleUser, Content: "Which languages?"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if got.Model != "llama-3.3-70b-versatile" {
		t.Errorf("request model = %q, want provider default", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || *got.Messages[1].Content != "Which languages?" {
		t.Errorf("unexpected request messages: %+v", got.Messages)
	}
	if got.Temperature != nil || got.MaxTokens != 0 {
		t.Errorf("unset sampling params must be omitted: %+v", got)
	}
	if resp.Message.Content != "I mostly write Go." {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if resp.Message.Role != domain.RoleAssistant {
		t.Errorf("Role = %q", resp.Message.Role)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 18 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
	if !resp.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("CreatedAt = %v", resp.CreatedAt)
	}
	if provider.Name() != "groq" {
		t.Errorf("Name = %q", provider.Name())
	}
}

func TestOpenAIProviderDefaultBaseURL(t *testing.T) {
	p := NewOpenAIProvider(config.ProviderConfig{Name: "groq"}, newTestLogger())
	if p.baseURL != config.DefaultGroqBaseURL {
		t.Errorf("baseURL = %q, want %q", p.baseURL, config.DefaultGroqBaseURL)
	}
}

func TestOpenAIProviderNoAPIKeyOmitsAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{Name: "local", BaseURL: server.URL}, newTestLogger())
	if _, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
}

func TestOpenAIProviderEmptyResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id":"x","choices":[]}`},
		{"null content", `{"choices":[{"message":{"role":"assistant","content":null}}]}`},
		{"empty content", `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			p := NewOpenAIProvider(config.ProviderConfig{Name: "groq", BaseURL: server.URL}, newTestLogger())
			resp, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
			if err != nil {
				t.Fatalf("Chat: %v", err)
			}
			if resp.Message.Content != "" {
				t.Errorf("Content = %q, want empty", resp.Message.Content)
			}
		})
	}
}

func TestOpenAIProviderHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusInternalServerError, domain.ErrUpstream},
		{http.StatusBadGateway, domain.ErrUpstream},
		{http.StatusGatewayTimeout, domain.ErrTimeout},
		{http.StatusBadRequest, domain.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":{"message":"nope"}}`)
			}))
			defer server.Close()

			p := NewOpenAIProvider(config.ProviderConfig{Name: "groq", BaseURL: server.URL}, newTestLogger())
			_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenAIProviderMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{not json`)
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{Name: "groq", BaseURL: server.URL}, newTestLogger())
	_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestOpenAIProviderTransportError(t *testing.T) {
	p := NewOpenAIProvider(config.ProviderConfig{Name: "groq", BaseURL: "http://example.invalid"}, newTestLogger())
	p.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}

	_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v, want cause in message", err)
	}
}

func TestOpenAIProviderContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{Name: "groq", BaseURL: server.URL}, newTestLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Chat(ctx, domain.ChatRequest{Model: "m"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestToOpenAIRequestSamplingParams(t *testing.T) {
	req := toOpenAIRequest(domain.ChatRequest{Model: "m", MaxTokens: 256, Temperature: 0.7})
	if req.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d", req.MaxTokens)
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Errorf("Temperature = %v", req.Temperature)
	}
}
