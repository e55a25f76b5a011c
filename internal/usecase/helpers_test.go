package usecase

import (
	"context"
	"log/slog"
	"sync"

	"portfolio-ai/internal/domain"
)

// stubProvider is a domain.LLMProvider whose behaviour is set per test.
type stubProvider struct {
	name     string
	chatFunc func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)

	mu       sync.Mutex
	requests []domain.ChatRequest
}

func (p *stubProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.chatFunc(ctx, req)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) calls() []domain.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ChatRequest(nil), p.requests...)
}

func replyingProvider(text string) *stubProvider {
	return &stubProvider{
		name: "stub",
		chatFunc: func(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
			return &domain.ChatResponse{
				Model:        req.Model,
				Message:      domain.Message{Role: domain.RoleAssistant, Content: text},
				FinishReason: "stop",
				Usage:        domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
