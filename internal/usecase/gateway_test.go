package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-ai/internal/domain"
)

func newTestGateway(p domain.LLMProvider) *Gateway {
	return NewGateway(p, GatewayConfig{
		DefaultModel:          "llama-3.3-70b-versatile",
		MaxMessageLength:      1000,
		MaxConversationLength: 10000,
		MaxSystemLength:       50000,
		RequestTimeout:        time.Second,
	}, discardLogger())
}

func userReq(contents ...any) domain.ConversationRequest {
	msgs := make([]domain.RawMessage, len(contents))
	for i, c := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		msgs[i] = domain.RawMessage{Role: role, Content: c}
	}
	return domain.ConversationRequest{System: "You are helpful.", Messages: msgs, Model: "m", SessionID: "sess-1"}
}

func TestGateway_Success(t *testing.T) {
	p := replyingProvider("I know Go and SQL.")
	g := newTestGateway(p)

	reply := g.Send(context.Background(), userReq("What languages do you know?"))

	assert.Equal(t, domain.Reply{Kind: domain.ReplyOK, Text: "I know Go and SQL."}, reply)
	calls := p.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "m", calls[0].Model)
	assert.Equal(t, []domain.Message{
		{Role: domain.RoleSystem, Content: "You are helpful."},
		{Role: domain.RoleUser, Content: "What languages do you know?"},
	}, calls[0].Messages)
}

func TestGateway_DefaultModel(t *testing.T) {
	p := replyingProvider("ok")
	req := userReq("hi")
	req.Model = ""

	newTestGateway(p).Send(context.Background(), req)

	assert.Equal(t, "llama-3.3-70b-versatile", p.calls()[0].Model)
}

func TestGateway_SanitizesBeforeSending(t *testing.T) {
	p := replyingProvider("ok")

	reply := newTestGateway(p).Send(context.Background(), userReq("<b>Hello</b> there"))

	assert.Equal(t, domain.ReplyOK, reply.Kind)
	assert.Equal(t, "Hello there", p.calls()[0].Messages[1].Content)
}

func TestGateway_Unavailable(t *testing.T) {
	g := newTestGateway(nil)

	reply := g.Send(context.Background(), userReq("hi"))

	assert.False(t, g.Available())
	assert.Equal(t, domain.ReplyUnavailable, reply.Kind)
	assert.Nil(t, reply.Content())
}

func TestGateway_EmptyMessages(t *testing.T) {
	p := replyingProvider("x")
	req := userReq()

	reply := newTestGateway(p).Send(context.Background(), req)

	assert.Equal(t, domain.Reply{Kind: domain.ReplyRejected, Text: domain.TextNoMessage}, reply)
	assert.Empty(t, p.calls())
}

func TestGateway_RejectsWholeBatchOnAnyInvalidMessage(t *testing.T) {
	tests := []struct {
		name string
		req  domain.ConversationRequest
	}{
		{"non-string content", userReq("hello", "fine", 123)},
		{"nil content", userReq("hello", nil, "again")},
		{"empty content", userReq("hello", "fine", "")},
		{"whitespace only", userReq("   ")},
		{"too long", userReq("ok", strings.Repeat("a", 1001), "ok")},
		{"fully malicious", userReq("good question", "fine", "<script>alert(1)</script>")},
		{"only markup", userReq("<img src=x onerror=alert(1)>")},
		{"unknown role", domain.ConversationRequest{System: "s", Messages: []domain.RawMessage{{Role: "tool", Content: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := replyingProvider("should not be called")

			reply := newTestGateway(p).Send(context.Background(), tt.req)

			assert.Equal(t, domain.Reply{Kind: domain.ReplyRejected, Text: domain.TextInvalidMessage}, reply)
			assert.Empty(t, p.calls(), "no upstream call on validation failure")
		})
	}
}

func TestGateway_MessageAtLimitPasses(t *testing.T) {
	p := replyingProvider("ok")
	reply := newTestGateway(p).Send(context.Background(), userReq(strings.Repeat("é", 1000)))
	assert.Equal(t, domain.ReplyOK, reply.Kind)
}

func TestGateway_SystemPromptValidation(t *testing.T) {
	for name, system := range map[string]string{
		"empty":     "",
		"too large": strings.Repeat("s", 50001),
	} {
		t.Run(name, func(t *testing.T) {
			p := replyingProvider("x")
			req := userReq("hi")
			req.System = system
			// Keep the conversation budget out of the way.
			g := NewGateway(p, GatewayConfig{MaxConversationLength: 100000}, discardLogger())

			reply := g.Send(context.Background(), req)

			assert.Equal(t, domain.Reply{Kind: domain.ReplyRejected, Text: domain.TextConfigError}, reply)
			assert.Empty(t, p.calls())
		})
	}
}

func TestGateway_TruncatesLongConversation(t *testing.T) {
	p := replyingProvider("ok")
	g := NewGateway(p, GatewayConfig{MaxMessageLength: 1000, MaxConversationLength: 1200}, discardLogger())

	req := userReq(strings.Repeat("a", 900), strings.Repeat("b", 900), "latest question")

	reply := g.Send(context.Background(), req)

	require.Equal(t, domain.ReplyOK, reply.Kind)
	sent := p.calls()[0].Messages
	require.Len(t, sent, 3)
	assert.Equal(t, domain.RoleSystem, sent[0].Role)
	assert.Equal(t, strings.Repeat("b", 900), sent[1].Content)
	assert.Equal(t, "latest question", sent[2].Content)
}

func TestGateway_TruncationThenValidationFailure(t *testing.T) {
	// The invalid message is dropped by truncation, so the request succeeds.
	p := replyingProvider("ok")
	g := NewGateway(p, GatewayConfig{MaxMessageLength: 1000, MaxConversationLength: 100}, discardLogger())

	req := userReq("<script>x</script>", strings.Repeat("b", 90), "question")

	reply := g.Send(context.Background(), req)
	assert.Equal(t, domain.ReplyOK, reply.Kind)
}

func TestGateway_EmptyProviderText(t *testing.T) {
	p := replyingProvider("")

	reply := newTestGateway(p).Send(context.Background(), userReq("hi"))

	assert.Equal(t, domain.Reply{Kind: domain.ReplyEmpty, Text: domain.TextEmptyResponse}, reply)
}

func TestGateway_ProviderErrorsCollapse(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: 429", domain.ErrRateLimit),
		fmt.Errorf("%w: 401", domain.ErrAuthInvalid),
		fmt.Errorf("%w: 503", domain.ErrUpstream),
		errors.New("connection refused"),
	} {
		t.Run(err.Error(), func(t *testing.T) {
			p := &stubProvider{name: "stub", chatFunc: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
				return nil, err
			}}

			reply := newTestGateway(p).Send(context.Background(), userReq("hi"))

			assert.Equal(t, domain.Reply{Kind: domain.ReplyFailed, Text: domain.TextProcessingError}, reply)
		})
	}
}

func TestGateway_TimeoutMapsToFailed(t *testing.T) {
	p := &stubProvider{name: "slow", chatFunc: func(ctx context.Context, _ domain.ChatRequest) (*domain.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g := NewGateway(p, GatewayConfig{RequestTimeout: 20 * time.Millisecond}, discardLogger())

	start := time.Now()
	reply := g.Send(context.Background(), userReq("hi"))

	assert.Equal(t, domain.ReplyFailed, reply.Kind)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGateway_SendChatNeverErrors(t *testing.T) {
	g := newTestGateway(nil)
	reply, err := g.SendChat(context.Background(), userReq("hi"))
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyUnavailable, reply.Kind)
}

func TestGateway_ConcurrentSends(t *testing.T) {
	p := &stubProvider{name: "echo", chatFunc: func(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
		last := req.Messages[len(req.Messages)-1].Content
		return &domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: "echo " + last}}, nil
	}}
	g := newTestGateway(p)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := fmt.Sprintf("question %d", i)
			reply := g.Send(context.Background(), userReq(q))
			assert.Equal(t, "echo "+q, reply.Text)
		}(i)
	}
	wg.Wait()
	assert.Len(t, p.calls(), 20)
}
