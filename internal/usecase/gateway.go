package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/tracer"
)

// GatewayConfig holds the budgets enforced on every send.
type GatewayConfig struct {
	DefaultModel          string
	MaxMessageLength      int
	MaxConversationLength int
	MaxSystemLength       int
	RequestTimeout        time.Duration
}

// Gateway validates an inbound conversation, calls the upstream provider and
// turns every outcome into a domain.Reply. It holds no per-request state and
// is safe for concurrent use.
type Gateway struct {
	provider domain.LLMProvider
	cfg      GatewayConfig
	logger   *slog.Logger
}

// NewGateway creates a gateway. A nil provider means no credential is
// configured and every send returns domain.ReplyUnavailable.
func NewGateway(provider domain.LLMProvider, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 1000
	}
	if cfg.MaxConversationLength <= 0 {
		cfg.MaxConversationLength = 10000
	}
	if cfg.MaxSystemLength <= 0 {
		cfg.MaxSystemLength = 50000
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Gateway{provider: provider, cfg: cfg, logger: logger}
}

// Available reports whether an upstream provider is configured.
func (g *Gateway) Available() bool { return g.provider != nil }

// SendChat implements ChatSender for in-process callers. It never returns an error.
func (g *Gateway) SendChat(ctx context.Context, req domain.ConversationRequest) (domain.Reply, error) {
	return g.Send(ctx, req), nil
}

// Send runs the pipeline: availability, non-empty batch, truncation,
// per-message validation and sanitization, system prompt check, upstream call.
func (g *Gateway) Send(ctx context.Context, req domain.ConversationRequest) domain.Reply {
	log := g.logger.With("session_id", req.SessionID)
	if rid := domain.RequestIDFromContext(ctx); rid != "" {
		log = log.With("request_id", rid)
	}

	if g.provider == nil {
		log.Error("chat provider not configured")
		return domain.Reply{Kind: domain.ReplyUnavailable}
	}

	ctx, span := tracer.StartSpan(domain.ContextWithSessionID(ctx, req.SessionID), "gateway.send",
		trace.WithAttributes(
			tracer.StringAttr("chat.session_id", req.SessionID),
			tracer.IntAttr("chat.messages", len(req.Messages)),
		),
	)
	defer span.End()

	if len(req.Messages) == 0 {
		log.Warn("chat request rejected", "reason", "no messages")
		return g.reject(span, domain.TextNoMessage, "no messages")
	}

	msgs, truncated := TruncateConversation(req.System, req.Messages, g.cfg.MaxConversationLength)
	span.SetAttributes(tracer.BoolAttr("chat.truncated", truncated))
	if truncated {
		log.Info("chat conversation truncated",
			"messages_before", len(req.Messages),
			"messages_after", len(msgs),
			"max_length", g.cfg.MaxConversationLength,
		)
	}
	if len(msgs) == 0 {
		log.Warn("chat request rejected", "reason", "no user message survived truncation")
		return g.reject(span, domain.TextNoMessage, "empty after truncation")
	}

	sanitized, failures := g.validateMessages(msgs)
	if len(failures) > 0 {
		log.Warn("chat request rejected",
			"reason", "message validation",
			"failed", len(failures),
			"total", len(msgs),
			"errors", failures,
		)
		return g.reject(span, domain.TextInvalidMessage, "message validation")
	}

	if strings.TrimSpace(req.System) == "" || utf8.RuneCountInString(req.System) > g.cfg.MaxSystemLength {
		log.Error("chat request rejected", "reason", "invalid system prompt", "system_length", utf8.RuneCountInString(req.System))
		return g.reject(span, domain.TextConfigError, "system prompt")
	}

	model := req.Model
	if model == "" {
		model = g.cfg.DefaultModel
	}

	full := make([]domain.Message, 0, len(sanitized)+1)
	full = append(full, domain.Message{Role: domain.RoleSystem, Content: req.System})
	full = append(full, sanitized...)

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Chat(callCtx, domain.ChatRequest{Model: model, Messages: full})
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		log.Error("chat provider error",
			"provider", g.provider.Name(),
			"model", model,
			"code", domain.ErrorCodeOf(err),
			"duration", elapsed,
			"error", err,
		)
		tracer.RecordError(span, err)
		return domain.Reply{Kind: domain.ReplyFailed, Text: domain.TextProcessingError}
	}

	if resp == nil || resp.Message.Content == "" {
		log.Error("chat provider returned empty response", "provider", g.provider.Name(), "model", model)
		span.SetAttributes(tracer.StringAttr("chat.result", string(domain.ReplyEmpty)))
		return domain.Reply{Kind: domain.ReplyEmpty, Text: domain.TextEmptyResponse}
	}

	log.Info("chat completed",
		"provider", g.provider.Name(),
		"model", resp.Model,
		"finish_reason", resp.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens,
		"duration", elapsed,
	)
	span.SetAttributes(tracer.StringAttr("chat.result", string(domain.ReplyOK)))
	tracer.SetOK(span)
	return domain.Reply{Kind: domain.ReplyOK, Text: resp.Message.Content}
}

func (g *Gateway) reject(span trace.Span, text, reason string) domain.Reply {
	span.SetAttributes(
		tracer.StringAttr("chat.result", string(domain.ReplyRejected)),
		tracer.StringAttr("chat.reject_reason", reason),
	)
	return domain.Reply{Kind: domain.ReplyRejected, Text: text}
}

// validateMessages checks and sanitizes every message. It returns the
// sanitized batch and one description per failed message; callers must
// discard the batch when any message failed.
func (g *Gateway) validateMessages(msgs []domain.RawMessage) ([]domain.Message, []string) {
	out := make([]domain.Message, 0, len(msgs))
	var failures []string

	for i, m := range msgs {
		switch m.Role {
		case domain.RoleUser, domain.RoleAssistant, domain.RoleSystem:
		default:
			failures = append(failures, fmt.Sprintf("message %d: invalid role %q", i, m.Role))
			continue
		}

		content, ok := m.Content.(string)
		if !ok || content == "" {
			failures = append(failures, fmt.Sprintf("message %d: missing or non-string content", i))
			continue
		}

		if n := utf8.RuneCountInString(content); n > g.cfg.MaxMessageLength {
			failures = append(failures, fmt.Sprintf("message %d: too long (%d > %d characters)", i, n, g.cfg.MaxMessageLength))
			continue
		}

		clean := Sanitize(content)
		if clean == "" {
			failures = append(failures, fmt.Sprintf("message %d: empty after sanitization", i))
			continue
		}

		out = append(out, domain.Message{Role: m.Role, Content: clean})
	}

	return out, failures
}
