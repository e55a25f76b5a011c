package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
	"portfolio-ai/internal/infra/middleware"
)

const maxResponseBody = 1 << 20

// Client talks to the portfolio HTTP API. It implements the controller's
// ChatbotSource and ChatSender ports.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the API rooted at cfg.APIURL.
func New(cfg config.ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chatbotResponse struct {
	Active           bool   `json:"active"`
	Bio              string `json:"bio"`
	Prompt           string `json:"prompt"`
	Model            string `json:"model"`
	MaxTurns         int    `json:"max_turns"`
	MaxMessageLength int    `json:"max_message_length"`
}

// ChatbotInfo is the server's view of the chatbot: configuration plus limits.
type ChatbotInfo struct {
	Config           *domain.ChatbotConfig
	Model            string
	MaxTurns         int
	MaxMessageLength int
}

// Info fetches the chatbot configuration and limits. An inactive chatbot
// yields an error wrapping domain.ErrChatbotUnusable.
func (c *Client) Info(ctx context.Context) (*ChatbotInfo, error) {
	var resp chatbotResponse
	if err := c.getJSON(ctx, "/api/v1/chatbot", &resp); err != nil {
		return nil, err
	}
	if !resp.Active {
		return nil, domain.NewDomainError("Client.Info", domain.ErrChatbotUnusable, "chatbot is inactive")
	}
	return &ChatbotInfo{
		Config:           &domain.ChatbotConfig{Bio: resp.Bio, Prompt: resp.Prompt},
		Model:            resp.Model,
		MaxTurns:         resp.MaxTurns,
		MaxMessageLength: resp.MaxMessageLength,
	}, nil
}

// Chatbot implements usecase.ChatbotSource.
func (c *Client) Chatbot(ctx context.Context) (*domain.ChatbotConfig, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	return info.Config, nil
}

// Resume fetches the resume by slug, or the default resume when slug is empty.
func (c *Client) Resume(ctx context.Context, slug string) (*domain.Resume, error) {
	path := "/api/v1/resume"
	if slug != "" {
		path += "/" + url.PathEscape(slug)
	}
	var r domain.Resume
	if err := c.getJSON(ctx, path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type chatResponse struct {
	Reply *string          `json:"reply"`
	Kind  domain.ReplyKind `json:"kind"`
}

// SendChat implements usecase.ChatSender.
func (c *Client) SendChat(ctx context.Context, req domain.ConversationRequest) (domain.Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat", bytes.NewReader(body))
	if err != nil {
		return domain.Reply{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if err := c.do(httpReq, &resp); err != nil {
		return domain.Reply{}, err
	}
	return domain.ReplyFromContent(resp.Kind, resp.Reply), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, middleware.NewRequestID())

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s: %v", domain.ErrTimeout, req.Method, req.URL.Path, err)
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("api request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"request_id", resp.Header.Get(middleware.RequestIDHeader),
		)
		return statusError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, msg)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, status, msg)
	}
}
