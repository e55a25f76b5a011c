package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kaptinlin/jsonschema"

	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
)

// chatRequestSchema checks shape only. Content types and lengths are the
// gateway's concern so that its rejection strings stay the single source.
const chatRequestSchema = `{
  "type": "object",
  "required": ["messages"],
  "properties": {
    "system": {"type": "string"},
    "model": {"type": "string"},
    "session_id": {"type": "string"},
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role"],
        "properties": {
          "role": {"enum": ["user", "assistant", "system"]}
        }
      }
    }
  }
}`

const healthTimeout = 5 * time.Second

func compileChatSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(chatRequestSchema))
	if err != nil {
		return nil, domain.WrapOp("compile chat schema", err)
	}
	return schema, nil
}

type handlers struct {
	deps   Deps
	chat   config.ChatConfig
	schema *jsonschema.Schema
	logger *slog.Logger
}

// ChatResponse is the body of POST /api/v1/chat. Reply is null when the
// chatbot has no provider configured.
type ChatResponse struct {
	Reply *string          `json:"reply"`
	Kind  domain.ReplyKind `json:"kind"`
}

// ChatbotResponse is the body of GET /api/v1/chatbot.
type ChatbotResponse struct {
	Active           bool   `json:"active"`
	Bio              string `json:"bio,omitempty"`
	Prompt           string `json:"prompt,omitempty"`
	Model            string `json:"model"`
	MaxTurns         int    `json:"max_turns"`
	MaxMessageLength int    `json:"max_message_length"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Database     string `json:"database"`
	Error        string `json:"error,omitempty"`
	ResponseTime string `json:"response_time"`
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  domain.ErrorCode `json:"code,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	err := h.deps.Health.Ping(ctx)
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Database:  "connected",
	}
	status := http.StatusOK
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	resp.ResponseTime = time.Since(start).Round(time.Millisecond).String()
	writeJSON(w, status, resp)
}

func (h *handlers) chatbot(w http.ResponseWriter, r *http.Request) {
	resp := ChatbotResponse{
		Model:            h.chat.Model,
		MaxTurns:         h.chat.MaxTurns,
		MaxMessageLength: h.chat.MaxMessageLength,
	}
	if !h.deps.Chat.Available() {
		h.logger.Warn("chatbot inactive: no provider configured")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	cfg, err := h.deps.Chatbot.Chatbot(r.Context())
	if err != nil {
		h.logger.Error("chatbot configuration unusable", "error", err)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Active = true
	resp.Bio = cfg.Bio
	resp.Prompt = cfg.Prompt
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) defaultResume(w http.ResponseWriter, r *http.Request) {
	resume, err := h.deps.Resumes.DefaultResume(r.Context())
	h.writeResume(w, resume, err)
}

func (h *handlers) resumeBySlug(w http.ResponseWriter, r *http.Request) {
	resume, err := h.deps.Resumes.ResumeBySlug(r.Context(), r.PathValue("slug"))
	h.writeResume(w, resume, err)
}

func (h *handlers) writeResume(w http.ResponseWriter, resume *domain.Resume, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resume not found", domain.ErrorCodeOf(err))
	case err != nil:
		h.logger.Error("resume lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load resume", domain.ErrorCodeOf(err))
	default:
		writeJSON(w, http.StatusOK, resume)
	}
}

func (h *handlers) sendChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", domain.CodeInvalidInput)
			return
		}
		writeError(w, http.StatusBadRequest, "could not read request body", domain.CodeInvalidInput)
		return
	}

	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON", domain.CodeInvalidInput)
		return
	}
	if result := h.schema.Validate(generic); !result.IsValid() {
		h.logger.Warn("chat request failed schema validation",
			"error", result.Error(),
			"request_id", domain.RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusBadRequest, "invalid chat request", domain.CodeInvalidInput)
		return
	}

	var req domain.ConversationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat request", domain.CodeInvalidInput)
		return
	}

	reply := h.deps.Chat.Send(r.Context(), req)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply.Content(), Kind: reply.Kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, code domain.ErrorCode) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
