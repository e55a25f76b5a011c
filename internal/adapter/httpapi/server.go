package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"portfolio-ai/internal/domain"
	"portfolio-ai/internal/infra/config"
	"portfolio-ai/internal/infra/middleware"
)

// ChatService is the message gateway as seen by the HTTP layer.
type ChatService interface {
	Send(ctx context.Context, req domain.ConversationRequest) domain.Reply
	Available() bool
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Chat    ChatService
	Chatbot domain.ChatbotStore
	Resumes domain.ResumeStore
	Health  Pinger
}

// Server serves the JSON API.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	logger  *slog.Logger
}

// NewServer builds the route table and middleware chain. ctx bounds the
// lifetime of background helpers such as the rate limiter's cleanup loop.
func NewServer(ctx context.Context, cfg config.ServerConfig, chat config.ChatConfig, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Chat == nil || deps.Chatbot == nil || deps.Resumes == nil || deps.Health == nil {
		return nil, fmt.Errorf("httpapi: incomplete dependencies")
	}
	schema, err := compileChatSchema()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		deps:   deps,
		chat:   chat,
		schema: schema,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", h.health)
	mux.HandleFunc("GET /api/v1/chatbot", h.chatbot)
	mux.HandleFunc("GET /api/v1/resume", h.defaultResume)
	mux.HandleFunc("GET /api/v1/resume/{slug}", h.resumeBySlug)
	mux.HandleFunc("POST /api/v1/chat", h.sendChat)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.SecurityHeaders,
		middleware.RateLimit(ctx, cfg.RateLimit),
		middleware.MaxBody(max(cfg.MaxBodyBytes, chatBodyLimit(chat))),
		accessLog(logger),
	)

	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
	}, nil
}

// chatBodyLimit is the largest body a conversation within the chat limits
// produces: the system prompt plus a user and an assistant message per turn,
// every rune escaped to six bytes. Oversized histories must reach the
// gateway, which truncates them.
func chatBodyLimit(chat config.ChatConfig) int64 {
	runes := chat.MaxSystemLength + (2*chat.MaxTurns+1)*chat.MaxMessageLength
	return int64(runes)*6 + 16<<10
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("http api stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// accessLog logs one line per request at debug level.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", domain.RequestIDFromContext(r.Context()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
