package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"portfolio-ai/internal/domain"
)

// ClosingMessage is appended when a conversation reaches its turn budget.
const ClosingMessage = "It was nice chatting with you, I have to go now. Talk to you soon!"

// ErrSendSkipped is returned by SendMessage when the send was a no-op.
var ErrSendSkipped = errors.New("send skipped")

// ChatbotSource loads the chatbot configuration.
type ChatbotSource interface {
	Chatbot(ctx context.Context) (*domain.ChatbotConfig, error)
}

// ChatSender delivers one conversation to the message gateway.
type ChatSender interface {
	SendChat(ctx context.Context, req domain.ConversationRequest) (domain.Reply, error)
}

// ControllerConfig holds the conversation limits and timers.
type ControllerConfig struct {
	Model             string
	MaxTurns          int
	MaxMessageLength  int
	ResetDelay        time.Duration
	HighlightInterval time.Duration
	HighlightDuration time.Duration
}

// KeyEvent is a key press in the message input.
type KeyEvent struct {
	Key   string
	Shift bool
}

// Snapshot is an immutable copy of the controller state handed to views.
type Snapshot struct {
	Open         bool
	Messages     []domain.Message
	Input        string
	Loading      bool
	ConfigLoaded bool
	Active       bool
	Ended        bool
	SessionID    string // empty when no conversation is in progress
	Highlighted  bool
	FirstName    string
	CanSend      bool
	Resume       *domain.Resume
}

// Controller owns the chat widget state: open flag, history, input buffer,
// turn counting, the session token and the idle highlight. Views never touch
// the state directly; they read Snapshots and call the methods below.
type Controller struct {
	cfg    ControllerConfig
	source ChatbotSource
	sender ChatSender
	logger *slog.Logger

	newSessionID func() string

	mu            sync.Mutex
	open          bool
	messages      []domain.Message
	input         string
	loading       bool
	config        *domain.ChatbotConfig
	loadAttempted bool
	active        bool
	ended         bool
	sessionID     *string
	highlighted   bool
	resume        *domain.Resume
	closed        bool
	generation    uint64 // bumped on every reset

	resetTimer      *time.Timer
	highlightCancel context.CancelFunc
	listeners       []func(Snapshot)
}

// NewController creates a controller. Call Start to load the configuration
// and Close to stop its timers.
func NewController(cfg ControllerConfig, source ChatbotSource, sender ChatSender, logger *slog.Logger) *Controller {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 20
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 1000
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = 5 * time.Second
	}
	if cfg.HighlightInterval <= 0 {
		cfg.HighlightInterval = 15 * time.Second
	}
	if cfg.HighlightDuration <= 0 {
		cfg.HighlightDuration = time.Second
	}
	return &Controller{
		cfg:          cfg,
		source:       source,
		sender:       sender,
		logger:       logger,
		newSessionID: func() string { return uuid.NewString() },
		active:       true,
	}
}

// OnChange registers a callback invoked with a fresh Snapshot after every
// state change. Callbacks run outside the controller lock.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Start loads the configuration and, when the widget is active, starts the
// idle highlight timer.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.LoadConfiguration(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	if !c.open {
		c.startHighlightLocked()
	}
	c.mu.Unlock()
	return nil
}

// LoadConfiguration fetches the chatbot configuration. Only the first call
// does anything. Any failure leaves the widget inactive for the controller's
// lifetime; there is no retry.
func (c *Controller) LoadConfiguration(ctx context.Context) error {
	c.mu.Lock()
	if c.loadAttempted || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.loadAttempted = true
	c.mu.Unlock()

	cfg, err := c.source.Chatbot(ctx)
	if err == nil && cfg == nil {
		err = domain.NewDomainError("Controller.LoadConfiguration", domain.ErrChatbotUnusable, "no configuration returned")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.active = false
		c.mu.Unlock()
		c.logger.Error("chatbot configuration unavailable, widget disabled", "error", err)
		c.notify()
		return fmt.Errorf("load chatbot configuration: %w", err)
	}
	copied := *cfg
	c.config = &copied
	c.mu.Unlock()

	c.logger.Debug("chatbot configuration loaded")
	c.notify()
	return nil
}

// SetResume replaces the resume snapshot used for the next system prompt.
func (c *Controller) SetResume(r *domain.Resume) {
	c.mu.Lock()
	c.resume = r
	c.mu.Unlock()
	c.notify()
}

// SetOpen opens or closes the widget. Opening clears the highlight and
// suspends the highlight timer until the widget is closed again.
func (c *Controller) SetOpen(open bool) {
	c.mu.Lock()
	if c.closed || c.open == open {
		c.mu.Unlock()
		return
	}
	c.open = open
	if open {
		c.stopHighlightLocked()
		c.highlighted = false
	} else if c.config != nil {
		c.startHighlightLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// Toggle flips the open flag.
func (c *Controller) Toggle() {
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()
	c.SetOpen(!open)
}

// SetInput replaces the input buffer. Values longer than the per-message
// limit are ignored, matching an input field with a max length.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	if utf8.RuneCountInString(s) > c.cfg.MaxMessageLength {
		c.mu.Unlock()
		return
	}
	c.input = s
	c.mu.Unlock()
	c.notify()
}

// HandleSubmitKey sends the input on Enter without Shift. It reports whether
// the key was consumed, in which case the caller must not insert a newline.
func (c *Controller) HandleSubmitKey(ctx context.Context, ev KeyEvent) bool {
	if !IsSubmitKey(ev) {
		return false
	}
	_ = c.SendMessage(ctx)
	return true
}

// IsSubmitKey reports whether ev is Enter without Shift.
func IsSubmitKey(ev KeyEvent) bool {
	return strings.EqualFold(ev.Key, "enter") && !ev.Shift
}

// SendMessage sends the input buffer as the next user message and blocks
// until the reply has been appended. It returns ErrSendSkipped when there is
// nothing to do.
func (c *Controller) SendMessage(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return fmt.Errorf("%w: controller closed", ErrSendSkipped)
	case c.loading:
		c.mu.Unlock()
		c.logger.Warn("cannot send message: a reply is pending")
		return fmt.Errorf("%w: send in flight", ErrSendSkipped)
	case strings.TrimSpace(c.input) == "" || c.config == nil || c.ended:
		c.mu.Unlock()
		c.logger.Warn("cannot send message: missing input, chatbot configuration, or conversation ended")
		return fmt.Errorf("%w: not ready", ErrSendSkipped)
	}

	if c.sessionID == nil {
		id := c.newSessionID()
		c.sessionID = &id
		c.logger.Info("new chat started", "session_id", id)
	}
	sessionID := *c.sessionID

	if c.assistantTurnsLocked() >= c.cfg.MaxTurns {
		c.messages = append(c.messages, domain.Message{Role: domain.RoleAssistant, Content: ClosingMessage})
		c.ended = true
		c.scheduleResetLocked()
		c.mu.Unlock()
		c.logger.Info("chat turn limit reached", "session_id", sessionID, "max_turns", c.cfg.MaxTurns)
		c.notify()
		return nil
	}

	c.messages = append(c.messages, domain.Message{Role: domain.RoleUser, Content: c.input})
	history := append([]domain.Message(nil), c.messages...)
	c.input = ""
	c.loading = true
	gen := c.generation
	req := domain.ConversationRequest{
		System:    BuildSystemPrompt(*c.config, c.resume),
		Messages:  domain.RawMessages(history),
		Model:     c.cfg.Model,
		SessionID: sessionID,
	}
	c.mu.Unlock()
	c.notify()

	c.logger.Debug("sending chat message",
		"session_id", sessionID,
		"message_length", utf8.RuneCountInString(history[len(history)-1].Content),
		"conversation_length", len(history),
	)

	reply, err := c.sender.SendChat(ctx, req)
	text := replyText(reply, err)
	if err != nil {
		c.logger.Error("chat send failed", "session_id", sessionID, "error", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.generation != gen {
		c.loading = false
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.messages = append(c.messages, domain.Message{Role: domain.RoleAssistant, Content: text})
	c.loading = false
	c.mu.Unlock()
	c.notify()
	return nil
}

// replyText maps a send outcome to the assistant message shown to the user.
func replyText(reply domain.Reply, err error) string {
	if err != nil {
		return domain.TextProcessingError
	}
	switch reply.Kind {
	case domain.ReplyOK:
		if reply.Text != "" {
			return reply.Text
		}
		return domain.TextEmptyResponse
	case domain.ReplyRejected, domain.ReplyFailed:
		return reply.Text
	default:
		return domain.TextEmptyResponse
	}
}

// ResetConversation clears history, the ended flag and the session token.
// It is ignored while a send is in flight.
func (c *Controller) ResetConversation() {
	c.mu.Lock()
	if c.closed || c.loading {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.mu.Unlock()
	c.notify()
}

// Close cancels every timer. Later results and timer fires are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopHighlightLocked()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Open:         c.open,
		Messages:     append([]domain.Message(nil), c.messages...),
		Input:        c.input,
		Loading:      c.loading,
		ConfigLoaded: c.config != nil,
		Active:       c.active,
		Ended:        c.ended,
		Highlighted:  c.highlighted,
		FirstName:    c.resume.FirstName(),
		Resume:       c.resume,
	}
	if s.FirstName == "" {
		s.FirstName = "Assistant"
	}
	if c.sessionID != nil {
		s.SessionID = *c.sessionID
	}
	n := utf8.RuneCountInString(c.input)
	s.CanSend = !c.loading && !c.ended && c.config != nil &&
		strings.TrimSpace(c.input) != "" && n <= c.cfg.MaxMessageLength
	return s
}

func (c *Controller) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot)(nil), c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (c *Controller) assistantTurnsLocked() int {
	n := 0
	for _, m := range c.messages {
		if m.Role == domain.RoleAssistant {
			n++
		}
	}
	return n
}

func (c *Controller) resetLocked() {
	c.messages = nil
	c.ended = false
	c.sessionID = nil
	c.generation++
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

func (c *Controller) scheduleResetLocked() {
	gen := c.generation
	c.resetTimer = time.AfterFunc(c.cfg.ResetDelay, func() {
		c.mu.Lock()
		if c.closed || c.generation != gen {
			c.mu.Unlock()
			return
		}
		c.resetLocked()
		c.mu.Unlock()
		c.logger.Debug("conversation reset after turn limit")
		c.notify()
	})
}

func (c *Controller) startHighlightLocked() {
	if c.closed || c.highlightCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.highlightCancel = cancel
	go c.highlightLoop(ctx)
}

func (c *Controller) stopHighlightLocked() {
	if c.highlightCancel != nil {
		c.highlightCancel()
		c.highlightCancel = nil
	}
}

// highlightLoop raises the highlight flag every interval for a short moment.
func (c *Controller) highlightLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HighlightInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !c.setHighlight(ctx, true) {
			return
		}
		select {
		case <-ctx.Done():
			c.setHighlight(context.Background(), false)
			return
		case <-time.After(c.cfg.HighlightDuration):
		}
		if !c.setHighlight(ctx, false) {
			return
		}
	}
}

// setHighlight updates the flag unless the loop was cancelled in between.
func (c *Controller) setHighlight(ctx context.Context, on bool) bool {
	c.mu.Lock()
	if c.closed || (on && ctx.Err() != nil) {
		c.mu.Unlock()
		return false
	}
	if c.open && on {
		c.mu.Unlock()
		return ctx.Err() == nil
	}
	changed := c.highlighted != on
	c.highlighted = on
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return true
}
