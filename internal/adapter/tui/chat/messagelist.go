package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"portfolio-ai/internal/adapter/tui/theme"
	"portfolio-ai/internal/domain"
)

type renderedMessage struct {
	role    string
	content string
	out     string
}

// messageList renders the conversation. Assistant replies go through
// glamour; user messages are wrapped as plain text. Renders are cached per
// position and dropped when the width or the message at that position changes.
type messageList struct {
	width      int
	botName    string
	cache      []renderedMessage
	mdRenderer *glamour.TermRenderer
}

func newMessageList() *messageList {
	return &messageList{}
}

// SetWidth updates the rendering width and clears cached renders.
func (l *messageList) SetWidth(w int) {
	if w == l.width {
		return
	}
	l.width = w
	l.mdRenderer = nil
	l.cache = nil
}

// SetBotName sets the label used for assistant messages.
func (l *messageList) SetBotName(name string) {
	if name == l.botName {
		return
	}
	l.botName = name
	l.cache = nil
}

// View renders msgs as a single string.
func (l *messageList) View(msgs []domain.Message) string {
	if len(msgs) == 0 {
		return theme.TextMuted.Render("  No messages yet. Say hello!")
	}

	width := theme.Clamp(l.width-4, 20, theme.MaxContentWidth)
	if len(l.cache) > len(msgs) {
		l.cache = l.cache[:len(msgs)]
	}

	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		if i < len(l.cache) && l.cache[i].role == msg.Role && l.cache[i].content == msg.Content {
			sb.WriteString(l.cache[i].out)
			continue
		}
		out := l.renderMessage(msg, width)
		entry := renderedMessage{role: msg.Role, content: msg.Content, out: out}
		if i < len(l.cache) {
			l.cache[i] = entry
		} else {
			l.cache = append(l.cache, entry)
		}
		sb.WriteString(out)
	}
	return sb.String()
}

func (l *messageList) renderMessage(msg domain.Message, width int) string {
	if msg.Role == domain.RoleAssistant {
		name := l.botName
		if name == "" {
			name = "Assistant"
		}
		body := strings.TrimSpace(l.renderMarkdown(msg.Content, width))
		return theme.BotLabel.Render(name) + "\n" + body
	}
	body := lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(msg.Content)
	return theme.UserLabel.Render(theme.SymbolUser) + "\n" + body
}

func (l *messageList) renderMarkdown(content string, width int) string {
	if l.mdRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "  " + content
		}
		l.mdRenderer = r
	}
	rendered, err := l.mdRenderer.Render(content)
	if err != nil {
		return "  " + content
	}
	return rendered
}
