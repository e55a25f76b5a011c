package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"portfolio-ai/internal/adapter/tui/theme"
	"portfolio-ai/internal/usecase"
)

// ModelDeps holds the dependencies for the chat model.
type ModelDeps struct {
	Controller       *usecase.Controller
	Logger           *slog.Logger
	MaxMessageLength int
}

// Model is the Bubble Tea model of the chat widget.
type Model struct {
	ctx    context.Context
	ctrl   *usecase.Controller
	logger *slog.Logger

	snap      usecase.Snapshot
	list      *messageList
	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	lastCount int
	ready     bool
	started   bool
	quitting  bool

	width  int
	height int
}

// NewModel creates the chat model. ctx bounds every controller call the
// model makes.
func NewModel(ctx context.Context, deps ModelDeps) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask me about my experience..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = deps.MaxMessageLength
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = theme.InputPrompt
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	return Model{
		ctx:     ctx,
		ctrl:    deps.Controller,
		logger:  deps.Logger,
		snap:    deps.Controller.Snapshot(),
		list:    newMessageList(),
		input:   ta,
		spinner: s,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		startCmd(m.ctx, m.ctrl),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startedMsg:
		m.started = true
		if msg.Err != nil {
			m.logger.Warn("chat widget disabled", "error", msg.Err)
		}
		m.sync()
		return m, nil

	case sendDoneMsg:
		m.sync()
		// The controller keeps the input when the turn cap ends the chat.
		if m.input.Value() != m.snap.Input {
			m.input.SetValue(m.snap.Input)
		}
		cmd := m.input.Focus()
		return m, cmd

	case ChangedMsg:
		m.sync()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.snap.Open && m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyCtrlO:
		if !m.snap.Active {
			return m, nil
		}
		m.ctrl.Toggle()
		m.sync()
		return m, nil
	}

	if !m.snap.Open || !m.snap.Active {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlR:
		m.ctrl.ResetConversation()
		m.sync()
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyEnter:
		// Terminals do not report Shift+Enter; Alt+Enter stands in for it.
		ev := usecase.KeyEvent{Key: "enter", Shift: msg.Alt}
		if !usecase.IsSubmitKey(ev) {
			m.input.InsertString("\n")
			m.ctrl.SetInput(m.input.Value())
			return m, nil
		}
		return m.submit(ev)
	}

	if !m.input.Focused() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	m.sync()
	return m, cmd
}

// submit hands the input to the controller and blurs the textarea until the
// reply arrives. The textarea is reconciled with the controller's input once
// the send is done.
func (m Model) submit(ev usecase.KeyEvent) (tea.Model, tea.Cmd) {
	m.ctrl.SetInput(m.input.Value())
	m.sync()
	if !m.snap.CanSend {
		return m, nil
	}
	m.input.Blur()
	return m, submitCmd(m.ctx, m.ctrl, ev)
}

// sync re-reads the controller state and refreshes the viewport. The view
// scrolls to the bottom whenever the message count changes.
func (m *Model) sync() {
	m.snap = m.ctrl.Snapshot()
	m.list.SetBotName(m.snap.FirstName)
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.list.View(m.snap.Messages))
	if n := len(m.snap.Messages); n != m.lastCount {
		m.lastCount = n
		m.viewport.GotoBottom()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "  Initializing..."
	}
	if !m.snap.Active {
		return theme.Notice.Render(theme.SymbolInfo + " AI chat is unavailable right now.")
	}
	if !m.started {
		return "  " + m.spinner.View() + " Loading chat..."
	}
	if !m.snap.Open {
		return m.toggleView()
	}

	header := theme.Header.Render("AI " + m.snap.FirstName)

	inputView := m.input.View()
	if m.snap.Loading {
		inputView = theme.Dim.Render("> waiting for a reply...") + "\n" + m.spinner.View()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		inputView,
		m.statusView(),
	)
	return theme.Panel.Render(body)
}

func (m Model) toggleView() string {
	label := theme.SymbolChat + " Chat with AI " + m.snap.FirstName
	style := theme.ToggleButton
	if m.snap.Highlighted {
		style = theme.ToggleHighlight
	}
	return style.Render(label) + "\n" + theme.TextMuted.Render("  ctrl+o to open")
}

func (m Model) statusView() string {
	hints := []string{
		theme.StatusKey.Render("enter") + " send",
		theme.StatusKey.Render("alt+enter") + " newline",
		theme.StatusKey.Render("ctrl+r") + " reset",
		theme.StatusKey.Render("ctrl+o") + " close",
	}
	line := strings.Join(hints, "  ")
	if m.snap.Ended {
		line = theme.TextWarning.Render("Conversation ended") + "  " + line
	}
	return theme.StatusBar.Width(m.innerWidth()).Render(line)
}

func (m Model) innerWidth() int {
	// Panel border takes one column on each side.
	return theme.Clamp(m.width-2, 20, theme.MaxContentWidth+4)
}

func (m *Model) layout() {
	const (
		headerH = 1
		inputH  = 3
		statusH = 1
		borderH = 2
	)
	contentH := m.height - headerH - inputH - statusH - borderH
	if contentH < 3 {
		contentH = 3
	}

	w := m.innerWidth()
	m.list.SetWidth(w)
	m.input.SetWidth(w - 2)
	if !m.ready {
		m.viewport = viewport.New(w, contentH)
		m.viewport.MouseWheelEnabled = true
		m.viewport.MouseWheelDelta = 3
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = contentH
	}
	m.lastCount = -1
	m.sync()
}
