package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"portfolio-ai/internal/usecase"
)

// startCmd loads the chatbot configuration in the background.
func startCmd(ctx context.Context, ctrl *usecase.Controller) tea.Cmd {
	return func() tea.Msg {
		return startedMsg{Err: ctrl.Start(ctx)}
	}
}

// submitCmd hands the key to the controller off the update loop. The send
// blocks until the reply is appended, so the returned message doubles as the
// done signal.
func submitCmd(ctx context.Context, ctrl *usecase.Controller, ev usecase.KeyEvent) tea.Cmd {
	return func() tea.Msg {
		ctrl.HandleSubmitKey(ctx, ev)
		return sendDoneMsg{}
	}
}
