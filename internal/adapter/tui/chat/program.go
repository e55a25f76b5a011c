package chat

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"portfolio-ai/internal/usecase"
)

// Run starts the chat widget and blocks until the user quits or ctx is
// cancelled. The controller is closed on return.
func Run(ctx context.Context, deps ModelDeps, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer deps.Controller.Close()

	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
	}
	program := tea.NewProgram(NewModel(ctx, deps), opts...)

	// Controller callbacks can fire from inside Update, where a blocking
	// program.Send would deadlock. Coalesce them into a pump goroutine.
	changed := make(chan struct{}, 1)
	deps.Controller.OnChange(func(usecase.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				program.Send(QuitMsg{})
				return
			case <-changed:
				program.Send(ChangedMsg{})
			}
		}
	}()

	_, err := program.Run()
	return err
}
