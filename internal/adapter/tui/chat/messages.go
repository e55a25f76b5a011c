// Package chat implements the terminal chat widget. The widget is a thin
// Bubble Tea view over usecase.Controller: every state change goes through
// the controller and the model re-reads a Snapshot afterwards.
package chat

// ChangedMsg signals that the controller state changed outside Update.
// It carries no payload; the model reads a fresh Snapshot on receipt so
// out-of-order deliveries are harmless.
type ChangedMsg struct{}

// startedMsg reports the result of loading the chatbot configuration.
type startedMsg struct {
	Err error
}

// sendDoneMsg signals that a submitted send finished, or was skipped.
type sendDoneMsg struct{}

// QuitMsg signals the program to exit.
type QuitMsg struct{}
