// Package bubbletea implements ui.ChatUI for interactive terminals. The
// conversation is a scrolling history rendered through glamour, above an
// input prompt and a status line.
//
// Tool calls which need approval are queued. While the prompt is empty the
// oldest one is answered with the y and n keys, and the /approve and /reject
// commands answer any of them.
package bubbletea

import (
	"context"
	"io"
	"os/user"
	"sync"

	// Packages
	tea "github.com/charmbracelet/bubbletea"
	termenv "github.com/muesli/termenv"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Terminal is a chat user interface which owns the terminal until closed.
type Terminal struct {
	program *tea.Program
	events  chan ui.Event
	done    chan struct{}

	mu  sync.Mutex
	err error
}

type termContext struct {
	program  *tea.Program
	userID   string
	userName string
}

var _ ui.ChatUI = (*Terminal)(nil)
var _ ui.Context = (*termContext)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	conversationID = "terminal"
	eventBuffer    = 8
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New starts the terminal user interface in the alternate screen.
func New() (*Terminal, error) {
	uctx := &termContext{userID: conversationID, userName: "user"}
	if u, err := user.Current(); err == nil {
		uctx.userID, uctx.userName = u.Uid, u.Username
	}

	// The background colour is queried before the program reads from the
	// terminal, or the reply ends up in the input
	style := "dark"
	if !termenv.HasDarkBackground() {
		style = "light"
	}

	t := &Terminal{
		events: make(chan ui.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	t.program = tea.NewProgram(newModel(uctx, t.events, style), tea.WithAltScreen())
	uctx.program = t.program

	go func() {
		defer close(t.done)
		defer close(t.events)
		if _, err := t.program.Run(); err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
		}
	}()

	return t, nil
}

// Close quits the program and restores the terminal.
func (t *Terminal) Close() error {
	t.program.Quit()
	<-t.done
	return t.runErr()
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Receive returns the next event. It returns io.EOF once the user has quit.
func (t *Terminal) Receive(ctx context.Context) (ui.Event, error) {
	select {
	case <-ctx.Done():
		return ui.Event{}, ctx.Err()
	case evt, ok := <-t.events:
		if ok {
			return evt, nil
		}
		if err := t.runErr(); err != nil {
			return ui.Event{}, err
		}
		return ui.Event{}, io.EOF
	}
}

// AppendHistory adds a message to the history without raising an event.
func (t *Terminal) AppendHistory(role ui.Role, text string) {
	t.program.Send(historyMsg{role: role, text: text})
}

// ClearHistory empties the history and the approval queue.
func (t *Terminal) ClearHistory() {
	t.program.Send(resetMsg{})
}

// OnReset is called when the conversation is reset.
func (t *Terminal) OnReset() {
	t.ClearHistory()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (t *Terminal) runErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

///////////////////////////////////////////////////////////////////////////////
// CONTEXT

func (c *termContext) UserID() string         { return c.userID }
func (c *termContext) UserName() string       { return c.userName }
func (c *termContext) ConversationID() string { return conversationID }

func (c *termContext) SendText(_ context.Context, text string) error {
	c.program.Send(historyMsg{role: ui.RoleSystem, text: text})
	return nil
}

func (c *termContext) SendMarkdown(_ context.Context, markdown string) error {
	c.program.Send(historyMsg{role: ui.RoleAssistant, text: markdown})
	return nil
}

func (c *termContext) RequestApproval(_ context.Context, req ui.ApprovalRequest) error {
	c.program.Send(approvalMsg{req: req})
	return nil
}

func (c *termContext) SetTyping(_ context.Context, typing bool) error {
	c.program.Send(busyMsg(typing))
	return nil
}

func (c *termContext) StreamStart(context.Context) error {
	c.program.Send(beginMsg{})
	return nil
}

func (c *termContext) StreamChunk(_ context.Context, role ui.Role, text string) error {
	c.program.Send(chunkMsg{role: role, text: text})
	return nil
}

func (c *termContext) StreamEnd(context.Context) error {
	c.program.Send(endMsg{})
	return nil
}
