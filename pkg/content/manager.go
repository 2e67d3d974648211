// Package content keeps the text and reasoning channels of a streamed turn
// mutually exclusive, emitting the start, delta and end frames for each
// block.
package content

import (
	// Packages
	uuid "github.com/google/uuid"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// State is the open channel, if any.
type State int

// Manager tracks which content channel is open. At most one of the text and
// reasoning channels is open at any time. The zero value is not usable, use
// New to create a manager.
type Manager struct {
	textID      string
	reasoningID string
	state       State
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	Idle State = iota
	TextOpen
	ReasoningOpen
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a manager with fresh channel ids. The ids are stable for the
// lifetime of the manager, so a channel which is closed and re-opened keeps
// its id.
func New() *Manager {
	return &Manager{
		textID:      uuid.NewString(),
		reasoningID: uuid.NewString(),
	}
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TextOpen:
		return "text"
	case ReasoningOpen:
		return "reasoning"
	default:
		return "unknown"
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// State returns the open channel.
func (m *Manager) State() State {
	return m.state
}

// IsOpen returns true if either channel is open.
func (m *Manager) IsOpen() bool {
	return m.state != Idle
}

// TextID returns the id used for text frames.
func (m *Manager) TextID() string {
	return m.textID
}

// ReasoningID returns the id used for reasoning frames.
func (m *Manager) ReasoningID() string {
	return m.reasoningID
}

// EmitText appends the frames for a text delta to dst. The reasoning channel
// is closed first if it is open. An empty string appends nothing.
func (m *Manager) EmitText(dst []schema.Frame, s string) []schema.Frame {
	if s == "" {
		return dst
	}
	if m.state == ReasoningOpen {
		dst = append(dst, schema.ReasoningEndFrame{ID: m.reasoningID})
		m.state = Idle
	}
	if m.state != TextOpen {
		dst = append(dst, schema.TextStartFrame{ID: m.textID})
		m.state = TextOpen
	}
	return append(dst, schema.TextDeltaFrame{ID: m.textID, Delta: s})
}

// EmitReasoning appends the frames for a reasoning delta to dst. The text
// channel is closed first if it is open. An empty string appends nothing.
func (m *Manager) EmitReasoning(dst []schema.Frame, s string) []schema.Frame {
	if s == "" {
		return dst
	}
	if m.state == TextOpen {
		dst = append(dst, schema.TextEndFrame{ID: m.textID})
		m.state = Idle
	}
	if m.state != ReasoningOpen {
		dst = append(dst, schema.ReasoningStartFrame{ID: m.reasoningID})
		m.state = ReasoningOpen
	}
	return append(dst, schema.ReasoningDeltaFrame{ID: m.reasoningID, Delta: s})
}

// EmitContent dispatches each part by type. Parts of unknown type are
// skipped.
func (m *Manager) EmitContent(dst []schema.Frame, parts []schema.ContentPart) []schema.Frame {
	for _, part := range parts {
		switch part.Type {
		case schema.PartText:
			dst = m.EmitText(dst, part.Text)
		case schema.PartThinking:
			dst = m.EmitReasoning(dst, part.Thinking)
		}
	}
	return dst
}

// Emit appends the frames for model content, which is either plain text or
// a list of parts.
func (m *Manager) Emit(dst []schema.Frame, c schema.Content) []schema.Frame {
	if c.IsList() {
		return m.EmitContent(dst, c.Parts)
	}
	return m.EmitText(dst, c.Text)
}

// CloseAll appends the end frame for the open channel, if any, and returns
// to idle. Calling it again appends nothing.
func (m *Manager) CloseAll(dst []schema.Frame) []schema.Frame {
	switch m.state {
	case ReasoningOpen:
		dst = append(dst, schema.ReasoningEndFrame{ID: m.reasoningID})
	case TextOpen:
		dst = append(dst, schema.TextEndFrame{ID: m.textID})
	}
	m.state = Idle
	return dst
}
