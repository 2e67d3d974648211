// Package ui defines the interface for chat user interfaces which run agent
// turns in-process.
//
// Implementations of [ChatUI] adapt different platforms (terminal, Telegram,
// etc.) to a common event-driven chat model. The bot receives incoming
// events via [ChatUI.Receive] and renders the typed events of each turn
// through a [Context] obtained from each event.
package ui

import (
	"context"
)

///////////////////////////////////////////////////////////////////////////////
// INTERFACES

// ChatUI is the top-level interface that every chat frontend must implement.
// It is an event source: callers loop over [Receive] to process incoming
// user activity.
type ChatUI interface {
	// Receive blocks until the next incoming event is available, the
	// context is cancelled, or the interface is closed. It returns
	// io.EOF when the interface is permanently closed (e.g. terminal
	// EOF, bot shutdown).
	Receive(ctx context.Context) (Event, error)

	// Close releases resources held by the interface.
	Close() error
}

// Context represents the conversation context for a single event. It
// identifies the user and conversation, and provides methods for the bot
// to send responses back to the same conversation.
type Context interface {
	// UserID returns a platform-specific unique identifier for the user
	// who triggered the event.
	UserID() string

	// UserName returns a human-readable display name for the user.
	UserName() string

	// ConversationID returns a unique identifier for the conversation
	// (e.g. Telegram chat ID, terminal session).
	ConversationID() string

	// SendText sends a plain text message to the conversation.
	SendText(ctx context.Context, text string) error

	// SendMarkdown sends a Markdown-formatted message. Platforms that
	// support rich text should render it natively.
	SendMarkdown(ctx context.Context, markdown string) error

	// SetTyping signals that the bot is processing. Implementations may
	// ignore the stop call if the platform handles it automatically.
	SetTyping(ctx context.Context, typing bool) error

	// StreamStart begins a new streaming message in the conversation.
	StreamStart(ctx context.Context) error

	// StreamChunk appends a text chunk to the current streaming message.
	// The role identifies the source of the chunk so the UI can style
	// each segment appropriately.
	StreamChunk(ctx context.Context, role Role, text string) error

	// StreamEnd finalises the current streaming message.
	StreamEnd(ctx context.Context) error

	// RequestApproval asks the user to approve or reject a tool call.
	// The answer arrives later as an EventApproval event, or as an
	// /approve or /reject command.
	RequestApproval(ctx context.Context, req ApprovalRequest) error
}

///////////////////////////////////////////////////////////////////////////////
// EVENT TYPES

// EventType identifies the kind of incoming event.
type EventType int

const (
	EventText     EventType = iota // User sent a text message
	EventCommand                   // User sent a slash command (e.g. /approve)
	EventApproval                  // User answered an approval request
)

func (t EventType) String() string {
	switch t {
	case EventText:
		return "text"
	case EventCommand:
		return "command"
	case EventApproval:
		return "approval"
	default:
		return "unknown"
	}
}

// Event represents an incoming event from the user.
type Event struct {
	// Type identifies what kind of event this is.
	Type EventType

	// Context provides the conversation context and response methods.
	Context Context

	// Text contains the message text (for EventText) or the full
	// command string including arguments (for EventCommand).
	Text string

	// Command contains the parsed command name without the leading
	// slash (for EventCommand only, e.g. "approve").
	Command string

	// Args contains the parsed command arguments (for EventCommand only).
	Args []string

	// Approval contains the user's answer (for EventApproval only).
	Approval *ApprovalResponse
}

///////////////////////////////////////////////////////////////////////////////
// ROLES

// Role tags a streamed chunk with its source.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
	RoleError     Role = "error"
)

///////////////////////////////////////////////////////////////////////////////
// APPROVALS

// ApprovalRequest describes a tool call which needs the user's approval
// before the turn can continue.
type ApprovalRequest struct {
	ToolCallID string
	ApprovalID string
	ToolName   string
	Title      string // Display name for the tool
	Input      any
}

// ApprovalResponse is the user's answer to an approval request.
type ApprovalResponse struct {
	ToolCallID string
	Approved   bool
	Reason     string
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// ParseText converts a line of user input into a text or command event.
// Commands start with a slash, and are split into a name and arguments.
func ParseText(uctx Context, text string) Event {
	evt := Event{Context: uctx, Text: text, Type: EventText}
	if len(text) > 1 && text[0] == '/' {
		parts := splitFields(text)
		evt.Type = EventCommand
		evt.Command = parts[0][1:]
		if len(parts) > 1 {
			evt.Args = parts[1:]
		}
	}
	return evt
}
