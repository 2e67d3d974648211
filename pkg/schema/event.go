package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// EventType is the type of an in-process event delivered to a chat
// conversation.
type EventType string

// Event is a typed record of the in-process projection of a turn, used by
// chat-platform consumers which render tool activity and text themselves.
type Event struct {
	Type       EventType         `json:"type"`
	Content    string            `json:"content,omitempty"`      // Text delta or error message
	ToolCallID string            `json:"tool_call_id,omitempty"` // Tool events
	ToolName   string            `json:"tool_name,omitempty"`    // Tool events
	Input      any               `json:"input,omitempty"`        // Tool arguments
	Output     any               `json:"output,omitempty"`       // Tool output, or the error text when IsError
	IsError    bool              `json:"is_error,omitempty"`     // Tool failed or was rejected
	ApprovalID string            `json:"approval_id,omitempty"`  // Approval requests
	Metadata   map[string]string `json:"metadata,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	EventText                EventType = "text"
	EventToolStart           EventType = "tool_start"
	EventToolEnd             EventType = "tool_end"
	EventToolApprovalRequest EventType = "tool_approval_request"
	EventError               EventType = "error"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Event) String() string {
	return types.Stringify(e)
}
