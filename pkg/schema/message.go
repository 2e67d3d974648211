package schema

import (
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UIMessage is a message in the client-side conversation history, as sent
// by an AI SDK client.
type UIMessage struct {
	ID       string         `json:"id"`
	Role     string         `json:"role"`
	Parts    []UIPart       `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UIPart is one part of a UI message. Tool parts have a type prefixed with
// "tool-" and carry the call state and any approval response.
type UIPart struct {
	Type       string    `json:"type"`
	Text       string    `json:"text,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
	ToolName   string    `json:"toolName,omitempty"`
	State      string    `json:"state,omitempty"`
	Input      any       `json:"input,omitempty"`
	Output     any       `json:"output,omitempty"`
	ErrorText  string    `json:"errorText,omitempty"`
	Approval   *Approval `json:"approval,omitempty"`
}

// Approval is the user's response to a tool approval request.
type Approval struct {
	ID       string `json:"id,omitempty"`
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Decision is the command sent to the execution engine to resume an
// interrupted turn, one per pending tool call.
type Decision string

// RejectedToolCall is a tool call the user declined.
type RejectedToolCall struct {
	ToolCallID string `json:"toolCallId"`
	Reason     string `json:"reason,omitempty"`
}

// ResumeContext is the approval state extracted from the last message of
// the conversation, when the turn resumes an interrupted one.
type ResumeContext struct {
	MessageID string             `json:"messageId,omitempty"`
	Decisions []Decision         `json:"decisions"`
	Approved  []string           `json:"approved,omitempty"`
	Rejected  []RejectedToolCall `json:"rejected,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	PartTypeText      = "text"
	PartTypeReasoning = "reasoning"
	PartTypeToolPfx   = "tool-"
	PartTypeDynamic   = "dynamic-tool"
)

const (
	StateInputStreaming = "input-streaming"
	StateInputAvail     = "input-available"
	StateRequested      = "approval-requested"
	StateResponded      = "approval-responded"
	StateOutputAvail    = "output-available"
	StateOutputError    = "output-error"
)

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m UIMessage) String() string {
	return types.Stringify(m)
}

func (r ResumeContext) String() string {
	return types.Stringify(r)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsTool returns true if the part describes a tool call.
func (p UIPart) IsTool() bool {
	return strings.HasPrefix(p.Type, PartTypeToolPfx) || p.Type == PartTypeDynamic
}

// Name returns the tool name of a tool part, either from the toolName field
// or from the part type.
func (p UIPart) Name() string {
	if p.ToolName != "" {
		return p.ToolName
	}
	return strings.TrimPrefix(p.Type, PartTypeToolPfx)
}

// IsPendingApproval returns true if the user has responded to an approval
// request in this part, and the response has not yet been acted upon: there
// is no output or error yet.
func (p UIPart) IsPendingApproval() bool {
	if !p.IsTool() || p.Approval == nil || p.State != StateResponded {
		return false
	}
	return p.Output == nil && p.ErrorText == ""
}

// Text returns the concatenated text parts of the message.
func (m UIMessage) Text() string {
	var b strings.Builder
	for _, part := range m.Parts {
		if part.Type == PartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
