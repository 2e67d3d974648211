package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ChatRequest is the body of an AI SDK chat request.
type ChatRequest struct {
	ID        string      `json:"id"`                  // Conversation thread
	MessageID string      `json:"messageId,omitempty"` // Assistant message to continue
	Messages  []UIMessage `json:"messages"`
	Trigger   string      `json:"trigger,omitempty"`
}

// TurnRequest asks an execution engine to run, or resume, one turn.
type TurnRequest struct {
	ThreadID  string      `json:"thread_id"`
	Messages  []UIMessage `json:"messages,omitempty"`
	Decisions []Decision  `json:"decisions,omitempty"` // Set when resuming after an interrupt
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r ChatRequest) String() string {
	return types.Stringify(r)
}

func (r TurnRequest) String() string {
	return types.Stringify(r)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsResume returns true if the request resumes an interrupted turn.
func (r TurnRequest) IsResume() bool {
	return len(r.Decisions) > 0
}
