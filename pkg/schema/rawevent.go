package schema

import (
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// EventKind identifies the variant of a raw execution-engine event.
type EventKind int

// RawEvent is one event produced by the execution engine. The set of
// variants is closed: StreamChunk, TurnEnd, ToolStart, ToolEnd, ChainStart,
// ChainStream and ErrorEvent.
type RawEvent interface {
	// Kind returns the variant of the event
	Kind() EventKind

	// Origin returns the name of the node, model or tool which emitted the event
	Origin() string

	rawEvent()
}

// StreamChunk carries an incremental chunk from the model: text, reasoning
// or tool-call fragments.
type StreamChunk struct {
	OriginName string
	RunID      string
	Chunk      MessageChunk
}

// TurnEnd carries the final assembled model message for a turn.
type TurnEnd struct {
	OriginName string
	RunID      string
	Output     *AIMessage
}

// ToolStart is emitted when a tool execution node begins. OriginName is the
// tool name.
type ToolStart struct {
	OriginName string
	RunID      string
	CallID     string         // Tool call id, if the engine knows it directly
	Input      map[string]any // Tool input, possibly including engine-internal keys
}

// ToolEnd is emitted when a tool execution node finishes.
type ToolEnd struct {
	OriginName string
	RunID      string
	Output     *ToolMessage
}

// ChainStart is emitted when a chain or graph begins executing.
type ChainStart struct {
	OriginName string
	RunID      string
	Resume     bool // The graph was resumed after an interrupt
}

// ChainStream carries a node's state update, which may include an interrupt.
type ChainStream struct {
	OriginName string
	RunID      string
	Chunk      *ChainChunk
}

// ErrorEvent reports that the engine failed.
type ErrorEvent struct {
	OriginName string
	Message    string
}

// MessageChunk is an incremental model output.
type MessageChunk struct {
	Content        Content         `json:"content"`
	ToolCallChunks []ToolCallChunk `json:"tool_call_chunks,omitempty"`
}

// ToolCallChunk is a fragment of a streamed tool call. The first fragment of
// a call carries the id and name; continuation fragments carry only args and
// the index of the call within the message.
type ToolCallChunk struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Args  string `json:"args,omitempty"`
	Index int    `json:"index"`
}

// AIMessage is a finalized model message.
type AIMessage struct {
	Content   Content    `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a finalized tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolMessage is the result of a tool execution. Content holds the primary
// result and Artifact any secondary payload.
type ToolMessage struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Content    any    `json:"content,omitempty"`
	Artifact   any    `json:"artifact,omitempty"`
}

// ChainChunk is a node state update.
type ChainChunk struct {
	Messages   []AIMessage `json:"messages,omitempty"`
	Interrupts []Interrupt `json:"__interrupt__,omitempty"`
}

// Interrupt pauses the turn pending human review of one or more actions.
type Interrupt struct {
	ActionRequests []ActionRequest
}

// ActionRequest is a tool call awaiting human approval.
type ActionRequest struct {
	Name        string         `json:"name"`
	Args        map[string]any `json:"args"`
	Description string         `json:"description,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	KindStreamChunk EventKind = iota
	KindTurnEnd
	KindToolStart
	KindToolEnd
	KindChainStart
	KindChainStream
	KindError
)

// Keys in a tool input which belong to the engine and not the tool
var internalInputKeys = map[string]struct{}{
	"runtime":       {},
	"context":       {},
	"config":        {},
	"stream_writer": {},
	"store":         {},
}

var _ RawEvent = (*StreamChunk)(nil)
var _ RawEvent = (*TurnEnd)(nil)
var _ RawEvent = (*ToolStart)(nil)
var _ RawEvent = (*ToolEnd)(nil)
var _ RawEvent = (*ChainStart)(nil)
var _ RawEvent = (*ChainStream)(nil)
var _ RawEvent = (*ErrorEvent)(nil)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (k EventKind) String() string {
	switch k {
	case KindStreamChunk:
		return "stream-chunk"
	case KindTurnEnd:
		return "turn-end"
	case KindToolStart:
		return "tool-start"
	case KindToolEnd:
		return "tool-end"
	case KindChainStart:
		return "chain-start"
	case KindChainStream:
		return "chain-stream"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseEventKind returns the kind for a wire name, and false if the name
// is not recognised.
func ParseEventKind(v string) (EventKind, bool) {
	for k := KindStreamChunk; k <= KindError; k++ {
		if k.String() == strings.TrimSpace(v) {
			return k, true
		}
	}
	return 0, false
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (*StreamChunk) Kind() EventKind { return KindStreamChunk }
func (*TurnEnd) Kind() EventKind     { return KindTurnEnd }
func (*ToolStart) Kind() EventKind   { return KindToolStart }
func (*ToolEnd) Kind() EventKind     { return KindToolEnd }
func (*ChainStart) Kind() EventKind  { return KindChainStart }
func (*ChainStream) Kind() EventKind { return KindChainStream }
func (*ErrorEvent) Kind() EventKind  { return KindError }

func (e *StreamChunk) Origin() string { return e.OriginName }
func (e *TurnEnd) Origin() string     { return e.OriginName }
func (e *ToolStart) Origin() string   { return e.OriginName }
func (e *ToolEnd) Origin() string     { return e.OriginName }
func (e *ChainStart) Origin() string  { return e.OriginName }
func (e *ChainStream) Origin() string { return e.OriginName }
func (e *ErrorEvent) Origin() string  { return e.OriginName }

func (*StreamChunk) rawEvent() {}
func (*TurnEnd) rawEvent()     {}
func (*ToolStart) rawEvent()   {}
func (*ToolEnd) rawEvent()     {}
func (*ChainStart) rawEvent()  {}
func (*ChainStream) rawEvent() {}
func (*ErrorEvent) rawEvent()  {}

// ToolCallID returns the tool call id from the execution-context metadata
// ("runtime" input key), falling back to the run id.
func (e *ToolStart) ToolCallID() string {
	if e.CallID != "" {
		return e.CallID
	}
	if runtime, ok := e.Input["runtime"].(map[string]any); ok {
		if id, ok := runtime["tool_call_id"].(string); ok && id != "" {
			return id
		}
	}
	return e.RunID
}

// Args returns the tool input without engine-internal keys.
func (e *ToolStart) Args() map[string]any {
	args := make(map[string]any, len(e.Input))
	for k, v := range e.Input {
		if _, internal := internalInputKeys[k]; !internal {
			args[k] = v
		}
	}
	return args
}

// ToolCallID returns the id of the call this output belongs to, falling back
// to the run id when the output does not carry one.
func (e *ToolEnd) ToolCallID() string {
	if e.Output != nil && e.Output.ToolCallID != "" {
		return e.Output.ToolCallID
	}
	return e.RunID
}

// ActionRequests returns the action requests of all interrupts in the chunk.
func (c *ChainChunk) ActionRequests() []ActionRequest {
	if c == nil {
		return nil
	}
	var result []ActionRequest
	for _, interrupt := range c.Interrupts {
		result = append(result, interrupt.ActionRequests...)
	}
	return result
}

// LastMessage returns the most recent message in the chunk, or nil.
func (c *ChainChunk) LastMessage() *AIMessage {
	if c == nil || len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
