package adapter

import (
	"context"
	"iter"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// events converts frames into typed events for a message-posting consumer.
// Tool names and inputs are remembered from input frames, or from the router
// as each call finishes, so later output and approval events can carry them.
type events struct {
	names  map[string]string
	inputs map[string]any
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Reported for a call whose tool name was never seen
const unknownTool = "unknown"

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Post delivers the typed events for a turn to a poster. Reasoning and
// framing frames have no event. It returns when the stream ends, or with the
// first error from the poster, which also stops the source.
func (a *Adapter) Post(ctx context.Context, poster agentstream.Poster, source iter.Seq2[schema.RawEvent, error]) error {
	if poster == nil {
		return agentstream.ErrBadParameter.With("poster is required")
	}
	for event := range a.Events(ctx, source) {
		if err := poster.Post(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the typed events for a turn.
func (a *Adapter) Events(ctx context.Context, source iter.Seq2[schema.RawEvent, error]) iter.Seq[schema.Event] {
	return func(yield func(schema.Event) bool) {
		events := &events{
			names:  make(map[string]string),
			inputs: make(map[string]any),
		}
		a.finished = events.finished
		defer func() { a.finished = nil }()
		for frame := range a.Frames(ctx, source) {
			if event, ok := events.event(frame); ok {
				if !yield(event) {
					return
				}
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// finished remembers the name and input of a call which had no input frames
func (e *events) finished(id, name string, args map[string]any) {
	if _, exists := e.names[id]; !exists && name != "" {
		e.names[id] = name
	}
	if _, exists := e.inputs[id]; !exists && args != nil {
		e.inputs[id] = args
	}
}

// name returns the tool name for a call
func (e *events) name(id string) string {
	if name := e.names[id]; name != "" {
		return name
	}
	return unknownTool
}

func (e *events) event(frame schema.Frame) (schema.Event, bool) {
	switch frame := frame.(type) {
	case schema.TextDeltaFrame:
		return schema.Event{Type: schema.EventText, Content: frame.Delta}, true
	case schema.ToolInputStartFrame:
		e.names[frame.ToolCallID] = frame.ToolName
	case schema.ToolInputAvailableFrame:
		e.names[frame.ToolCallID] = frame.ToolName
		e.inputs[frame.ToolCallID] = frame.Input
		return schema.Event{
			Type:       schema.EventToolStart,
			ToolCallID: frame.ToolCallID,
			ToolName:   frame.ToolName,
			Input:      frame.Input,
			Metadata:   frame.Metadata,
		}, true
	case schema.ToolOutputAvailableFrame:
		return schema.Event{
			Type:       schema.EventToolEnd,
			ToolCallID: frame.ToolCallID,
			ToolName:   e.name(frame.ToolCallID),
			Input:      e.inputs[frame.ToolCallID],
			Output:     frame.Output,
		}, true
	case schema.ToolOutputErrorFrame:
		return schema.Event{
			Type:       schema.EventToolEnd,
			ToolCallID: frame.ToolCallID,
			ToolName:   e.name(frame.ToolCallID),
			Input:      e.inputs[frame.ToolCallID],
			Output:     frame.ErrorText,
			IsError:    true,
		}, true
	case schema.ToolApprovalRequestFrame:
		return schema.Event{
			Type:       schema.EventToolApprovalRequest,
			ToolCallID: frame.ToolCallID,
			ToolName:   e.name(frame.ToolCallID),
			Input:      e.inputs[frame.ToolCallID],
			ApprovalID: frame.ApprovalID,
		}, true
	case schema.ErrorFrame:
		return schema.Event{Type: schema.EventError, Content: frame.ErrorText}, true
	}
	return schema.Event{}, false
}
