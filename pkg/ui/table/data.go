package table

import (
	"encoding/json"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// RawEvents is a table of engine events, one row per event.
type RawEvents []schema.RawEvent

// Frames is a table of stream frames, one row per frame.
type Frames []schema.Frame

// Pending is a table of tool calls waiting for approval.
type Pending []schema.UIPart

var _ TableData = RawEvents(nil)
var _ TableData = Frames(nil)
var _ TableData = Pending(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const maxDetail = 60

///////////////////////////////////////////////////////////////////////////////
// RAW EVENTS

func (RawEvents) Header() []string {
	return []string{"#", "Kind", "Origin", "Run", "Detail"}
}

func (t RawEvents) Len() int {
	return len(t)
}

func (t RawEvents) Row(i int) []any {
	event := t[i]
	if event == nil {
		return nil
	}
	row := []any{i + 1, Bold{event.Kind().String()}, event.Origin(), "", ""}
	switch event := event.(type) {
	case *schema.StreamChunk:
		row[3], row[4] = event.RunID, detail(event.Chunk)
	case *schema.TurnEnd:
		row[3], row[4] = event.RunID, detail(event.Output)
	case *schema.ToolStart:
		row[3], row[4] = event.RunID, detail(event.Input)
	case *schema.ToolEnd:
		row[3], row[4] = event.RunID, detail(event.Output)
	case *schema.ChainStart:
		row[3] = event.RunID
		if event.Resume {
			row[4] = "resume"
		}
	case *schema.ChainStream:
		row[3], row[4] = event.RunID, detail(event.Chunk)
	case *schema.ErrorEvent:
		row[4] = Alert{Truncate(event.Message, maxDetail)}
	}
	return row
}

///////////////////////////////////////////////////////////////////////////////
// FRAMES

func (Frames) Header() []string {
	return []string{"#", "Type", "ID", "Detail"}
}

func (t Frames) Len() int {
	return len(t)
}

func (t Frames) Row(i int) []any {
	frame := t[i]
	if frame == nil {
		return nil
	}
	row := []any{i + 1, Bold{string(frame.Type())}, "", ""}
	switch frame := frame.(type) {
	case schema.StartFrame:
		row[2] = frame.MessageID
	case schema.TextStartFrame:
		row[2] = frame.ID
	case schema.TextDeltaFrame:
		row[2], row[3] = frame.ID, detail(frame.Delta)
	case schema.TextEndFrame:
		row[2] = frame.ID
	case schema.ReasoningStartFrame:
		row[2] = frame.ID
	case schema.ReasoningDeltaFrame:
		row[2], row[3] = frame.ID, detail(frame.Delta)
	case schema.ReasoningEndFrame:
		row[2] = frame.ID
	case schema.ToolInputStartFrame:
		row[2], row[3] = frame.ToolCallID, frame.ToolName
	case schema.ToolInputDeltaFrame:
		row[2], row[3] = frame.ToolCallID, detail(frame.InputTextDelta)
	case schema.ToolInputAvailableFrame:
		row[2], row[3] = frame.ToolCallID, frame.ToolName+" "+ui.Inline(frame.Input)
	case schema.ToolOutputAvailableFrame:
		row[2], row[3] = frame.ToolCallID, detail(frame.Output)
	case schema.ToolOutputErrorFrame:
		row[2], row[3] = frame.ToolCallID, Alert{detail(frame.ErrorText)}
	case schema.ToolApprovalRequestFrame:
		row[2], row[3] = frame.ToolCallID, frame.ApprovalID
	case schema.ErrorFrame:
		row[3] = Alert{detail(frame.ErrorText)}
	}
	return row
}

///////////////////////////////////////////////////////////////////////////////
// PENDING APPROVALS

func (Pending) Header() []string {
	return []string{"Tool call", "Tool", "Input"}
}

func (t Pending) Len() int {
	return len(t)
}

func (t Pending) Row(i int) []any {
	part := t[i]
	return []any{Bold{part.ToolCallID}, ui.ToolTitle(part.Name(), nil), ui.Inline(part.Input)}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// detail returns a single-line rendering of a value for a table cell
func detail(v any) string {
	switch v := v.(type) {
	case string:
		return Truncate(v, maxDetail)
	case nil:
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return Truncate(string(data), maxDetail)
}
