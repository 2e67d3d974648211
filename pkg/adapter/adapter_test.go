package adapter_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	// Packages
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

type item struct {
	ev  schema.RawEvent
	err error
}

// source returns the items in order, counting how many were pulled
func source(pulled *int, items ...item) iter.Seq2[schema.RawEvent, error] {
	return func(yield func(schema.RawEvent, error) bool) {
		for _, item := range items {
			if pulled != nil {
				*pulled++
			}
			if !yield(item.ev, item.err) {
				return
			}
		}
	}
}

func events(evs ...schema.RawEvent) []item {
	items := make([]item, 0, len(evs))
	for _, ev := range evs {
		items = append(items, item{ev: ev})
	}
	return items
}

func collect(t *testing.T, a *adapter.Adapter, src iter.Seq2[schema.RawEvent, error]) []schema.Frame {
	t.Helper()
	var frames []schema.Frame
	for frame := range a.Frames(context.Background(), src) {
		frames = append(frames, frame)
	}
	return frames
}

func frameTypes(frames []schema.Frame) []schema.FrameType {
	result := make([]schema.FrameType, 0, len(frames))
	for _, frame := range frames {
		result = append(result, frame.Type())
	}
	return result
}

func text(s string) *schema.StreamChunk {
	return &schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{Content: schema.NewText(s)}}
}

type bogus struct {
	schema.RawEvent
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_adapter_001(t *testing.T) {
	assert := assert.New(t)

	a, err := adapter.New()
	require.NoError(t, err)
	assert.NotEmpty(a.MessageID())
	assert.Equal(adapter.NotStarted, a.State())

	a, err = adapter.New(adapter.WithMessageID("m1"))
	require.NoError(t, err)
	assert.Equal("m1", a.MessageID())

	_, err = adapter.New(adapter.WithRejected(schema.RejectedToolCall{}))
	assert.Error(err)
	_, err = adapter.New(adapter.WithApproved(""))
	assert.Error(err)
	_, err = adapter.New(adapter.WithModelNode(""))
	assert.Error(err)
	_, err = adapter.New(adapter.WithGraphNode(" "))
	assert.Error(err)
	_, err = adapter.New(adapter.WithLogger(nil))
	assert.Error(err)
	_, err = adapter.New(adapter.WithTracer(nil))
	assert.Error(err)
}

// Text, then a tool call, then its result
func Test_adapter_002(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New(adapter.WithMessageID("m1"))
	require.NoError(t, err)

	frames := collect(t, a, source(nil, events(
		text("Hel"),
		text("lo"),
		&schema.ToolStart{OriginName: "lookup", RunID: "r1", Input: map[string]any{"x": 1, "runtime": map[string]any{"tool_call_id": "c1"}}},
		&schema.ToolEnd{OriginName: "lookup", RunID: "r1", Output: &schema.ToolMessage{ToolCallID: "c1", Content: map[string]any{"text": "42"}}},
	)...))

	require.Len(t, frames, 10)
	textID := frames[1].(schema.TextStartFrame).ID
	assert.Equal([]schema.Frame{
		schema.StartFrame{MessageID: "m1"},
		schema.TextStartFrame{ID: textID},
		schema.TextDeltaFrame{ID: textID, Delta: "Hel"},
		schema.TextDeltaFrame{ID: textID, Delta: "lo"},
		schema.TextEndFrame{ID: textID},
		schema.ToolInputStartFrame{ToolCallID: "c1", ToolName: "lookup"},
		schema.ToolInputAvailableFrame{ToolCallID: "c1", ToolName: "lookup", Input: map[string]any{"x": 1}},
		schema.ToolOutputAvailableFrame{ToolCallID: "c1", Output: float64(42)},
		schema.FinishFrame{},
		schema.Done,
	}, frames)
	assert.Equal(adapter.Done, a.State())
	assert.False(a.PendingApproval())
}

// Interrupt mid-turn for a call which is not pre-approved
func Test_adapter_003(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	frames := collect(t, a, source(nil, events(
		text("Sending"),
		&schema.ChainStream{OriginName: "approval", Chunk: &schema.ChainChunk{
			Interrupts: []schema.Interrupt{{ActionRequests: []schema.ActionRequest{{Name: "send_email", Args: map[string]any{"to": "a@b.com"}}}}},
		}},
	)...))

	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameTextStart,
		schema.FrameTextDelta,
		schema.FrameToolInputStart,
		schema.FrameToolInputAvailable,
		schema.FrameToolApprovalRequest,
		schema.FrameDone,
	}, frameTypes(frames))
	assert.True(a.PendingApproval())
	assert.NotContains(frameTypes(frames), schema.FrameFinish)
	assert.NotContains(frameTypes(frames), schema.FrameTextEnd)
	assert.Equal(map[string]any{"to": "a@b.com"}, frames[4].(schema.ToolInputAvailableFrame).Input)
}

// Rejected calls are reported straight after start, and nothing else
func Test_adapter_004(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New(
		adapter.WithMessageID("m1"),
		adapter.WithRejected(
			schema.RejectedToolCall{ToolCallID: "c1", Reason: "not now"},
			schema.RejectedToolCall{ToolCallID: "c2"},
		),
	)
	require.NoError(t, err)

	frames := collect(t, a, source(nil))
	assert.Equal([]schema.Frame{
		schema.StartFrame{MessageID: "m1"},
		schema.ToolOutputErrorFrame{ToolCallID: "c1", ErrorText: "not now"},
		schema.ToolOutputErrorFrame{ToolCallID: "c2", ErrorText: adapter.DefaultRejectReason},
		schema.FinishFrame{},
		schema.Done,
	}, frames)
}

// Pre-approved calls resume silently, but still report their output
func Test_adapter_005(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New(
		adapter.WithResume(&schema.ResumeContext{MessageID: "m1", Approved: []string{"c1"}, Decisions: []schema.Decision{schema.DecisionApprove}}),
	)
	require.NoError(t, err)

	frames := collect(t, a, source(nil, events(
		&schema.ChainStart{OriginName: "LangGraph", Resume: true},
		&schema.ToolStart{OriginName: "send_email", CallID: "c1", Input: map[string]any{"to": "a@b.com"}},
		&schema.ToolEnd{OriginName: "send_email", Output: &schema.ToolMessage{ToolCallID: "c1", Content: "sent"}},
		text("Done"),
	)...))

	assert.True(a.Resuming())
	assert.Equal("m1", a.MessageID())
	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameToolOutputAvailable,
		schema.FrameTextStart,
		schema.FrameTextDelta,
		schema.FrameTextEnd,
		schema.FrameFinish,
		schema.FrameDone,
	}, frameTypes(frames))
	for _, frame := range frames {
		switch frame := frame.(type) {
		case schema.ToolInputStartFrame:
			assert.NotEqual("c1", frame.ToolCallID)
		case schema.ToolInputAvailableFrame:
			assert.NotEqual("c1", frame.ToolCallID)
		}
	}
}

// An engine error event ends the stream without pulling further events
func Test_adapter_006(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	var pulled int
	frames := collect(t, a, source(&pulled, events(
		text("partial"),
		&schema.ErrorEvent{Message: "model overloaded"},
		text("never"),
	)...))

	assert.Equal(2, pulled)
	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameTextStart,
		schema.FrameTextDelta,
		schema.FrameError,
		schema.FrameTextEnd,
		schema.FrameFinish,
		schema.FrameDone,
	}, frameTypes(frames))
	assert.Equal(schema.ErrorFrame{ErrorText: "model overloaded"}, frames[3])
	assert.Equal(adapter.Done, a.State())
}

// A source error becomes exactly one error frame and the finish sequence
func Test_adapter_007(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	frames := collect(t, a, source(nil, item{ev: text("a")}, item{err: errors.New("connection reset")}, item{ev: text("b")}))
	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameTextStart,
		schema.FrameTextDelta,
		schema.FrameError,
		schema.FrameTextEnd,
		schema.FrameFinish,
		schema.FrameDone,
	}, frameTypes(frames))
	assert.Equal(schema.ErrorFrame{ErrorText: "Stream processing error: connection reset"}, frames[3])
}

// Nil and unknown events are skipped, and handler panics are stream errors
func Test_adapter_008(t *testing.T) {
	assert := assert.New(t)

	a, err := adapter.New()
	require.NoError(t, err)
	var pulled int
	frames := collect(t, a, source(&pulled, events(text("x"), nil, bogus{}, text("y"))...))
	assert.Equal(4, pulled)
	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameTextStart,
		schema.FrameTextDelta,
		schema.FrameTextDelta,
		schema.FrameTextEnd,
		schema.FrameFinish,
		schema.FrameDone,
	}, frameTypes(frames))
	assert.Equal("y", frames[3].(schema.TextDeltaFrame).Delta)

	a, err = adapter.New()
	require.NoError(t, err)
	frames = collect(t, a, source(nil, events((*schema.StreamChunk)(nil))...))
	assert.Equal([]schema.FrameType{schema.FrameStart, schema.FrameError, schema.FrameFinish, schema.FrameDone}, frameTypes(frames))
	assert.Contains(frames[1].(schema.ErrorFrame).ErrorText, "panic")
}

// Finish is idempotent beyond the terminal sentinel
func Test_adapter_009(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	frames, err := a.Start(nil)
	assert.NoError(err)
	assert.Len(frames, 1)
	_, err = a.Start(nil)
	assert.Error(err)

	assert.Equal([]schema.Frame{schema.FinishFrame{}, schema.Done}, a.Finish(nil))
	assert.Equal([]schema.Frame{schema.Done}, a.Finish(nil))
}

// A stopped consumer stops pulling; a finished adapter does not stream again
func Test_adapter_010(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	var pulled, n int
	for range a.Frames(context.Background(), source(&pulled, events(text("a"), text("b"), text("c"))...)) {
		if n++; n == 2 {
			break
		}
	}
	assert.Equal(1, pulled)

	assert.Empty(collect(t, a, source(nil, events(text("d"))...)))
}

// Cancellation stops pulling without further frames
func Test_adapter_011(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var frames []schema.Frame
	for frame := range a.Frames(ctx, source(nil, events(text("a"), text("b"))...)) {
		frames = append(frames, frame)
	}
	assert.Equal([]schema.FrameType{schema.FrameStart}, frameTypes(frames))
}

// Streamed tool call, finalized by the turn end, then executed
func Test_adapter_012(t *testing.T) {
	assert := assert.New(t)
	a, err := adapter.New(adapter.WithToolMetadata(func(tool string) map[string]string {
		return map[string]string{"label": "Search"}
	}))
	require.NoError(t, err)

	frames := collect(t, a, source(nil, events(
		&schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{
			Content:        schema.NewParts(schema.ThinkingPart("need data")),
			ToolCallChunks: []schema.ToolCallChunk{{ID: "c1", Name: "search", Args: `{"q":`}},
		}},
		&schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{ToolCallChunks: []schema.ToolCallChunk{{Args: `"go"}`}}}},
		&schema.TurnEnd{OriginName: "model", Output: &schema.AIMessage{ToolCalls: []schema.ToolCall{{ID: "c1", Name: "search", Args: map[string]any{"q": "go"}}}}},
		&schema.ToolStart{OriginName: "search", RunID: "r9", Input: map[string]any{"q": "go"}},
		&schema.ToolEnd{OriginName: "search", Output: &schema.ToolMessage{ToolCallID: "c1", Content: []any{map[string]any{"type": "text", "text": `{"hits":3}`}}}},
	)...))

	assert.Equal([]schema.FrameType{
		schema.FrameStart,
		schema.FrameToolInputStart,
		schema.FrameToolInputDelta,
		schema.FrameReasoningStart,
		schema.FrameReasoningDelta,
		schema.FrameToolInputDelta,
		schema.FrameToolInputAvailable,
		schema.FrameToolOutputAvailable,
		schema.FrameReasoningEnd,
		schema.FrameFinish,
		schema.FrameDone,
	}, frameTypes(frames))
	assert.Equal(map[string]string{"label": "Search"}, frames[1].(schema.ToolInputStartFrame).Metadata)
	assert.Equal(map[string]any{"hits": float64(3)}, frames[7].(schema.ToolOutputAvailableFrame).Output)
}
