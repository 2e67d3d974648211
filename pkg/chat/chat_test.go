package chat_test

import (
	"context"
	"iter"
	"testing"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	chat "github.com/mutablelogic/go-agentstream/pkg/chat"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

///////////////////////////////////////////////////////////////////////////////
// MOCK ENGINE

// mockEngine interrupts the first turn for approval of send_email, and
// runs the tool when resumed with an approval
type mockEngine struct {
	requests []schema.TurnRequest
}

func (e *mockEngine) Stream(_ context.Context, req schema.TurnRequest) (iter.Seq2[schema.RawEvent, error], error) {
	e.requests = append(e.requests, req)
	args := map[string]any{"to": "a@b.c"}

	var events []schema.RawEvent
	switch {
	case !req.IsResume():
		events = []schema.RawEvent{
			&schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{Content: schema.NewText("Sending")}},
			&schema.TurnEnd{OriginName: "model", Output: &schema.AIMessage{
				ToolCalls: []schema.ToolCall{{ID: "call_1", Name: "send_email", Args: args}},
			}},
			&schema.ChainStream{OriginName: "approval", Chunk: &schema.ChainChunk{
				Interrupts: []schema.Interrupt{{ActionRequests: []schema.ActionRequest{{Name: "send_email", Args: args}}}},
			}},
		}
	case req.Decisions[0] == schema.DecisionApprove:
		events = []schema.RawEvent{
			&schema.ChainStart{OriginName: "LangGraph", Resume: true},
			&schema.ToolStart{OriginName: "send_email", RunID: "r1", CallID: "call_1", Input: args},
			&schema.ToolEnd{OriginName: "send_email", RunID: "r1", Output: &schema.ToolMessage{ToolCallID: "call_1", Content: "sent"}},
			&schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{Content: schema.NewText("Done")}},
		}
	default:
		events = []schema.RawEvent{
			&schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{Content: schema.NewText("Cancelled")}},
		}
	}
	return func(yield func(schema.RawEvent, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_chat_001(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	engine := new(mockEngine)
	driver, err := chat.New(engine)
	require.NoError(t, err)

	rec := ui.NewRecorder("c1")
	require.NoError(t, driver.Send(ctx, rec, "email bob"))

	// The turn is interrupted for approval
	pending := driver.Pending("c1")
	if assert.Len(pending, 1) {
		assert.Equal("call_1", pending[0].ToolCallID)
	}
	if assert.Len(rec.Approvals, 1) {
		assert.Equal("call_1", rec.Approvals[0].ToolCallID)
		assert.Equal("Send Email", rec.Approvals[0].Title)
	}

	// Another message must wait for the answer
	assert.ErrorIs(driver.Send(ctx, rec, "hello?"), agentstream.ErrConflict)

	// Approve and resume
	require.NoError(t, driver.Respond(ctx, rec, ui.ApprovalResponse{ToolCallID: "call_1", Approved: true}))
	assert.Empty(driver.Pending("c1"))
	if assert.Len(engine.requests, 2) {
		assert.Equal("c1", engine.requests[1].ThreadID)
		assert.Equal([]schema.Decision{schema.DecisionApprove}, engine.requests[1].Decisions)
	}

	// The resumed turn continued the same assistant message
	messages := driver.Messages("c1")
	if assert.Len(messages, 2) {
		assert.Equal(schema.RoleUser, messages[0].Role)
		assert.Equal("SendingDone", messages[1].Text())
	}
	last := rec.Messages[len(rec.Messages)-1]
	assert.Equal("Done", last.Text(ui.RoleAssistant))
}

func Test_chat_002(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	engine := new(mockEngine)
	driver, err := chat.New(engine, chat.WithThread(func(id string) string { return "thread-" + id }))
	require.NoError(t, err)

	rec := ui.NewRecorder("c2")
	require.NoError(t, driver.Send(ctx, rec, "email bob"))
	require.NoError(t, driver.RespondAll(ctx, rec, false, "no thanks"))

	if assert.Len(engine.requests, 2) {
		assert.Equal("thread-c2", engine.requests[0].ThreadID)
		assert.Equal([]schema.Decision{schema.DecisionReject}, engine.requests[1].Decisions)
	}

	// The rejection is recorded on the tool part
	messages := driver.Messages("c2")
	require.Len(t, messages, 2)
	var part *schema.UIPart
	for i := range messages[1].Parts {
		if messages[1].Parts[i].IsTool() {
			part = &messages[1].Parts[i]
		}
	}
	if assert.NotNil(part) {
		assert.Equal(schema.StateOutputError, part.State)
		assert.Equal("no thanks", part.ErrorText)
	}

	// A new message starts a new turn
	require.NoError(t, driver.Send(ctx, rec, "thanks"))
	assert.Len(engine.requests, 3)
	assert.False(engine.requests[2].IsResume())
	assert.Len(driver.Messages("c2"), 4)
}

func Test_chat_003(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	driver, err := chat.New(new(mockEngine))
	require.NoError(t, err)
	rec := ui.NewRecorder("c3")

	assert.ErrorIs(driver.Respond(ctx, rec, ui.ApprovalResponse{ToolCallID: "x"}), agentstream.ErrNotFound)
	assert.ErrorIs(driver.RespondAll(ctx, rec, true, ""), agentstream.ErrNotFound)

	require.NoError(t, driver.Send(ctx, rec, "email bob"))
	driver.Reset("c3")
	assert.Empty(driver.Messages("c3"))
	assert.Empty(driver.Pending("c3"))

	_, err = chat.New(nil)
	assert.ErrorIs(err, agentstream.ErrBadParameter)
}
