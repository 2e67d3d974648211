package command_test

import (
	"context"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	command "github.com/mutablelogic/go-agentstream/pkg/ui/command"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// MOCK DRIVER

type mockDriver struct {
	pending   []schema.UIPart
	responses []ui.ApprovalResponse
	all       *ui.ApprovalResponse
	reset     string
}

func (d *mockDriver) Respond(_ context.Context, _ ui.Context, resp ui.ApprovalResponse) error {
	d.responses = append(d.responses, resp)
	return nil
}

func (d *mockDriver) RespondAll(_ context.Context, _ ui.Context, approved bool, reason string) error {
	d.all = &ui.ApprovalResponse{Approved: approved, Reason: reason}
	return nil
}

func (d *mockDriver) Pending(string) []schema.UIPart { return d.pending }

func (d *mockDriver) Messages(string) []schema.UIMessage {
	return []schema.UIMessage{
		{Role: schema.RoleUser, Parts: []schema.UIPart{{Type: schema.PartTypeText, Text: "hi"}}},
		{Role: schema.RoleAssistant, Parts: d.pending},
	}
}

func (d *mockDriver) Reset(id string) { d.reset = id }

type mockHooks struct{ reset bool }

func (h *mockHooks) OnReset() { h.reset = true }

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_command_001(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	rec := ui.NewRecorder("c1")
	driver := &mockDriver{pending: []schema.UIPart{{Type: "tool-send_email", ToolCallID: "call_1"}}}
	h := command.New(driver, nil)

	// A single pending call is answered without naming it
	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/reject not now")))
	if assert.Len(driver.responses, 1) {
		assert.Equal(ui.ApprovalResponse{ToolCallID: "call_1", Reason: "not now"}, driver.responses[0])
	}

	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/approve call_1")))
	if assert.Len(driver.responses, 2) {
		assert.Equal(ui.ApprovalResponse{ToolCallID: "call_1", Approved: true}, driver.responses[1])
	}
}

func Test_command_002(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	rec := ui.NewRecorder("c1")
	driver := &mockDriver{pending: []schema.UIPart{
		{Type: "tool-a", ToolCallID: "c1"},
		{Type: "tool-b", ToolCallID: "c2"},
	}}
	h := command.New(driver, nil)

	// Several pending calls are answered together unless one is named
	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/approve")))
	if assert.NotNil(driver.all) {
		assert.True(driver.all.Approved)
	}
	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/no c2 wrong")))
	if assert.Len(driver.responses, 1) {
		assert.Equal("c2", driver.responses[0].ToolCallID)
		assert.Equal("wrong", driver.responses[0].Reason)
	}

	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/pending")))
	if assert.Len(rec.Messages, 1) {
		assert.Contains(rec.Messages[0].Text(ui.RoleAssistant), "| **c2** | B |")
	}
}

func Test_command_003(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	rec := ui.NewRecorder("c9")
	hooks := new(mockHooks)
	driver := new(mockDriver)
	h := command.New(driver, hooks)

	assert.Error(h.Handle(ctx, ui.ParseText(rec, "/approve")))
	assert.Error(h.Handle(ctx, ui.ParseText(rec, "/bogus")))

	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/reset")))
	assert.Equal("c9", driver.reset)
	assert.True(hooks.reset)

	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/history")))
	assert.NoError(h.Handle(ctx, ui.ParseText(rec, "/help")))
	assert.Len(rec.Messages, 3)
}
