package schema_test

import (
	"encoding/json"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func Test_message_001(t *testing.T) {
	assert := assert.New(t)

	// Static tool parts carry the name in the type
	part := schema.UIPart{Type: "tool-send_email", ToolCallID: "c1"}
	assert.True(part.IsTool())
	assert.Equal("send_email", part.Name())

	// Dynamic tool parts carry the name in a field
	part = schema.UIPart{Type: schema.PartTypeDynamic, ToolName: "search", ToolCallID: "c2"}
	assert.True(part.IsTool())
	assert.Equal("search", part.Name())

	// Text parts are not tools
	assert.False(schema.UIPart{Type: schema.PartTypeText, Text: "hello"}.IsTool())
}

func Test_message_002(t *testing.T) {
	assert := assert.New(t)

	responded := schema.UIPart{
		Type:       "tool-send_email",
		ToolCallID: "c1",
		State:      schema.StateResponded,
		Approval:   &schema.Approval{ID: "a1", Approved: true},
	}
	assert.True(responded.IsPendingApproval())

	// An output means the response was acted upon
	done := responded
	done.Output = "sent"
	assert.False(done.IsPendingApproval())

	failed := responded
	failed.ErrorText = "smtp error"
	assert.False(failed.IsPendingApproval())

	// Still waiting for the user
	requested := responded
	requested.State = schema.StateRequested
	assert.False(requested.IsPendingApproval())

	// No approval at all
	assert.False(schema.UIPart{Type: "tool-x", State: schema.StateResponded}.IsPendingApproval())
}

func Test_message_003(t *testing.T) {
	assert := assert.New(t)

	message := schema.UIMessage{
		ID:   "m1",
		Role: schema.RoleAssistant,
		Parts: []schema.UIPart{
			{Type: schema.PartTypeText, Text: "Hello, "},
			{Type: schema.PartTypeReasoning, Text: "thinking"},
			{Type: "tool-x", ToolCallID: "c1"},
			{Type: schema.PartTypeText, Text: "world"},
		},
	}
	assert.Equal("Hello, world", message.Text())
	assert.Empty(schema.UIMessage{}.Text())
}

func Test_message_004(t *testing.T) {
	assert := assert.New(t)

	// Messages as sent by an AI SDK client
	var message schema.UIMessage
	err := json.Unmarshal([]byte(`{
		"id": "m1",
		"role": "assistant",
		"parts": [
			{"type": "text", "text": "I will send it"},
			{"type": "tool-send_email", "toolCallId": "c1", "state": "approval-responded",
			 "input": {"to": "bob"}, "approval": {"id": "a1", "approved": false, "reason": "no"}}
		]
	}`), &message)
	if !assert.NoError(err) {
		return
	}
	assert.Len(message.Parts, 2)
	part := message.Parts[1]
	assert.Equal("send_email", part.Name())
	assert.Equal(map[string]any{"to": "bob"}, part.Input)
	if assert.NotNil(part.Approval) {
		assert.False(part.Approval.Approved)
		assert.Equal("no", part.Approval.Reason)
	}
	assert.True(part.IsPendingApproval())

	// Settling marks the answered call done
	message.Settle()
	assert.Equal(schema.StateOutputAvail, message.Parts[1].State)
	assert.False(message.Parts[1].IsPendingApproval())
}
