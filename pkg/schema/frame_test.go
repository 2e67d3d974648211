package schema_test

import (
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

func Test_frame_001(t *testing.T) {
	assert := assert.New(t)

	data, err := schema.MarshalFrame(schema.StartFrame{MessageID: "m1"})
	assert.NoError(err)
	assert.Equal(`{"type":"start","messageId":"m1"}`, string(data))

	data, err = schema.MarshalFrame(schema.FinishFrame{})
	assert.NoError(err)
	assert.Equal(`{"type":"finish"}`, string(data))

	data, err = schema.MarshalFrame(schema.Done)
	assert.NoError(err)
	assert.Equal(`[DONE]`, string(data))
}

func Test_frame_002(t *testing.T) {
	assert := assert.New(t)

	// HTML is not escaped
	data, err := schema.MarshalFrame(schema.TextDeltaFrame{ID: "t", Delta: "<b>&</b>"})
	assert.NoError(err)
	assert.Equal(`{"type":"text-delta","id":"t","delta":"<b>&</b>"}`, string(data))
}

func Test_frame_003(t *testing.T) {
	assert := assert.New(t)

	// Metadata is omitted when empty
	data, err := schema.MarshalFrame(schema.ToolInputStartFrame{ToolCallID: "c1", ToolName: "search"})
	assert.NoError(err)
	assert.Equal(`{"type":"tool-input-start","toolCallId":"c1","toolName":"search"}`, string(data))

	data, err = schema.MarshalFrame(schema.ToolInputStartFrame{ToolCallID: "c1", ToolName: "search", Metadata: map[string]string{"k": "v"}})
	assert.NoError(err)
	assert.Equal(`{"type":"tool-input-start","toolCallId":"c1","toolName":"search","toolMetadata":{"k":"v"}}`, string(data))
}

func Test_frame_004(t *testing.T) {
	assert := assert.New(t)

	frames := []schema.Frame{
		schema.StartFrame{MessageID: "m"},
		schema.TextStartFrame{ID: "a"},
		schema.TextDeltaFrame{ID: "a", Delta: "hi"},
		schema.TextEndFrame{ID: "a"},
		schema.ReasoningStartFrame{ID: "r"},
		schema.ReasoningDeltaFrame{ID: "r", Delta: "hmm"},
		schema.ReasoningEndFrame{ID: "r"},
		schema.ToolInputDeltaFrame{ToolCallID: "c", InputTextDelta: `{"q"`},
		schema.ToolOutputErrorFrame{ToolCallID: "c", ErrorText: "no"},
		schema.ToolApprovalRequestFrame{ApprovalID: "x", ToolCallID: "c"},
		schema.ErrorFrame{ErrorText: "boom"},
		schema.FinishFrame{},
		schema.Done,
	}
	for _, frame := range frames {
		data, err := schema.MarshalFrame(frame)
		if !assert.NoError(err) {
			continue
		}
		decoded, err := schema.DecodeFrame(data)
		assert.NoError(err, string(data))
		assert.Equal(frame, decoded)
	}
}

func Test_frame_005(t *testing.T) {
	assert := assert.New(t)

	frame, err := schema.DecodeFrame([]byte(`{"type":"tool-input-available","toolCallId":"c","toolName":"search","input":{"q":"x"}}`))
	assert.NoError(err)
	if assert.IsType(schema.ToolInputAvailableFrame{}, frame) {
		assert.Equal(map[string]any{"q": "x"}, frame.(schema.ToolInputAvailableFrame).Input)
	}

	_, err = schema.DecodeFrame([]byte(`{"type":"bogus"}`))
	assert.Error(err)

	_, err = schema.DecodeFrame([]byte(`not json`))
	assert.Error(err)
}
