package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// FrameType is the "type" discriminator of an AI SDK UI message stream frame.
type FrameType string

// Frame is one output record of the UI message stream protocol. The set of
// variants is closed, and each variant is serialized as a JSON object with a
// "type" field, except Done which is the terminal sentinel.
type Frame interface {
	Type() FrameType
}

type StartFrame struct {
	MessageID string `json:"messageId"`
}

type TextStartFrame struct {
	ID string `json:"id"`
}

type TextDeltaFrame struct {
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

type TextEndFrame struct {
	ID string `json:"id"`
}

type ReasoningStartFrame struct {
	ID string `json:"id"`
}

type ReasoningDeltaFrame struct {
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

type ReasoningEndFrame struct {
	ID string `json:"id"`
}

type ToolInputStartFrame struct {
	ToolCallID string            `json:"toolCallId"`
	ToolName   string            `json:"toolName"`
	Metadata   map[string]string `json:"toolMetadata,omitempty"`
}

type ToolInputDeltaFrame struct {
	ToolCallID     string `json:"toolCallId"`
	InputTextDelta string `json:"inputTextDelta"`
}

type ToolInputAvailableFrame struct {
	ToolCallID string            `json:"toolCallId"`
	ToolName   string            `json:"toolName"`
	Input      any               `json:"input"`
	Metadata   map[string]string `json:"toolMetadata,omitempty"`
}

type ToolOutputAvailableFrame struct {
	ToolCallID string `json:"toolCallId"`
	Output     any    `json:"output"`
}

type ToolOutputErrorFrame struct {
	ToolCallID string `json:"toolCallId"`
	ErrorText  string `json:"errorText"`
}

type ToolApprovalRequestFrame struct {
	ApprovalID string `json:"approvalId"`
	ToolCallID string `json:"toolCallId"`
}

type ErrorFrame struct {
	ErrorText string `json:"errorText"`
}

type FinishFrame struct{}

// DoneFrame is the terminal sentinel of the stream.
type DoneFrame struct{}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	FrameStart               FrameType = "start"
	FrameTextStart           FrameType = "text-start"
	FrameTextDelta           FrameType = "text-delta"
	FrameTextEnd             FrameType = "text-end"
	FrameReasoningStart      FrameType = "reasoning-start"
	FrameReasoningDelta      FrameType = "reasoning-delta"
	FrameReasoningEnd        FrameType = "reasoning-end"
	FrameToolInputStart      FrameType = "tool-input-start"
	FrameToolInputDelta      FrameType = "tool-input-delta"
	FrameToolInputAvailable  FrameType = "tool-input-available"
	FrameToolOutputAvailable FrameType = "tool-output-available"
	FrameToolOutputError     FrameType = "tool-output-error"
	FrameToolApprovalRequest FrameType = "tool-approval-request"
	FrameError               FrameType = "error"
	FrameFinish              FrameType = "finish"
	FrameDone                FrameType = "[DONE]"
)

// Done is the terminal sentinel frame
var Done Frame = DoneFrame{}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (StartFrame) Type() FrameType               { return FrameStart }
func (TextStartFrame) Type() FrameType           { return FrameTextStart }
func (TextDeltaFrame) Type() FrameType           { return FrameTextDelta }
func (TextEndFrame) Type() FrameType             { return FrameTextEnd }
func (ReasoningStartFrame) Type() FrameType      { return FrameReasoningStart }
func (ReasoningDeltaFrame) Type() FrameType      { return FrameReasoningDelta }
func (ReasoningEndFrame) Type() FrameType        { return FrameReasoningEnd }
func (ToolInputStartFrame) Type() FrameType      { return FrameToolInputStart }
func (ToolInputDeltaFrame) Type() FrameType      { return FrameToolInputDelta }
func (ToolInputAvailableFrame) Type() FrameType  { return FrameToolInputAvailable }
func (ToolOutputAvailableFrame) Type() FrameType { return FrameToolOutputAvailable }
func (ToolOutputErrorFrame) Type() FrameType     { return FrameToolOutputError }
func (ToolApprovalRequestFrame) Type() FrameType { return FrameToolApprovalRequest }
func (ErrorFrame) Type() FrameType               { return FrameError }
func (FinishFrame) Type() FrameType              { return FrameFinish }
func (DoneFrame) Type() FrameType                { return FrameDone }

// MarshalFrame returns the JSON object for a frame, with the "type" field
// first, or the literal [DONE] for the terminal sentinel. HTML characters
// are not escaped.
func MarshalFrame(f Frame) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("frame: nil")
	}
	if f.Type() == FrameDone {
		return []byte(FrameDone), nil
	}

	body, err := encode(f)
	if err != nil {
		return nil, err
	}
	typ, err := encode(string(f.Type()))
	if err != nil {
		return nil, err
	}

	// Splice the type field in front of the variant fields
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeFrame is the inverse of MarshalFrame.
func DecodeFrame(data []byte) (Frame, error) {
	data = bytes.TrimSpace(data)
	if string(data) == string(FrameDone) {
		return Done, nil
	}

	var probe struct {
		Type FrameType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}

	var frame Frame
	var err error
	switch probe.Type {
	case FrameStart:
		frame, err = decodeAs[StartFrame](data)
	case FrameTextStart:
		frame, err = decodeAs[TextStartFrame](data)
	case FrameTextDelta:
		frame, err = decodeAs[TextDeltaFrame](data)
	case FrameTextEnd:
		frame, err = decodeAs[TextEndFrame](data)
	case FrameReasoningStart:
		frame, err = decodeAs[ReasoningStartFrame](data)
	case FrameReasoningDelta:
		frame, err = decodeAs[ReasoningDeltaFrame](data)
	case FrameReasoningEnd:
		frame, err = decodeAs[ReasoningEndFrame](data)
	case FrameToolInputStart:
		frame, err = decodeAs[ToolInputStartFrame](data)
	case FrameToolInputDelta:
		frame, err = decodeAs[ToolInputDeltaFrame](data)
	case FrameToolInputAvailable:
		frame, err = decodeAs[ToolInputAvailableFrame](data)
	case FrameToolOutputAvailable:
		frame, err = decodeAs[ToolOutputAvailableFrame](data)
	case FrameToolOutputError:
		frame, err = decodeAs[ToolOutputErrorFrame](data)
	case FrameToolApprovalRequest:
		frame, err = decodeAs[ToolApprovalRequestFrame](data)
	case FrameError:
		frame, err = decodeAs[ErrorFrame](data)
	case FrameFinish:
		frame = FinishFrame{}
	default:
		return nil, fmt.Errorf("frame: unknown type %q", probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", probe.Type, err)
	}
	return frame, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeAs[T Frame](data []byte) (Frame, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
