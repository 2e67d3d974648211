package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// envelope is the serialized form of a raw event, as written to trace files
// and streamed by remote engines
type envelope struct {
	Kind   string          `json:"kind"`
	Origin string          `json:"origin_name,omitempty"`
	RunID  string          `json:"run_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type streamChunkData struct {
	Chunk MessageChunk `json:"chunk"`
}

type turnEndData struct {
	Output *AIMessage `json:"output"`
}

type toolStartData struct {
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Input      map[string]any `json:"input"`
}

type toolEndData struct {
	Output json.RawMessage `json:"output"`
}

type chainStartData struct {
	Input struct {
		Resume bool `json:"resume,omitempty"`
	} `json:"input"`
}

type chainStreamData struct {
	Chunk *chainChunkJSON `json:"chunk"`
}

type chainChunkJSON struct {
	Messages   []AIMessage `json:"messages,omitempty"`
	Interrupts []struct {
		Value struct {
			ActionRequests []ActionRequest `json:"action_requests"`
		} `json:"value"`
	} `json:"__interrupt__,omitempty"`
}

type errorData struct {
	Error json.RawMessage `json:"error"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// DecodeRawEvent decodes a raw event from its JSON envelope
// {"kind":..., "origin_name":..., "run_id":..., "data":{...}}.
func DecodeRawEvent(data []byte) (RawEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("raw event: %w", err)
	}
	kind, ok := ParseEventKind(env.Kind)
	if !ok {
		return nil, fmt.Errorf("raw event: unknown kind %q", env.Kind)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		env.Data = []byte("{}")
	}

	switch kind {
	case KindStreamChunk:
		var v streamChunkData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &StreamChunk{OriginName: env.Origin, RunID: env.RunID, Chunk: v.Chunk}, nil
	case KindTurnEnd:
		var v turnEndData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &TurnEnd{OriginName: env.Origin, RunID: env.RunID, Output: v.Output}, nil
	case KindToolStart:
		var v toolStartData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &ToolStart{OriginName: env.Origin, RunID: env.RunID, CallID: v.ToolCallID, Input: v.Input}, nil
	case KindToolEnd:
		var v toolEndData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		output, err := decodeToolOutput(v.Output)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &ToolEnd{OriginName: env.Origin, RunID: env.RunID, Output: output}, nil
	case KindChainStart:
		var v chainStartData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &ChainStart{OriginName: env.Origin, RunID: env.RunID, Resume: v.Input.Resume}, nil
	case KindChainStream:
		var v chainStreamData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &ChainStream{OriginName: env.Origin, RunID: env.RunID, Chunk: v.Chunk.chunk()}, nil
	case KindError:
		var v errorData
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return nil, fmt.Errorf("%v: %w", kind, err)
		}
		return &ErrorEvent{OriginName: env.Origin, Message: errorMessage(v.Error)}, nil
	}

	// Unreachable while ParseEventKind and the switch agree
	return nil, fmt.Errorf("raw event: unhandled kind %v", kind)
}

// EncodeRawEvent encodes a raw event into its JSON envelope. It is the
// inverse of DecodeRawEvent.
func EncodeRawEvent(ev RawEvent) ([]byte, error) {
	env := envelope{Kind: ev.Kind().String(), Origin: ev.Origin()}
	var data any
	switch ev := ev.(type) {
	case *StreamChunk:
		env.RunID, data = ev.RunID, streamChunkData{Chunk: ev.Chunk}
	case *TurnEnd:
		env.RunID, data = ev.RunID, turnEndData{Output: ev.Output}
	case *ToolStart:
		env.RunID, data = ev.RunID, toolStartData{ToolCallID: ev.CallID, Input: ev.Input}
	case *ToolEnd:
		env.RunID, data = ev.RunID, map[string]any{"output": ev.Output}
	case *ChainStart:
		env.RunID = ev.RunID
		data = map[string]any{"input": map[string]any{"resume": ev.Resume}}
	case *ChainStream:
		env.RunID, data = ev.RunID, map[string]any{"chunk": chainChunkToJSON(ev.Chunk)}
	case *ErrorEvent:
		data = map[string]any{"error": ev.Message}
	default:
		return nil, fmt.Errorf("raw event: unsupported type %T", ev)
	}
	if raw, err := json.Marshal(data); err != nil {
		return nil, err
	} else {
		env.Data = raw
	}
	return json.Marshal(env)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *chainChunkJSON) chunk() *ChainChunk {
	if c == nil {
		return nil
	}
	chunk := &ChainChunk{Messages: c.Messages}
	for _, interrupt := range c.Interrupts {
		chunk.Interrupts = append(chunk.Interrupts, Interrupt{ActionRequests: interrupt.Value.ActionRequests})
	}
	return chunk
}

func chainChunkToJSON(c *ChainChunk) *chainChunkJSON {
	if c == nil {
		return nil
	}
	v := &chainChunkJSON{Messages: c.Messages}
	for _, interrupt := range c.Interrupts {
		var item struct {
			Value struct {
				ActionRequests []ActionRequest `json:"action_requests"`
			} `json:"value"`
		}
		item.Value.ActionRequests = interrupt.ActionRequests
		v.Interrupts = append(v.Interrupts, item)
	}
	return v
}

// decodeToolOutput accepts either a tool message object (one which has a
// tool_call_id) or any other value, which becomes the message content
func decodeToolOutput(data json.RawMessage) (*ToolMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		if _, ok := probe["tool_call_id"]; ok {
			var msg ToolMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				return nil, err
			}
			return &msg, nil
		}
	}
	var content any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &ToolMessage{Content: content}, nil
}

// errorMessage returns the message from a string, an object with a message
// field, or the raw JSON of anything else
func errorMessage(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(data)
}
