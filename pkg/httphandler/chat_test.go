package httphandler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	sse "github.com/mutablelogic/go-agentstream/pkg/sse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func postChat(t *testing.T, mux *http.ServeMux, req schema.ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(w, r)
	return w
}

func readFrames(t *testing.T, w *httptest.ResponseRecorder) []schema.Frame {
	t.Helper()
	var frames []schema.Frame
	for frame, err := range sse.Read(w.Body) {
		require.NoError(t, err)
		frames = append(frames, frame)
	}
	return frames
}

func Test_chat_001(t *testing.T) {
	assert := assert.New(t)
	engine := &mockEngine{threads: map[string][]schema.RawEvent{
		"t1": {text("Hello"), text(" world")},
	}}

	w := postChat(t, serveMux(engine), schema.ChatRequest{
		ID:       "t1",
		Messages: []schema.UIMessage{{ID: "u1", Role: schema.RoleUser, Parts: []schema.UIPart{{Type: schema.PartTypeText, Text: "hi"}}}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(sse.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(sse.StreamVersion, w.Header().Get(sse.StreamHeader))

	var message schema.UIMessage
	frames := readFrames(t, w)
	for _, frame := range frames {
		message.Apply(frame)
	}
	assert.Equal("Hello world", message.Text())
	assert.Equal(schema.FrameFinish, frames[len(frames)-2].Type())
	assert.Equal(schema.FrameDone, frames[len(frames)-1].Type())

	// The engine saw a new turn for the thread
	assert.Equal("t1", engine.last.ThreadID)
	assert.False(engine.last.IsResume())
	assert.Len(engine.last.Messages, 1)
}

func Test_chat_002(t *testing.T) {
	assert := assert.New(t)
	engine := &mockEngine{threads: map[string][]schema.RawEvent{
		"t1": {text("Sending"), interrupt("send_email", map[string]any{"to": "a@b.c"})},
	}}

	// An interrupted turn ends without a finish frame
	w := postChat(t, serveMux(engine), schema.ChatRequest{ID: "t1"})
	require.Equal(t, http.StatusOK, w.Code)
	frames := readFrames(t, w)

	var message schema.UIMessage
	for _, frame := range frames {
		message.Apply(frame)
		assert.NotEqual(schema.FrameFinish, frame.Type())
	}
	pending := message.PendingApprovals()
	require.Len(t, pending, 1)
	assert.Equal("send_email", pending[0].Name())

	// Reject the call and resume
	assert.True(message.Respond(pending[0].ToolCallID, false, "not now"))
	engine.threads["t1"] = []schema.RawEvent{text("Cancelled")}
	w = postChat(t, serveMux(engine), schema.ChatRequest{
		ID:       "t1",
		Messages: []schema.UIMessage{message},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(engine.last.IsResume())
	assert.Equal([]schema.Decision{schema.DecisionReject}, engine.last.Decisions)

	frames = readFrames(t, w)
	if assert.GreaterOrEqual(len(frames), 2) {
		assert.Equal(schema.StartFrame{MessageID: message.ID}, frames[0])
		assert.Equal(schema.ToolOutputErrorFrame{ToolCallID: pending[0].ToolCallID, ErrorText: "not now"}, frames[1])
	}
}

func Test_chat_003(t *testing.T) {
	assert := assert.New(t)
	engine := &mockEngine{threads: map[string][]schema.RawEvent{
		"t1": {text("partial")},
	}, fail: errors.New("connection reset")}

	// Errors after the stream started are reported in the stream
	w := postChat(t, serveMux(engine), schema.ChatRequest{ID: "t1"})
	require.Equal(t, http.StatusOK, w.Code)
	frames := readFrames(t, w)
	var errs []schema.ErrorFrame
	for _, frame := range frames {
		if f, ok := frame.(schema.ErrorFrame); ok {
			errs = append(errs, f)
		}
	}
	if assert.Len(errs, 1) {
		assert.Contains(errs[0].ErrorText, "connection reset")
	}
	assert.Equal(schema.FrameDone, frames[len(frames)-1].Type())
}

func Test_chat_004(t *testing.T) {
	assert := assert.New(t)
	mux := serveMux(&mockEngine{})

	// Errors before the stream started are HTTP errors
	w := postChat(t, mux, schema.ChatRequest{ID: "missing"})
	assert.Equal(http.StatusNotFound, w.Code)

	w = postChat(t, mux, schema.ChatRequest{})
	assert.Equal(http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(http.StatusMethodNotAllowed, w.Code)
}
