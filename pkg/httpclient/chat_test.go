package httpclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	httpclient "github.com/mutablelogic/go-agentstream/pkg/httpclient"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	sse "github.com/mutablelogic/go-agentstream/pkg/sse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

// newChatTestServer replies to each chat request with a fixed stream of
// frames, chosen by the chat id
func newChatTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	streams := map[string][]schema.Frame{
		"ok": {
			schema.StartFrame{MessageID: "m1"},
			schema.TextStartFrame{ID: "t"},
			schema.TextDeltaFrame{ID: "t", Delta: "echo"},
			schema.TextEndFrame{ID: "t"},
			schema.ToolInputStartFrame{ToolCallID: "c1", ToolName: "send_email"},
			schema.ToolInputAvailableFrame{ToolCallID: "c1", ToolName: "send_email", Input: map[string]any{"to": "a@b.c"}},
			schema.ToolApprovalRequestFrame{ApprovalID: "a1", ToolCallID: "c1"},
			schema.Done,
		},
		"resume": {
			schema.StartFrame{MessageID: "m1"},
			schema.ToolOutputAvailableFrame{ToolCallID: "c1", Output: "sent"},
			schema.TextStartFrame{ID: "t2"},
			schema.TextDeltaFrame{ID: "t2", Delta: "done"},
			schema.TextEndFrame{ID: "t2"},
			schema.FinishFrame{},
			schema.Done,
		},
		"error": {
			schema.StartFrame{MessageID: "m2"},
			schema.ErrorFrame{ErrorText: "boom"},
			schema.FinishFrame{},
			schema.Done,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req schema.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		frames, exists := streams[req.ID]
		if !exists {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		sse.SetHeaders(w)
		w.WriteHeader(http.StatusOK)
		out := sse.NewWriter(w)
		for _, frame := range frames {
			if err := out.Write(frame); err != nil {
				return
			}
		}
	})
	return httptest.NewServer(mux)
}

func Test_chat_001(t *testing.T) {
	assert := assert.New(t)
	srv := newChatTestServer(t)
	defer srv.Close()

	c, err := httpclient.New(srv.URL + "/api")
	require.NoError(t, err)

	var frames []schema.FrameType
	message, err := c.Chat(context.Background(), schema.ChatRequest{ID: "ok"}, httpclient.WithFrameFn(func(f schema.Frame) error {
		frames = append(frames, f.Type())
		return nil
	}))
	require.NoError(t, err)
	assert.Len(frames, 8)
	assert.Equal(schema.FrameDone, frames[len(frames)-1])

	assert.Equal("m1", message.ID)
	assert.Equal("echo", message.Text())
	pending := message.PendingApprovals()
	if assert.Len(pending, 1) {
		assert.Equal("c1", pending[0].ToolCallID)
		assert.Equal("send_email", pending[0].Name())
	}
}

func Test_chat_002(t *testing.T) {
	assert := assert.New(t)
	srv := newChatTestServer(t)
	defer srv.Close()

	c, err := httpclient.New(srv.URL + "/api")
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), schema.ChatRequest{ID: "error"})
	assert.ErrorIs(err, agentstream.ErrStream)
	assert.ErrorContains(err, "boom")

	_, err = c.Chat(context.Background(), schema.ChatRequest{ID: "missing"})
	assert.Error(err)

	_, err = c.Chat(context.Background(), schema.ChatRequest{})
	assert.ErrorIs(err, agentstream.ErrBadParameter)
}

func Test_chat_003(t *testing.T) {
	assert := assert.New(t)
	srv := newChatTestServer(t)
	defer srv.Close()

	c, err := httpclient.New(srv.URL + "/api")
	require.NoError(t, err)

	// A resumed turn continues the interrupted message
	message := &schema.UIMessage{ID: "m1", Role: schema.RoleAssistant, Parts: []schema.UIPart{{
		Type:       "tool-send_email",
		ToolCallID: "c1",
		State:      schema.StateResponded,
		Approval:   &schema.Approval{ID: "a1", Approved: true},
	}}}
	result, err := c.Chat(context.Background(), schema.ChatRequest{
		ID:        "resume",
		MessageID: "m1",
		Messages:  []schema.UIMessage{*message},
	}, httpclient.WithMessage(message))
	require.NoError(t, err)
	assert.Same(message, result)
	if assert.Len(message.Parts, 2) {
		assert.Equal(schema.StateOutputAvail, message.Parts[0].State)
		assert.Equal("sent", message.Parts[0].Output)
	}
	assert.Equal("done", message.Text())
	assert.Empty(message.PendingApprovals())
}
