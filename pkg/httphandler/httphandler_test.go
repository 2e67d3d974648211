package httphandler_test

import (
	"context"
	"iter"
	"net/http"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	httphandler "github.com/mutablelogic/go-agentstream/pkg/httphandler"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// MOCK ENGINE

// mockEngine replays fixed events for each thread, and records the last
// request it received
type mockEngine struct {
	threads map[string][]schema.RawEvent
	fail    error // returned after the events, when set
	last    schema.TurnRequest
}

var _ agentstream.Engine = (*mockEngine)(nil)

func (e *mockEngine) Stream(_ context.Context, req schema.TurnRequest) (iter.Seq2[schema.RawEvent, error], error) {
	e.last = req
	events, exists := e.threads[req.ThreadID]
	if !exists {
		return nil, agentstream.ErrNotFound.Withf("thread %q", req.ThreadID)
	}
	return func(yield func(schema.RawEvent, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		if e.fail != nil {
			yield(nil, e.fail)
		}
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

func text(s string) *schema.StreamChunk {
	return &schema.StreamChunk{OriginName: "model", Chunk: schema.MessageChunk{Content: schema.NewText(s)}}
}

func interrupt(name string, args map[string]any) *schema.ChainStream {
	return &schema.ChainStream{OriginName: "approval", Chunk: &schema.ChainChunk{
		Interrupts: []schema.Interrupt{{ActionRequests: []schema.ActionRequest{{Name: name, Args: args}}}},
	}}
}

func serveMux(engine agentstream.Engine) *http.ServeMux {
	mux := http.NewServeMux()
	path, handler, _ := httphandler.ChatHandler(engine)
	mux.HandleFunc(path, handler)
	path, handler, _ = httphandler.TurnHandler(engine)
	mux.HandleFunc(path, handler)
	return mux
}
