// Package agentstream translates the execution trace of an agent turn into a
// client-safe stream of protocol frames.
//
// The execution engine that produces raw events and the transport that carries
// frames are collaborators, described here only by the [Engine] and [Poster]
// interfaces.
package agentstream

import (
	"context"
	"iter"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Engine runs one agent turn and returns its raw events in order. The
// returned sequence is pulled by a single consumer; stopping iteration
// abandons the turn and releases any resources held by the engine.
type Engine interface {
	Stream(ctx context.Context, req schema.TurnRequest) (iter.Seq2[schema.RawEvent, error], error)
}

// Poster receives typed events from the in-process projection, for example
// to post them into a chat conversation.
type Poster interface {
	Post(ctx context.Context, event schema.Event) error
}

///////////////////////////////////////////////////////////////////////////////
// TYPES

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(ctx context.Context, event schema.Event) error

var _ Poster = PosterFunc(nil)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (fn PosterFunc) Post(ctx context.Context, event schema.Event) error {
	return fn(ctx, event)
}
