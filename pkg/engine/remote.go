package engine

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Remote is an engine in another process. A turn request is posted as JSON
// and the raw events are read back as server-sent events, one JSON envelope
// per event.
type Remote struct {
	*client.Client
	path []string
}

var _ agentstream.Engine = (*Remote)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	defaultTurnPath = "turn"
	doneSentinel    = "[DONE]"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewRemote returns an engine which posts turns to url. The turn request is
// posted to the path "turn" under the endpoint unless another path is given.
func NewRemote(url string, path []string, opts ...client.ClientOpt) (*Remote, error) {
	r := new(Remote)
	if client, err := client.New(append(opts, client.OptEndpoint(url))...); err != nil {
		return nil, err
	} else {
		r.Client = client
	}
	if len(path) == 0 {
		r.path = []string{defaultTurnPath}
	} else {
		r.path = path
	}
	return r, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stream posts the turn and returns its events. The request is made when
// iteration starts. Events are handed over one at a time, so the remote
// stream is not read ahead of the consumer. Stopping iteration cancels the
// request.
func (r *Remote) Stream(ctx context.Context, req schema.TurnRequest) (iter.Seq2[schema.RawEvent, error], error) {
	if req.ThreadID == "" {
		return nil, agentstream.ErrBadParameter.With("thread id is required")
	}
	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, err
	}

	return func(yield func(schema.RawEvent, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Unbuffered, so the callback blocks until the consumer pulls
		events := make(chan schema.RawEvent)
		result := make(chan error, 1)
		go func() {
			defer close(events)
			result <- r.do(ctx, payload, func(ev schema.RawEvent) error {
				select {
				case events <- ev:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		for ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		if err := <-result; err != nil && !errors.Is(err, io.EOF) {
			yield(nil, agentstream.ErrStream.With(err))
		}
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (r *Remote) do(ctx context.Context, payload client.Payload, fn func(schema.RawEvent) error) error {
	callback := func(evt client.TextStreamEvent) error {
		data := strings.TrimSpace(evt.Data)
		if data == "" {
			return nil
		} else if data == doneSentinel {
			return io.EOF
		}
		ev, err := schema.DecodeRawEvent([]byte(data))
		if err != nil {
			return err
		}
		return fn(ev)
	}

	// Pass a non-nil out so the client decodes the event stream
	var discard struct{}
	return r.DoWithContext(ctx, payload, &discard,
		client.OptPath(pathArgs(r.path)...),
		client.OptReqHeader("Accept", "text/event-stream"),
		client.OptTextStreamCallback(callback),
		client.OptNoTimeout(),
	)
}

// pathArgs converts path segments to the variadic form client.OptPath takes
func pathArgs(path []string) []any {
	args := make([]any, len(path))
	for i, p := range path {
		args[i] = p
	}
	return args
}
