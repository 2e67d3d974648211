package httpclient

import (
	"context"
	"errors"
	"io"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	client "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Chat posts a chat request and reads the UI message stream until the done
// sentinel. It returns the assistant message assembled from the frames, or
// the continued message when one is set with WithMessage. An error frame in
// the stream is returned as an error.
func (c *Client) Chat(ctx context.Context, req schema.ChatRequest, opts ...ChatOpt) (*schema.UIMessage, error) {
	o := chatOptions{path: []string{"chat"}}
	for _, opt := range opts {
		opt(&o)
	}
	if req.ID == "" {
		return nil, agentstream.ErrBadParameter.With("chat id is required")
	}

	payload, err := client.NewJSONRequest(req)
	if err != nil {
		return nil, err
	}

	message := o.message
	if message == nil {
		message = new(schema.UIMessage)
	}
	var streamErr error
	callback := func(evt client.TextStreamEvent) error {
		data := strings.TrimSpace(evt.Data)
		if data == "" {
			return nil
		}
		frame, err := schema.DecodeFrame([]byte(data))
		if err != nil {
			return err
		}
		if o.frameFn != nil {
			if err := o.frameFn(frame); err != nil {
				return err
			}
		}
		switch f := frame.(type) {
		case schema.DoneFrame:
			return io.EOF
		case schema.ErrorFrame:
			streamErr = errors.Join(streamErr, agentstream.ErrStream.With(f.ErrorText))
		default:
			message.Apply(frame)
		}
		return nil
	}

	// Pass a non-nil out so the client proceeds to decode the SSE stream
	var discard struct{}
	if err := c.DoWithContext(ctx, payload, &discard,
		client.OptPath(pathArgs(o.path)...),
		client.OptReqHeader("Accept", "text/event-stream"),
		client.OptTextStreamCallback(callback),
		client.OptNoTimeout(),
	); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if streamErr != nil {
		return nil, streamErr
	}
	return message, nil
}

// pathArgs converts path segments to the variadic form client.OptPath takes
func pathArgs(path []string) []any {
	args := make([]any, len(path))
	for i, p := range path {
		args[i] = p
	}
	return args
}
