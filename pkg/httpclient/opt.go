package httpclient

import (
	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ChatOpt is a functional option for the Chat method.
type ChatOpt func(*chatOptions)

// FrameFn receives each frame of the stream as it arrives. Returning an
// error stops the stream.
type FrameFn func(schema.Frame) error

type chatOptions struct {
	frameFn FrameFn
	path    []string
	message *schema.UIMessage
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithFrameFn sets a callback which receives each frame as it arrives.
func WithFrameFn(fn FrameFn) ChatOpt {
	return func(o *chatOptions) {
		o.frameFn = fn
	}
}

// WithPath posts to a different path under the endpoint. The default is
// "chat".
func WithPath(path ...string) ChatOpt {
	return func(o *chatOptions) {
		if len(path) > 0 {
			o.path = path
		}
	}
}

// WithMessage folds the frames into an existing assistant message, which is
// continued when an interrupted turn is resumed.
func WithMessage(message *schema.UIMessage) ChatOpt {
	return func(o *chatOptions) {
		o.message = message
	}
}
