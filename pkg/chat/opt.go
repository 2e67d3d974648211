package chat

import (
	"log/slog"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for a driver
type Opt func(*Driver) error

// ThreadFunc maps a conversation to the engine thread which runs it
type ThreadFunc func(conversationID string) string

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithAdapterOpts sets options applied to the adapter of every turn
func WithAdapterOpts(opts ...adapter.Opt) Opt {
	return func(d *Driver) error {
		d.adapterOpts = append(d.adapterOpts, opts...)
		return nil
	}
}

// WithThread sets the mapping from conversation to thread. By default the
// conversation id is the thread id.
func WithThread(fn ThreadFunc) Opt {
	return func(d *Driver) error {
		if fn == nil {
			return agentstream.ErrBadParameter.With("thread function is required")
		}
		d.thread = fn
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Opt {
	return func(d *Driver) error {
		if log == nil {
			return agentstream.ErrBadParameter.With("logger is required")
		}
		d.log = log
		return nil
	}
}
