package tracker

import (
	"log/slog"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for configuring a tracker
type Opt func(*Tracker) error

// CallOpt is a functional option for a call started with StartCall
type CallOpt func(*Call)

///////////////////////////////////////////////////////////////////////////////
// TRACKER OPTIONS

// WithPreApproved adds tool call ids whose approval decision was recorded in
// an earlier turn. Both approved and rejected calls belong here.
func WithPreApproved(ids ...string) Opt {
	return func(t *Tracker) error {
		for _, id := range ids {
			if id = strings.TrimSpace(id); id == "" {
				return agentstream.ErrBadParameter.With("empty pre-approved tool call id")
			}
			t.preApproved[id] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets the logger for call lifecycle and correlation misses
func WithLogger(log *slog.Logger) Opt {
	return func(t *Tracker) error {
		if log == nil {
			return agentstream.ErrBadParameter.With("logger is required")
		}
		t.log = log
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// CALL OPTIONS

// WithArgs sets the initial argument text of the call
func WithArgs(args string) CallOpt {
	return func(c *Call) {
		c.Args.Reset()
		c.Args.WriteString(args)
	}
}

// WithApproved marks the call as decided in an earlier turn
func WithApproved(v bool) CallOpt {
	return func(c *Call) {
		c.AlreadyApproved = v
	}
}

// WithIndex sets the position of the call within the model message
func WithIndex(i int) CallOpt {
	return func(c *Call) {
		c.Index = i
	}
}
