// Package engine implements execution engines which produce the raw events
// of an agent turn: recorded traces replayed from disk, and remote engines
// which stream events over HTTP.
package engine

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Replay is an engine which replays recorded traces from a directory. The
// trace for a new turn is <thread>.jsonl, and for a resumed turn
// <thread>.resume.jsonl.
type Replay struct {
	dir   string
	delay time.Duration
}

// ReplayOpt is a functional option for a replay engine
type ReplayOpt func(*Replay) error

var _ agentstream.Engine = (*Replay)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	traceExt       = ".jsonl"
	resumeTraceExt = ".resume.jsonl"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewReplay returns a replay engine for the traces in a directory.
func NewReplay(dir string, opts ...ReplayOpt) (*Replay, error) {
	if info, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, agentstream.ErrBadParameter.Withf("not a directory: %q", dir)
	}
	r := &Replay{dir: dir}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithDelay pauses between events, to simulate a model producing tokens
func WithDelay(d time.Duration) ReplayOpt {
	return func(r *Replay) error {
		if d < 0 {
			return agentstream.ErrBadParameter.Withf("negative delay %v", d)
		}
		r.delay = d
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stream returns the events of the recorded trace for the request.
func (r *Replay) Stream(ctx context.Context, req schema.TurnRequest) (iter.Seq2[schema.RawEvent, error], error) {
	path, err := r.Path(req)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, agentstream.ErrNotFound.Withf("no trace for thread %q", req.ThreadID)
	} else if err != nil {
		return nil, err
	}
	return r.paced(ctx, OpenTrace(path)), nil
}

// Path returns the trace file for a request.
func (r *Replay) Path(req schema.TurnRequest) (string, error) {
	thread := strings.TrimSpace(req.ThreadID)
	if thread == "" || thread != filepath.Base(thread) || strings.HasPrefix(thread, ".") {
		return "", agentstream.ErrBadParameter.Withf("invalid thread id %q", req.ThreadID)
	}
	if req.IsResume() {
		return filepath.Join(r.dir, thread+resumeTraceExt), nil
	}
	return filepath.Join(r.dir, thread+traceExt), nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// paced delays each event after the first, ending early when the context
// is cancelled
func (r *Replay) paced(ctx context.Context, source iter.Seq2[schema.RawEvent, error]) iter.Seq2[schema.RawEvent, error] {
	if r.delay == 0 {
		return source
	}
	return func(yield func(schema.RawEvent, error) bool) {
		first := true
		for ev, err := range source {
			if !first && err == nil {
				timer := time.NewTimer(r.delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					yield(nil, ctx.Err())
					return
				case <-timer.C:
				}
			}
			first = false
			if !yield(ev, err) {
				return
			}
		}
	}
}
