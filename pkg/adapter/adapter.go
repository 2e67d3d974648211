// Package adapter turns the raw events of one agent turn into an AI SDK UI
// message stream. An adapter is created per turn, and is not safe for
// concurrent use.
package adapter

import (
	"context"
	"io"
	"iter"
	"log/slog"

	// Packages
	uuid "github.com/google/uuid"
	agentstream "github.com/mutablelogic/go-agentstream"
	content "github.com/mutablelogic/go-agentstream/pkg/content"
	router "github.com/mutablelogic/go-agentstream/pkg/router"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	tracker "github.com/mutablelogic/go-agentstream/pkg/tracker"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
	noop "go.opentelemetry.io/otel/trace/noop"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// State is the lifecycle state of an adapter.
type State int

// Adapter is the projection core shared by the wire and in-process
// projections.
type Adapter struct {
	messageID  string
	rejected   []schema.RejectedToolCall
	approved   []string
	routerOpts []router.Opt
	log        *slog.Logger
	tracer     trace.Tracer
	finished   router.FinishFunc // set by the in-process projection

	content *content.Manager
	router  *router.Router
	state   State
	pending bool // approval requests were emitted
	emitted int  // frames yielded
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	NotStarted State = iota
	Streaming
	Finishing
	ErrorTerminated
	Done
)

const (
	// Reported for a rejected call which has no reason
	DefaultRejectReason = "Tool execution was rejected by user"

	streamErrorPrefix = "Stream processing error: "
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an adapter for one turn.
func New(opts ...Opt) (*Adapter, error) {
	a := &Adapter{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.messageID == "" {
		a.messageID = uuid.NewString()
	}

	// Both approved and rejected calls were decided in an earlier turn
	preApproved := make([]string, 0, len(a.approved)+len(a.rejected))
	preApproved = append(preApproved, a.approved...)
	for _, call := range a.rejected {
		preApproved = append(preApproved, call.ToolCallID)
	}

	// Each adapter owns its content manager and tool tracker
	tools, err := tracker.New(tracker.WithPreApproved(preApproved...), tracker.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.content = content.New()
	a.router, err = router.New(a.content, tools, append([]router.Opt{
		router.WithLogger(a.log),
		router.WithFinished(a.callFinished),
	}, a.routerOpts...)...)
	if err != nil {
		return nil, err
	}

	return a, nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Streaming:
		return "streaming"
	case Finishing:
		return "finishing"
	case ErrorTerminated:
		return "error-terminated"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// MessageID returns the id sent in the start frame.
func (a *Adapter) MessageID() string {
	return a.messageID
}

// State returns the lifecycle state.
func (a *Adapter) State() State {
	return a.state
}

// PendingApproval returns true if approval requests were emitted, so the
// turn ends without a finish frame.
func (a *Adapter) PendingApproval() bool {
	return a.pending
}

// Resuming returns true if the engine reported that it resumed an
// interrupted turn.
func (a *Adapter) Resuming() bool {
	return a.router.Resuming()
}

// Start appends the start frame, followed by one tool-output-error frame
// for each call rejected in the previous turn.
func (a *Adapter) Start(dst []schema.Frame) ([]schema.Frame, error) {
	if a.state != NotStarted {
		return dst, agentstream.ErrAlreadyStarted.With(a.messageID)
	}
	a.state = Streaming
	dst = append(dst, schema.StartFrame{MessageID: a.messageID})
	for _, call := range a.rejected {
		reason := call.Reason
		if reason == "" {
			reason = DefaultRejectReason
		}
		dst = append(dst, schema.ToolOutputErrorFrame{ToolCallID: call.ToolCallID, ErrorText: reason})
	}
	return dst, nil
}

// Finish appends the end of the stream. When no approval is pending, the
// open content channel is closed and a finish frame appended. The terminal
// sentinel is always appended; calling Finish again appends only the
// sentinel.
func (a *Adapter) Finish(dst []schema.Frame) []schema.Frame {
	if a.state == Done {
		return append(dst, schema.Done)
	}
	if a.state != ErrorTerminated {
		a.state = Finishing
	}
	if !a.pending {
		dst = a.content.CloseAll(dst)
		dst = append(dst, schema.FinishFrame{})
	}
	a.state = Done
	return append(dst, schema.Done)
}

// Frames returns the frames for a turn. Events are pulled from the source
// one at a time, and each event is fully translated before the next is
// pulled. An error from the source or from translation ends the stream with
// a single error frame. Iteration stops pulling when the consumer stops or
// the context is cancelled. An adapter streams once: iterating again yields
// nothing.
func (a *Adapter) Frames(ctx context.Context, source iter.Seq2[schema.RawEvent, error]) iter.Seq[schema.Frame] {
	return func(yield func(schema.Frame) bool) {
		if a.state != NotStarted {
			a.log.Warn("stream already started", "message_id", a.messageID)
			return
		}

		var err error
		ctx, endSpan := otel.StartSpan(a.tracer, ctx, "Stream",
			attribute.String("message_id", a.messageID),
		)
		defer func() {
			trace.SpanFromContext(ctx).SetAttributes(
				attribute.Int("frames", a.emitted),
				attribute.String("state", a.state.String()),
				attribute.Bool("pending_approval", a.pending),
			)
			endSpan(err)
		}()

		emit := func(frames []schema.Frame) bool {
			for _, frame := range frames {
				a.emitted++
				if !yield(frame) {
					return false
				}
			}
			return true
		}

		frames, err := a.Start(nil)
		if err != nil || !emit(frames) {
			return
		}

		for ev, srcErr := range source {
			if err = ctx.Err(); err != nil {
				return
			}
			if srcErr != nil {
				err = srcErr
				emit(a.fail(nil, srcErr))
				return
			}

			frames, outcome, routeErr := a.route(ev)
			if routeErr != nil {
				err = routeErr
				emit(a.fail(frames, routeErr))
				return
			}
			if !emit(frames) {
				return
			}

			switch outcome {
			case router.AwaitApproval:
				a.pending = true
			case router.Terminate:
				a.state = ErrorTerminated
				emit(a.Finish(nil))
				return
			}
		}
		if err = ctx.Err(); err != nil {
			return
		}
		emit(a.Finish(nil))
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// route translates one event, recovering from a panic in a handler
func (a *Adapter) route(ev schema.RawEvent) (frames []schema.Frame, outcome router.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			frames, outcome = nil, router.Terminate
			err = agentstream.ErrInternalServerError.Withf("panic: %v", r)
		}
	}()
	return a.router.Route(ev)
}

func (a *Adapter) callFinished(id, name string, args map[string]any) {
	if a.finished != nil {
		a.finished(id, name, args)
	}
}

// fail appends a single error frame and the finish sequence
func (a *Adapter) fail(dst []schema.Frame, err error) []schema.Frame {
	a.log.Error("stream processing error", "message_id", a.messageID, "error", err)
	a.state = ErrorTerminated
	dst = append(dst, schema.ErrorFrame{ErrorText: streamErrorPrefix + err.Error()})
	return a.Finish(dst)
}
