package adapter

import (
	"log/slog"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	router "github.com/mutablelogic/go-agentstream/pkg/router"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for configuring an adapter
type Opt func(*Adapter) error

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithMessageID sets the id of the assistant message, which is sent in the
// start frame. When resuming an interrupted turn this is the id of the
// message being continued. An empty id is ignored and a new id is used.
func WithMessageID(id string) Opt {
	return func(a *Adapter) error {
		if id = strings.TrimSpace(id); id != "" {
			a.messageID = id
		}
		return nil
	}
}

// WithRejected sets the tool calls the user rejected in the previous turn.
// Each is reported with a tool-output-error frame when the stream starts.
func WithRejected(calls ...schema.RejectedToolCall) Opt {
	return func(a *Adapter) error {
		for _, call := range calls {
			if call.ToolCallID == "" {
				return agentstream.ErrBadParameter.With("rejected tool call without id")
			}
			a.rejected = append(a.rejected, call)
		}
		return nil
	}
}

// WithApproved sets the tool call ids the user approved in the previous turn
func WithApproved(ids ...string) Opt {
	return func(a *Adapter) error {
		for _, id := range ids {
			if id == "" {
				return agentstream.ErrBadParameter.With("approved tool call without id")
			}
			a.approved = append(a.approved, id)
		}
		return nil
	}
}

// WithResume applies the approval state of a resumed turn. A nil context
// is ignored.
func WithResume(resume *schema.ResumeContext) Opt {
	return func(a *Adapter) error {
		if resume == nil {
			return nil
		}
		for _, opt := range []Opt{
			WithMessageID(resume.MessageID),
			WithRejected(resume.Rejected...),
			WithApproved(resume.Approved...),
		} {
			if err := opt(a); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithToolMetadata sets the lookup for per-tool UI metadata
func WithToolMetadata(fn router.MetadataFunc) Opt {
	return func(a *Adapter) error {
		a.routerOpts = append(a.routerOpts, router.WithToolMetadata(fn))
		return nil
	}
}

// WithModelNode sets the name of the graph node which runs the model
func WithModelNode(name string) Opt {
	return func(a *Adapter) error {
		a.routerOpts = append(a.routerOpts, router.WithModelNode(name))
		return nil
	}
}

// WithGraphNode sets the name of the root graph, whose chain start reports a
// resumed turn
func WithGraphNode(name string) Opt {
	return func(a *Adapter) error {
		a.routerOpts = append(a.routerOpts, router.WithGraphNode(name))
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Opt {
	return func(a *Adapter) error {
		if log == nil {
			return agentstream.ErrBadParameter.With("logger is required")
		}
		a.log = log
		return nil
	}
}

// WithTracer sets the tracer used for the stream span
func WithTracer(tracer trace.Tracer) Opt {
	return func(a *Adapter) error {
		if tracer == nil {
			return agentstream.ErrBadParameter.With("tracer is required")
		}
		a.tracer = tracer
		return nil
	}
}
