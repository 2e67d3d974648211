package router

import (
	"log/slog"
	"strings"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for configuring a router
type Opt func(*Router) error

// MetadataFunc returns optional UI metadata for a tool, or nil
type MetadataFunc func(tool string) map[string]string

// FinishFunc is called when a tool call reports its output, with the name
// and arguments the call was tracked with. The arguments are nil when
// unknown.
type FinishFunc func(id, name string, args map[string]any)

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithModelNode sets the name of the graph node which runs the model. State
// updates from this node register tool call signatures. The default is
// "model".
func WithModelNode(name string) Opt {
	return func(r *Router) error {
		if name = strings.TrimSpace(name); name == "" {
			return agentstream.ErrBadParameter.With("model node name is required")
		}
		r.modelNode = name
		return nil
	}
}

// WithGraphNode sets the name of the root graph, which reports that an
// interrupted turn was resumed. The default is "LangGraph".
func WithGraphNode(name string) Opt {
	return func(r *Router) error {
		if name = strings.TrimSpace(name); name == "" {
			return agentstream.ErrBadParameter.With("graph node name is required")
		}
		r.graphNode = name
		return nil
	}
}

// WithFinished sets the function called as each tool call reports output
func WithFinished(fn FinishFunc) Opt {
	return func(r *Router) error {
		r.finished = fn
		return nil
	}
}

// WithToolMetadata sets the lookup for per-tool UI metadata attached to
// tool-input-start and tool-input-available frames
func WithToolMetadata(fn MetadataFunc) Opt {
	return func(r *Router) error {
		r.metadata = fn
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Opt {
	return func(r *Router) error {
		if log == nil {
			return agentstream.ErrBadParameter.With("logger is required")
		}
		r.log = log
		return nil
	}
}
