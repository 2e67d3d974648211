// Package router translates raw execution-engine events into UI message
// stream frames, one event at a time.
package router

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	// Packages
	uuid "github.com/google/uuid"
	agentstream "github.com/mutablelogic/go-agentstream"
	content "github.com/mutablelogic/go-agentstream/pkg/content"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	tracker "github.com/mutablelogic/go-agentstream/pkg/tracker"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Outcome tells the caller how to proceed after an event has been routed.
type Outcome int

// Router holds the per-stream state needed to translate events. It is not
// safe for concurrent use, and must not be shared between streams.
type Router struct {
	content   *content.Manager
	tools     *tracker.Tracker
	log       *slog.Logger
	modelNode string
	graphNode string
	metadata  MetadataFunc
	finished  FinishFunc
	resuming  bool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Continue pulling events
	Continue Outcome = iota

	// Approval requests were emitted; the turn will end without a finish frame
	AwaitApproval

	// The engine failed; finish the stream without pulling more events
	Terminate
)

const (
	DefaultModelNode = "model"
	DefaultGraphNode = "LangGraph"
	unknownError     = "Unknown error"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a router over a content manager and tool tracker, which the
// router then owns.
func New(content *content.Manager, tools *tracker.Tracker, opts ...Opt) (*Router, error) {
	if content == nil || tools == nil {
		return nil, agentstream.ErrBadParameter.With("content manager and tool tracker are required")
	}
	r := &Router{
		content:   content,
		tools:     tools,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		modelNode: DefaultModelNode,
		graphNode: DefaultGraphNode,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case AwaitApproval:
		return "await-approval"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Route translates one event into zero or more frames. Nil and unrecognised
// events are logged and skipped.
func (r *Router) Route(ev schema.RawEvent) ([]schema.Frame, Outcome, error) {
	switch ev := ev.(type) {
	case nil:
		r.log.Warn("skipped nil event")
		return nil, Continue, nil
	case *schema.StreamChunk:
		return r.streamChunk(nil, ev), Continue, nil
	case *schema.TurnEnd:
		return r.turnEnd(nil, ev), Continue, nil
	case *schema.ToolStart:
		return r.toolStart(nil, ev), Continue, nil
	case *schema.ToolEnd:
		return r.toolEnd(nil, ev), Continue, nil
	case *schema.ChainStart:
		r.chainStart(ev)
		return nil, Continue, nil
	case *schema.ChainStream:
		frames, approvals := r.chainStream(nil, ev)
		if approvals {
			return frames, AwaitApproval, nil
		}
		return frames, Continue, nil
	case *schema.ErrorEvent:
		return r.errorEvent(nil, ev), Terminate, nil
	default:
		r.log.Warn("skipped unrecognised event", "type", fmt.Sprintf("%T", ev))
		return nil, Continue, nil
	}
}

// Resuming returns true once a chain start has indicated that the engine
// resumed an interrupted turn.
func (r *Router) Resuming() bool {
	return r.resuming
}

// Content returns the content manager.
func (r *Router) Content() *content.Manager {
	return r.content
}

// Tools returns the tool tracker.
func (r *Router) Tools() *tracker.Tracker {
	return r.tools
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (r *Router) streamChunk(dst []schema.Frame, ev *schema.StreamChunk) []schema.Frame {
	for _, fragment := range ev.Chunk.ToolCallChunks {
		switch {
		case fragment.ID != "" && fragment.Name != "":
			dst = r.content.CloseAll(dst)
			approved := r.tools.IsPreApproved(fragment.ID)
			r.tools.StartCall(fragment.ID, fragment.Name,
				tracker.WithArgs(fragment.Args),
				tracker.WithApproved(approved),
				tracker.WithIndex(fragment.Index),
			)
			if approved {
				continue
			}
			dst = append(dst, schema.ToolInputStartFrame{
				ToolCallID: fragment.ID,
				ToolName:   fragment.Name,
				Metadata:   r.toolMetadata(fragment.Name),
			})
			if fragment.Args != "" {
				dst = append(dst, schema.ToolInputDeltaFrame{ToolCallID: fragment.ID, InputTextDelta: fragment.Args})
			}
		case fragment.Args != "":
			call, ok := r.tools.FindActiveByIndex(fragment.Index)
			if !ok {
				call, ok = r.tools.FindSoleActive()
			}
			if !ok {
				r.log.Debug("unmatched tool call fragment", "index", fragment.Index)
				continue
			}
			r.tools.AppendArgs(call.ID, fragment.Args)
			if !call.AlreadyApproved && !r.tools.IsPreApproved(call.ID) {
				dst = append(dst, schema.ToolInputDeltaFrame{ToolCallID: call.ID, InputTextDelta: fragment.Args})
			}
		}
	}
	return r.content.Emit(dst, ev.Chunk.Content)
}

func (r *Router) turnEnd(dst []schema.Frame, ev *schema.TurnEnd) []schema.Frame {
	if ev.Output == nil {
		return dst
	}
	for _, call := range ev.Output.ToolCalls {
		if call.ID == "" {
			continue
		}
		r.tools.RegisterSignature(tracker.Signature(call.Name, call.Args), call.ID)
		if r.isApproved(call.ID) {
			continue
		}
		dst = append(dst, schema.ToolInputAvailableFrame{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Input:      input(call.Args),
			Metadata:   r.toolMetadata(call.Name),
		})
	}
	return dst
}

func (r *Router) toolStart(dst []schema.Frame, ev *schema.ToolStart) []schema.Frame {
	id, name, args := ev.ToolCallID(), ev.OriginName, ev.Args()
	sig := tracker.Signature(name, args)

	// Already shown to the client through the model stream
	if r.tools.ShouldSkipEmission(id, sig) {
		r.tools.RegisterSignature(sig, id)
		return dst
	}

	// Decided in an earlier turn, so track silently
	if r.tools.IsPreApproved(id) {
		r.tools.StartCall(id, name, tracker.WithApproved(true), tracker.WithArgs(marshal(args)))
		return dst
	}

	dst = r.content.CloseAll(dst)
	r.tools.RegisterSignature(sig, id)
	r.tools.StartCall(id, name, tracker.WithArgs(marshal(args)))
	meta := r.toolMetadata(name)
	return append(dst,
		schema.ToolInputStartFrame{ToolCallID: id, ToolName: name, Metadata: meta},
		schema.ToolInputAvailableFrame{ToolCallID: id, ToolName: name, Input: args, Metadata: meta},
	)
}

func (r *Router) toolEnd(dst []schema.Frame, ev *schema.ToolEnd) []schema.Frame {
	if ev.Output == nil {
		return dst
	}
	id := ev.ToolCallID()
	if id == "" {
		r.log.Debug("tool output without call id", "tool", ev.OriginName)
		return dst
	}
	dst = append(dst, schema.ToolOutputAvailableFrame{ToolCallID: id, Output: NormalizeOutput(ev.Output)})

	// The tracked call knows the name and arguments, which a call approved
	// in an earlier turn never sent in a frame
	name, args := ev.OriginName, map[string]any(nil)
	if call, ok := r.tools.FinishCall(id); ok {
		if call.Name != "" {
			name = call.Name
		}
		args = unmarshal(call.Args.String())
	}
	if r.finished != nil {
		r.finished(id, name, args)
	}
	return dst
}

// chainStart detects a resumed turn. Only the root graph reports it.
func (r *Router) chainStart(ev *schema.ChainStart) {
	if ev.OriginName != r.graphNode {
		return
	}
	if ev.Resume && !r.resuming {
		r.resuming = true
		r.log.Info("resuming interrupted turn", "origin", ev.OriginName)
	}
}

// chainStream registers signatures from the model node, or emits approval
// requests for an interrupt. It returns true if any approval request was
// emitted.
func (r *Router) chainStream(dst []schema.Frame, ev *schema.ChainStream) ([]schema.Frame, bool) {
	if ev.Chunk == nil {
		return dst, false
	}

	// State update from the model primes the correlation index
	if ev.OriginName == r.modelNode {
		if msg := ev.Chunk.LastMessage(); msg != nil {
			for _, call := range msg.ToolCalls {
				if call.ID != "" {
					r.tools.RegisterSignature(tracker.Signature(call.Name, call.Args), call.ID)
				}
			}
		}
		return dst, false
	}

	approvals := false
	for _, req := range ev.Chunk.ActionRequests() {
		sig := tracker.Signature(req.Name, req.Args)
		id := r.tools.ResolveIDForSignature(sig)
		if r.tools.IsPreApproved(id) {
			continue
		}
		if !r.tools.ShouldSkipEmission(id, sig) {
			meta := r.toolMetadata(req.Name)
			dst = append(dst,
				schema.ToolInputStartFrame{ToolCallID: id, ToolName: req.Name, Metadata: meta},
				schema.ToolInputAvailableFrame{ToolCallID: id, ToolName: req.Name, Input: input(req.Args), Metadata: meta},
			)
			r.tools.RegisterSignature(sig, id)
		}
		dst = append(dst, schema.ToolApprovalRequestFrame{ApprovalID: uuid.NewString(), ToolCallID: id})
		approvals = true
	}
	return dst, approvals
}

func (r *Router) errorEvent(dst []schema.Frame, ev *schema.ErrorEvent) []schema.Frame {
	text := ev.Message
	if text == "" {
		text = unknownError
	}
	r.log.Error("engine error", "origin", ev.OriginName, "error", text)
	return append(dst, schema.ErrorFrame{ErrorText: text})
}

// isApproved returns true if the call was decided in an earlier turn, either
// by id or by the flag on its active record
func (r *Router) isApproved(id string) bool {
	if r.tools.IsPreApproved(id) {
		return true
	}
	if call, ok := r.tools.Get(id); ok && call.AlreadyApproved {
		return true
	}
	return false
}

func (r *Router) toolMetadata(name string) map[string]string {
	if r.metadata == nil {
		return nil
	}
	return r.metadata(name)
}

// input returns tool arguments for a frame, never nil
func input(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

// unmarshal returns tool arguments from JSON, or nil
func unmarshal(args string) map[string]any {
	var v map[string]any
	if args == "" || json.Unmarshal([]byte(args), &v) != nil {
		return nil
	}
	return v
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
