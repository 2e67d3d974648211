package ui

import (
	"context"
	"fmt"
	"sync"

	// Packages
	agentstream "github.com/mutablelogic/go-agentstream"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Poster renders the typed events of a turn into a conversation. Text and
// tool activity are streamed into a single message; approval requests and
// errors end the message and are sent on their own.
type Poster struct {
	sync.Mutex
	uctx      Context
	streaming bool
	titles    map[string]string
	pending   []ApprovalRequest
}

var _ agentstream.Poster = (*Poster)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPoster returns a poster for a conversation.
func NewPoster(uctx Context) *Poster {
	return &Poster{
		uctx:   uctx,
		titles: make(map[string]string),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Post renders one event.
func (p *Poster) Post(ctx context.Context, event schema.Event) error {
	p.Lock()
	defer p.Unlock()

	switch event.Type {
	case schema.EventText:
		if event.Content == "" {
			return nil
		}
		if err := p.start(ctx); err != nil {
			return err
		}
		return p.uctx.StreamChunk(ctx, RoleAssistant, event.Content)
	case schema.EventToolStart:
		title := ToolTitle(event.ToolName, event.Metadata)
		p.titles[event.ToolCallID] = title
		if err := p.start(ctx); err != nil {
			return err
		}
		return p.uctx.StreamChunk(ctx, RoleTool, fmt.Sprintf("%s %s\n", title, Inline(event.Input)))
	case schema.EventToolEnd:
		if err := p.start(ctx); err != nil {
			return err
		}
		if event.IsError {
			return p.uctx.StreamChunk(ctx, RoleTool, fmt.Sprintf("✗ %s: %s\n", p.title(event), Inline(event.Output)))
		}
		return p.uctx.StreamChunk(ctx, RoleTool, fmt.Sprintf("✓ %s %s\n", p.title(event), Inline(event.Output)))
	case schema.EventToolApprovalRequest:
		if err := p.end(ctx); err != nil {
			return err
		}
		req := ApprovalRequest{
			ToolCallID: event.ToolCallID,
			ApprovalID: event.ApprovalID,
			ToolName:   event.ToolName,
			Title:      p.title(event),
			Input:      event.Input,
		}
		p.pending = append(p.pending, req)
		return p.uctx.RequestApproval(ctx, req)
	case schema.EventError:
		if err := p.end(ctx); err != nil {
			return err
		}
		return p.uctx.SendText(ctx, "Error: "+event.Content)
	default:
		return agentstream.ErrBadParameter.Withf("unsupported event type %q", event.Type)
	}
}

// Close ends any open message. It is safe to call more than once.
func (p *Poster) Close(ctx context.Context) error {
	p.Lock()
	defer p.Unlock()
	return p.end(ctx)
}

// Pending returns the approval requests posted so far.
func (p *Poster) Pending() []ApprovalRequest {
	p.Lock()
	defer p.Unlock()
	return append([]ApprovalRequest(nil), p.pending...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (p *Poster) start(ctx context.Context) error {
	if p.streaming {
		return nil
	}
	if err := p.uctx.StreamStart(ctx); err != nil {
		return err
	}
	p.streaming = true
	return nil
}

func (p *Poster) end(ctx context.Context) error {
	if !p.streaming {
		return nil
	}
	p.streaming = false
	return p.uctx.StreamEnd(ctx)
}

func (p *Poster) title(event schema.Event) string {
	if title, exists := p.titles[event.ToolCallID]; exists {
		return title
	}
	return ToolTitle(event.ToolName, event.Metadata)
}
