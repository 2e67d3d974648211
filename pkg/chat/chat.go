// Package chat runs agent turns in-process for chat frontends. A driver
// keeps the message history of each conversation, renders each turn through
// the in-process projection, and resumes interrupted turns once every
// pending tool call has an answer.
package chat

import (
	"context"
	"io"
	"log/slog"
	"sync"

	// Packages
	uuid "github.com/google/uuid"
	agentstream "github.com/mutablelogic/go-agentstream"
	adapter "github.com/mutablelogic/go-agentstream/pkg/adapter"
	resume "github.com/mutablelogic/go-agentstream/pkg/resume"
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Driver runs turns for many conversations against one engine.
type Driver struct {
	engine      agentstream.Engine
	adapterOpts []adapter.Opt
	thread      ThreadFunc
	log         *slog.Logger

	mu            sync.Mutex
	conversations map[string]*conversation
}

// conversation is the history of one conversation. Turns within a
// conversation are serialized.
type conversation struct {
	sync.Mutex
	thread   string
	messages []schema.UIMessage
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a driver for an engine.
func New(engine agentstream.Engine, opts ...Opt) (*Driver, error) {
	if engine == nil {
		return nil, agentstream.ErrBadParameter.With("engine is required")
	}
	d := &Driver{
		engine:        engine,
		thread:        func(id string) string { return id },
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		conversations: make(map[string]*conversation),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Send appends a user message to the conversation and runs a turn. It is
// an error to send a message while tool calls are waiting for approval.
func (d *Driver) Send(ctx context.Context, uctx ui.Context, text string) error {
	conv := d.conversation(uctx.ConversationID())
	conv.Lock()
	defer conv.Unlock()

	if pending := conv.pending(); len(pending) > 0 {
		return agentstream.ErrConflict.Withf("%d tool call(s) waiting for approval", len(pending))
	}
	conv.messages = append(conv.messages, schema.UIMessage{
		ID:    uuid.NewString(),
		Role:  schema.RoleUser,
		Parts: []schema.UIPart{{Type: schema.PartTypeText, Text: text}},
	})
	return d.run(ctx, uctx, conv)
}

// Respond records the answer to an approval request. When every pending
// tool call has an answer, the interrupted turn is resumed.
func (d *Driver) Respond(ctx context.Context, uctx ui.Context, resp ui.ApprovalResponse) error {
	conv := d.conversation(uctx.ConversationID())
	conv.Lock()
	defer conv.Unlock()

	last := conv.last()
	if last == nil || !last.Respond(resp.ToolCallID, resp.Approved, resp.Reason) {
		return agentstream.ErrNotFound.Withf("no approval request for tool call %q", resp.ToolCallID)
	}
	if len(last.PendingApprovals()) > 0 {
		return nil
	}
	return d.run(ctx, uctx, conv)
}

// RespondAll answers every pending approval request the same way, and
// resumes the turn.
func (d *Driver) RespondAll(ctx context.Context, uctx ui.Context, approved bool, reason string) error {
	conv := d.conversation(uctx.ConversationID())
	conv.Lock()
	defer conv.Unlock()

	pending := conv.pending()
	if len(pending) == 0 {
		return agentstream.ErrNotFound.With("no approval requests")
	}
	last := conv.last()
	for _, part := range pending {
		last.Respond(part.ToolCallID, approved, reason)
	}
	return d.run(ctx, uctx, conv)
}

// Pending returns the tool calls waiting for approval in a conversation.
func (d *Driver) Pending(conversationID string) []schema.UIPart {
	conv := d.conversation(conversationID)
	conv.Lock()
	defer conv.Unlock()
	return conv.pending()
}

// Messages returns the message history of a conversation.
func (d *Driver) Messages(conversationID string) []schema.UIMessage {
	conv := d.conversation(conversationID)
	conv.Lock()
	defer conv.Unlock()
	return append([]schema.UIMessage(nil), conv.messages...)
}

// Reset forgets the history of a conversation.
func (d *Driver) Reset(conversationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conversations, conversationID)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (d *Driver) conversation(id string) *conversation {
	d.mu.Lock()
	defer d.mu.Unlock()
	if conv, exists := d.conversations[id]; exists {
		return conv
	}
	conv := &conversation{thread: d.thread(id)}
	d.conversations[id] = conv
	return conv
}

// run executes one turn, with the conversation locked. A resumed turn
// continues the last assistant message; otherwise a new assistant message
// is appended.
func (d *Driver) run(ctx context.Context, uctx ui.Context, conv *conversation) error {
	req := schema.ChatRequest{ID: conv.thread, Messages: conv.messages}
	turn, resumeCtx := resume.Request(req)

	a, err := adapter.New(append(append([]adapter.Opt{}, d.adapterOpts...), adapter.WithResume(resumeCtx))...)
	if err != nil {
		return err
	}

	var message *schema.UIMessage
	if resumeCtx != nil {
		message = conv.last()
	}
	if message == nil {
		conv.messages = append(conv.messages, schema.UIMessage{ID: a.MessageID(), Role: schema.RoleAssistant})
		message = &conv.messages[len(conv.messages)-1]
	}

	source, err := d.engine.Stream(ctx, turn)
	if err != nil {
		return err
	}

	d.log.DebugContext(ctx, "turn", "thread", conv.thread, "message", message.ID, "resume", resumeCtx != nil)

	_ = uctx.SetTyping(ctx, true)
	poster := ui.NewPoster(uctx)
	err = a.Post(ctx, agentstream.PosterFunc(func(ctx context.Context, event schema.Event) error {
		message.ApplyEvent(event)
		return poster.Post(ctx, event)
	}), source)
	if closeErr := poster.Close(ctx); err == nil {
		err = closeErr
	}
	_ = uctx.SetTyping(ctx, false)

	// Answers are acted upon once, even when the engine reports no output
	if resumeCtx != nil && err == nil {
		message.Settle()
	}
	return err
}

func (c *conversation) last() *schema.UIMessage {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == schema.RoleAssistant {
			return &c.messages[i]
		}
	}
	return nil
}

func (c *conversation) pending() []schema.UIPart {
	if last := c.last(); last != nil {
		return last.PendingApprovals()
	}
	return nil
}
