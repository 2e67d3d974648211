// Package command implements shared slash-command handling for chat UIs.
//
// The [Handler] processes commands like /approve, /reject, /pending and
// /reset, and works with any [ui.Context] so the same logic can be used by
// terminal, Telegram, and other frontends.
package command

import (
	"context"
	"fmt"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	table "github.com/mutablelogic/go-agentstream/pkg/ui/table"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Driver is the minimal API surface needed by the command handler.
// *chat.Driver satisfies this interface.
type Driver interface {
	Respond(ctx context.Context, uctx ui.Context, resp ui.ApprovalResponse) error
	RespondAll(ctx context.Context, uctx ui.Context, approved bool, reason string) error
	Pending(conversationID string) []schema.UIPart
	Messages(conversationID string) []schema.UIMessage
	Reset(conversationID string)
}

// Hooks allows frontends to inject UI-specific behaviour into certain
// commands. All methods are optional - nil Hooks is safe.
type Hooks interface {
	// OnReset is called after /reset clears the conversation. The
	// frontend can clear its message history.
	OnReset()
}

// Handler processes slash commands against a driver.
type Handler struct {
	driver Driver
	hooks  Hooks
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a command handler with the given driver and optional hooks.
func New(driver Driver, hooks Hooks) *Handler {
	return &Handler{
		driver: driver,
		hooks:  hooks,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Handle processes a slash command event and returns an error if the
// command fails.
func (h *Handler) Handle(ctx context.Context, evt ui.Event) error {
	switch evt.Command {
	case "approve", "yes":
		return h.cmdRespond(ctx, evt, true)
	case "reject", "no":
		return h.cmdRespond(ctx, evt, false)
	case "pending":
		return h.cmdPending(ctx, evt)
	case "history":
		return h.cmdHistory(ctx, evt)
	case "reset":
		return h.cmdReset(ctx, evt)
	case "help", "start":
		return h.cmdHelp(ctx, evt)
	default:
		return fmt.Errorf("unknown command: /%s (try /help)", evt.Command)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// cmdRespond answers one approval request, or all of them when no tool
// call is named. With a single pending call, the first argument is the
// start of the reason.
func (h *Handler) cmdRespond(ctx context.Context, evt ui.Event, approved bool) error {
	pending := h.driver.Pending(evt.Context.ConversationID())
	if len(pending) == 0 {
		return fmt.Errorf("nothing is waiting for approval")
	}
	args := evt.Args
	var id string
	if len(args) > 0 && hasCall(pending, args[0]) {
		id, args = args[0], args[1:]
	}
	reason := strings.Join(args, " ")
	if id == "" && len(pending) == 1 {
		id = pending[0].ToolCallID
	}
	if id == "" {
		return h.driver.RespondAll(ctx, evt.Context, approved, reason)
	}
	return h.driver.Respond(ctx, evt.Context, ui.ApprovalResponse{
		ToolCallID: id,
		Approved:   approved,
		Reason:     reason,
	})
}

func (h *Handler) cmdPending(ctx context.Context, evt ui.Event) error {
	pending := h.driver.Pending(evt.Context.ConversationID())
	if len(pending) == 0 {
		return evt.Context.SendText(ctx, "Nothing is waiting for approval")
	}
	return evt.Context.SendMarkdown(ctx, table.RenderMarkdown(table.Pending(pending)))
}

func (h *Handler) cmdHistory(ctx context.Context, evt ui.Event) error {
	messages := h.driver.Messages(evt.Context.ConversationID())
	if len(messages) == 0 {
		return evt.Context.SendText(ctx, "No messages yet")
	}
	var buf strings.Builder
	for i, message := range messages {
		if i > 0 {
			buf.WriteString("\n")
		}
		tools := 0
		for _, part := range message.Parts {
			if part.IsTool() {
				tools++
			}
		}
		buf.WriteString(fmt.Sprintf("%s: %s", message.Role, ui.Inline(message.Text())))
		if tools > 0 {
			buf.WriteString(fmt.Sprintf(" [%d tool call(s)]", tools))
		}
	}
	return evt.Context.SendText(ctx, buf.String())
}

func (h *Handler) cmdReset(ctx context.Context, evt ui.Event) error {
	h.driver.Reset(evt.Context.ConversationID())
	if h.hooks != nil {
		h.hooks.OnReset()
	}
	return evt.Context.SendText(ctx, "Started a new conversation")
}

func (h *Handler) cmdHelp(ctx context.Context, evt ui.Event) error {
	help := "Available commands:\n\n" +
		"```\n" +
		"/approve [call-id]          - Approve the pending tool call(s)\n" +
		"/reject [call-id] [reason]  - Reject the pending tool call(s)\n" +
		"/pending                    - List tool calls waiting for approval\n" +
		"/history                    - Show the conversation so far\n" +
		"/reset                      - Start a new conversation\n" +
		"/help                       - Show this help\n" +
		"```"
	return evt.Context.SendMarkdown(ctx, help)
}

func hasCall(parts []schema.UIPart, id string) bool {
	for _, part := range parts {
		if part.ToolCallID == id {
			return true
		}
	}
	return false
}
