// Package telegram implements [ui.ChatUI] for Telegram bots using telebot v4.
// Approval requests are sent with an inline keyboard, and the button the
// user presses arrives as an approval event.
package telegram

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	// Packages
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	tele "gopkg.in/telebot.v4"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	// Callback endpoints for the approval keyboard
	uniqueApprove = "approve"
	uniqueReject  = "reject"

	pollTimeout = 10 * time.Second
	eventBuffer = 32
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Telegram implements [ui.ChatUI] for the Telegram Bot API.
type Telegram struct {
	bot    *tele.Bot
	events chan ui.Event
	done   chan struct{}
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a Telegram bot UI with the given token. It starts long-polling
// in a background goroutine and returns immediately.
func New(token string) (*Telegram, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	t := &Telegram{
		bot:    bot,
		events: make(chan ui.Event, eventBuffer),
		done:   make(chan struct{}),
	}

	// Register handlers
	markup := &tele.ReplyMarkup{}
	approve, reject := markup.Data("Approve", uniqueApprove), markup.Data("Reject", uniqueReject)
	bot.Handle(tele.OnText, t.onText)
	bot.Handle(&approve, t.onApproval(true))
	bot.Handle(&reject, t.onApproval(false))

	// Start polling in the background
	go func() {
		bot.Start()
		close(t.done)
	}()

	return t, nil
}

///////////////////////////////////////////////////////////////////////////////
// ChatUI IMPLEMENTATION

// Receive blocks until the next incoming event, context cancellation, or
// shutdown. It returns io.EOF when the bot is stopped.
func (t *Telegram) Receive(ctx context.Context) (ui.Event, error) {
	select {
	case evt := <-t.events:
		return evt, nil
	case <-ctx.Done():
		return ui.Event{}, ctx.Err()
	case <-t.done:
		return ui.Event{}, io.EOF
	}
}

// Close stops the bot poller and waits for it to finish.
func (t *Telegram) Close() error {
	t.bot.Stop()
	<-t.done
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// TELEBOT HANDLERS

func (t *Telegram) onText(c tele.Context) error {
	t.emit(ui.ParseText(newContext(c.Bot(), c.Chat(), c.Sender()), c.Text()))
	return nil
}

// onApproval returns the handler for an approval keyboard button. The
// callback data carries the tool call id. The keyboard is removed once
// answered so a call cannot be answered twice.
func (t *Telegram) onApproval(approved bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil || cb.Data == "" {
			return c.Respond()
		}
		if msg := c.Message(); msg != nil {
			c.Bot().EditReplyMarkup(msg, &tele.ReplyMarkup{}) //nolint:errcheck
		}
		answer := "Rejected"
		if approved {
			answer = "Approved"
		}
		t.emit(ui.Event{
			Type:    ui.EventApproval,
			Context: newContext(c.Bot(), c.Chat(), c.Sender()),
			Text:    answer,
			Approval: &ui.ApprovalResponse{
				ToolCallID: cb.Data,
				Approved:   approved,
			},
		})
		return c.Respond(&tele.CallbackResponse{Text: answer})
	}
}

func (t *Telegram) emit(evt ui.Event) {
	select {
	case t.events <- evt:
	default:
		// Drop if the consumer isn't keeping up
	}
}

///////////////////////////////////////////////////////////////////////////////
// CONTEXT

// telegramContext implements [ui.Context] for a single Telegram conversation.
type telegramContext struct {
	api  tele.API
	chat *tele.Chat
	user *tele.User

	mu     sync.Mutex
	stream stream
}

var _ ui.Context = (*telegramContext)(nil)

func newContext(api tele.API, chat *tele.Chat, user *tele.User) *telegramContext {
	return &telegramContext{
		api:  api,
		chat: chat,
		user: user,
	}
}

// UserID returns the Telegram user ID as a string.
func (c *telegramContext) UserID() string {
	if c.user != nil {
		return strconv.FormatInt(c.user.ID, 10)
	}
	return ""
}

// UserName returns the user's display name (username, or first+last name).
func (c *telegramContext) UserName() string {
	if c.user == nil {
		return ""
	}
	if c.user.Username != "" {
		return c.user.Username
	}
	name := c.user.FirstName
	if c.user.LastName != "" {
		name += " " + c.user.LastName
	}
	return name
}

// ConversationID returns the Telegram chat ID as a string.
func (c *telegramContext) ConversationID() string {
	if c.chat != nil {
		return strconv.FormatInt(c.chat.ID, 10)
	}
	return ""
}

// SendText sends a plain-text message to the conversation.
func (c *telegramContext) SendText(_ context.Context, text string) error {
	_, err := c.api.Send(c.chat, text)
	return err
}

// SendMarkdown sends a Markdown-formatted message as Telegram entities,
// split into several messages when it is too long for one.
func (c *telegramContext) SendMarkdown(_ context.Context, md string) error {
	return c.send(render(md))
}

// SetTyping sends (or ignores a stop for) the "typing" chat action.
func (c *telegramContext) SetTyping(_ context.Context, typing bool) error {
	if typing {
		return c.api.Notify(c.chat, tele.Typing)
	}
	return nil
}

// RequestApproval sends the tool call with an Approve and Reject keyboard.
func (c *telegramContext) RequestApproval(_ context.Context, req ui.ApprovalRequest) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Approve", uniqueApprove, req.ToolCallID),
		markup.Data("Reject", uniqueReject, req.ToolCallID),
	))
	return c.send(render(approvalMarkdown(req)), markup)
}

// send sends a message in as many parts as needed. The options, such as a
// keyboard, are attached to the last part.
func (c *telegramContext) send(m message, opts ...any) error {
	parts := split(m, maxMessage)
	for i, part := range parts {
		partOpts := options(part)
		if i == len(parts)-1 {
			partOpts = append(partOpts, opts...)
		}
		if _, err := c.api.Send(c.chat, part.text, partOpts...); err != nil {
			return err
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func options(m message) []any {
	if len(m.entities) > 0 {
		return []any{m.entities}
	}
	return nil
}

func rolePrefix(role ui.Role) string {
	switch role {
	case ui.RoleTool:
		return "🔧 "
	case ui.RoleError:
		return "⚠️ "
	default:
		return ""
	}
}

// approvalMarkdown returns the text of an approval request
func approvalMarkdown(req ui.ApprovalRequest) string {
	title := req.Title
	if title == "" {
		title = ui.ToolTitle(req.ToolName, nil)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** needs approval", title)
	if input := ui.Inline(req.Input); input != "" {
		fmt.Fprintf(&b, "\n\n`%s`", input)
	}
	return b.String()
}
