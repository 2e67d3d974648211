package telegram

import (
	"context"
	"strings"
	"time"

	// Packages
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
	tele "gopkg.in/telebot.v4"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// stream is the reply being streamed into a conversation. Each run of
// chunks with the same role is a segment, shown as a message of its own
// which is edited as the segment grows.
type stream struct {
	msg    *tele.Message // placeholder for the segment, or nil
	role   ui.Role
	buf    strings.Builder
	edited time.Time
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Telegram limits how often a message can be edited
	editInterval = time.Second

	placeholderText = "..."
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// StreamStart sends the placeholder for the first segment.
func (c *telegramContext) StreamStart(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stream = stream{}
	return c.placeholder()
}

// StreamChunk adds text to the current segment, and previews it in the
// placeholder at most once every editInterval. A change of role completes
// the segment, and the next placeholder is sent with the first chunk of the
// new one.
func (c *telegramContext) StreamChunk(_ context.Context, role ui.Role, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.stream
	if s.role != "" && s.role != role {
		c.flush()
		c.api.Notify(c.chat, tele.Typing) //nolint:errcheck
	}
	s.role = role
	s.buf.WriteString(text)

	if s.msg == nil {
		c.placeholder() //nolint:errcheck
	}
	if s.msg != nil && time.Since(s.edited) >= editInterval {
		c.preview()
	}
	return nil
}

// StreamEnd completes the last segment, or removes the placeholder when
// nothing was streamed into it.
func (c *telegramContext) StreamEnd(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flush()
	c.stream = stream{}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *telegramContext) placeholder() error {
	msg, err := c.api.Send(c.chat, placeholderText)
	if err != nil {
		return err
	}
	c.stream.msg, c.stream.edited = msg, time.Now()
	return nil
}

// preview shows the unformatted segment in the placeholder
func (c *telegramContext) preview() {
	s := &c.stream
	text := rolePrefix(s.role) + s.buf.String()
	if utf16Len(text) > maxMessage {
		text = text[:cut(text, maxMessage)]
	}
	if edited, err := c.api.Edit(s.msg, text); err == nil {
		s.msg = edited
	}
	s.edited = time.Now()
}

// flush replaces the placeholder with the formatted segment. Text which does
// not fit follows in new messages, and an empty segment deletes the
// placeholder.
func (c *telegramContext) flush() {
	s := &c.stream
	msg, content := s.msg, strings.TrimSpace(s.buf.String())
	s.msg = nil
	s.buf.Reset()

	var parts []message
	if content != "" {
		parts = split(segment(s.role, content), maxMessage)
	}
	if len(parts) == 0 {
		if msg != nil {
			c.api.Delete(msg) //nolint:errcheck
		}
		return
	}
	if msg != nil {
		c.edit(msg, parts[0])
		parts = parts[1:]
	}
	for _, part := range parts {
		c.api.Send(c.chat, part.text, options(part)...) //nolint:errcheck
	}
}

// edit replaces the text of a message, without the entities when Telegram
// rejects them
func (c *telegramContext) edit(msg *tele.Message, m message) {
	if len(m.entities) > 0 {
		if _, err := c.api.Edit(msg, m.text, m.entities); err == nil {
			return
		}
	}
	c.api.Edit(msg, m.text) //nolint:errcheck
}

// segment formats completed segment text by role
func segment(role ui.Role, content string) message {
	switch role {
	case ui.RoleTool:
		return styled(rolePrefix(role)+content, tele.EntityItalic)
	case ui.RoleError:
		return styled(rolePrefix(role)+content, tele.EntityBold)
	case ui.RoleSystem:
		return styled(content, tele.EntityBlockquote)
	default:
		return render(content)
	}
}
