package ui

import (
	"context"
	"strings"
	"sync"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Recorder is a Context which records what is sent to it. It is used for
// batch runs and tests.
type Recorder struct {
	sync.Mutex
	User         string
	Conversation string
	Messages     []Message
	Approvals    []ApprovalRequest

	stream *Message
}

// Message is one message sent to a Recorder. Streamed messages have one
// segment per change of role.
type Message struct {
	Markdown bool
	Segments []Segment
}

// Segment is a run of text from one role.
type Segment struct {
	Role Role
	Text string
}

var _ Context = (*Recorder)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewRecorder returns a recorder for a conversation.
func NewRecorder(conversation string) *Recorder {
	return &Recorder{User: "recorder", Conversation: conversation}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (r *Recorder) UserID() string         { return r.User }
func (r *Recorder) UserName() string       { return r.User }
func (r *Recorder) ConversationID() string { return r.Conversation }

func (r *Recorder) SendText(_ context.Context, text string) error {
	r.Lock()
	defer r.Unlock()
	r.Messages = append(r.Messages, Message{Segments: []Segment{{Role: RoleSystem, Text: text}}})
	return nil
}

func (r *Recorder) SendMarkdown(_ context.Context, markdown string) error {
	r.Lock()
	defer r.Unlock()
	r.Messages = append(r.Messages, Message{Markdown: true, Segments: []Segment{{Role: RoleAssistant, Text: markdown}}})
	return nil
}

func (r *Recorder) SetTyping(context.Context, bool) error {
	return nil
}

func (r *Recorder) StreamStart(context.Context) error {
	r.Lock()
	defer r.Unlock()
	r.stream = &Message{Markdown: true}
	return nil
}

func (r *Recorder) StreamChunk(_ context.Context, role Role, text string) error {
	r.Lock()
	defer r.Unlock()
	if r.stream == nil {
		r.stream = &Message{Markdown: true}
	}
	if n := len(r.stream.Segments); n > 0 && r.stream.Segments[n-1].Role == role {
		r.stream.Segments[n-1].Text += text
	} else {
		r.stream.Segments = append(r.stream.Segments, Segment{Role: role, Text: text})
	}
	return nil
}

func (r *Recorder) StreamEnd(context.Context) error {
	r.Lock()
	defer r.Unlock()
	if r.stream != nil && len(r.stream.Segments) > 0 {
		r.Messages = append(r.Messages, *r.stream)
	}
	r.stream = nil
	return nil
}

func (r *Recorder) RequestApproval(_ context.Context, req ApprovalRequest) error {
	r.Lock()
	defer r.Unlock()
	r.Approvals = append(r.Approvals, req)
	return nil
}

// Text returns the text of a message with the given role across all
// segments.
func (m Message) Text(role Role) string {
	var b strings.Builder
	for _, seg := range m.Segments {
		if seg.Role == role {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
