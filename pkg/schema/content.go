package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Content is model message content, which is either plain text or an ordered
// list of typed parts.
type Content struct {
	Text  string
	Parts []ContentPart // Non-nil when the content is a list
}

// ContentPart is a single typed part of list content.
type ContentPart struct {
	Type     string `json:"type"`               // "text" or "thinking"
	Text     string `json:"text,omitempty"`     // Set when type is "text"
	Thinking string `json:"thinking,omitempty"` // Set when type is "thinking"
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	PartText     = "text"
	PartThinking = "thinking"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewText returns plain text content.
func NewText(text string) Content {
	return Content{Text: text}
}

// NewParts returns list content. An empty list is still list content.
func NewParts(parts ...ContentPart) Content {
	if parts == nil {
		parts = []ContentPart{}
	}
	return Content{Parts: parts}
}

// TextPart returns a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ThinkingPart returns a reasoning content part.
func ThinkingPart(thinking string) ContentPart {
	return ContentPart{Type: PartThinking, Thinking: thinking}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsList returns true if the content is a list of parts.
func (c Content) IsList() bool {
	return c.Parts != nil
}

// IsEmpty returns true if there is no text and no parts.
func (c Content) IsEmpty() bool {
	return c.Text == "" && len(c.Parts) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsList() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts null, a string or a list. List items which are not
// objects are dropped.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &c.Text)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		c.Parts = make([]ContentPart, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				continue
			}
			var part ContentPart
			if err := json.Unmarshal(item, &part); err != nil {
				return err
			}
			c.Parts = append(c.Parts, part)
		}
		return nil
	default:
		return fmt.Errorf("content: expected string or list, got %q", string(data[:1]))
	}
}
