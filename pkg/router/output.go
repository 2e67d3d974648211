package router

import (
	"encoding/json"
	"reflect"

	// Packages
	schema "github.com/mutablelogic/go-agentstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// NormalizeOutput reduces a tool result to the single value sent to the
// client. The content is used, or the artifact when there is no content. A
// list is reduced to its first element, and an object with a "text" field
// to the JSON value of that text, or the text itself when it is not JSON.
func NormalizeOutput(msg *schema.ToolMessage) any {
	if msg == nil {
		return nil
	}
	output := msg.Content
	if output == nil {
		output = msg.Artifact
	}

	// First element of a multi-part result
	if rv := reflect.ValueOf(output); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 && rv.Len() > 0 {
		output = rv.Index(0).Interface()
	}

	// Text-keyed object
	var text any
	var hasText bool
	switch v := output.(type) {
	case map[string]any:
		text, hasText = v["text"]
	case map[string]string:
		text, hasText = v["text"]
	}
	if !hasText {
		return output
	}
	if s, ok := text.(string); ok {
		var value any
		if err := json.Unmarshal([]byte(s), &value); err == nil {
			return value
		}
	}
	return text
}
