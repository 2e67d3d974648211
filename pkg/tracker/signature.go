package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Signature returns the content key of a tool call: the name, a colon, and
// the arguments as JSON with sorted keys. String arguments are parsed as
// JSON first. Text which does not parse is keyed as {"raw": text}, and empty
// or nil arguments as {}.
func Signature(name string, args any) string {
	var value any
	switch args := args.(type) {
	case nil:
		value = map[string]any{}
	case string:
		if strings.TrimSpace(args) == "" {
			value = map[string]any{}
		} else if err := json.Unmarshal([]byte(args), &value); err != nil {
			value = map[string]any{"raw": args}
		}
	case json.RawMessage:
		return Signature(name, string(args))
	case []byte:
		return Signature(name, string(args))
	case map[string]any:
		if args == nil {
			value = map[string]any{}
		} else {
			value = args
		}
	default:
		value = args
	}
	return name + ":" + canonical(value)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// canonical returns JSON with map keys sorted and without HTML escaping.
// encoding/json sorts map keys at every level; struct values are first
// converted to maps so their keys sort too.
func canonical(v any) string {
	if _, ok := v.(map[string]any); !ok {
		if data, err := json.Marshal(v); err == nil {
			var generic any
			if err := json.Unmarshal(data, &generic); err == nil {
				v = generic
			}
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}
