package ui

import (
	"encoding/json"
	"strings"
	"unicode"

	// Packages
	cases "golang.org/x/text/cases"
	language "golang.org/x/text/language"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Metadata key for the display name of a tool
	MetaTitle = "title"

	// Maximum length of a tool input or output when displayed inline
	maxInline = 120
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ToolTitle returns the display name for a tool: the title from its
// metadata, or the tool name in title case.
func ToolTitle(name string, meta map[string]string) string {
	if title := strings.TrimSpace(meta[MetaTitle]); title != "" {
		return title
	}
	name = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' {
			return ' '
		}
		return r
	}, name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}

// Inline returns a compact single-line rendering of a tool input or output,
// truncated to a readable length.
func Inline(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		s = v
	default:
		if data, err := json.Marshal(v); err != nil {
			return ""
		} else {
			s = string(data)
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > maxInline {
		s = string(runes[:maxInline-1]) + "…"
	}
	return s
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func splitFields(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}
