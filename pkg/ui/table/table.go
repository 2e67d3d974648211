// Package table renders raw engine events, stream frames and pending
// approvals, either as terminal tables drawn with lipgloss or as Markdown
// tables for chat platforms. A source of rows implements TableData.
package table

import (
	"fmt"
	"os"
	"strings"

	// Packages
	lipgloss "github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// TableData is a source of table rows.
type TableData interface {
	// Header returns the column labels.
	Header() []string

	// Len returns the number of rows.
	Len() int

	// Row returns the cells of row i, or nil to skip the row. Cells are
	// formatted with FormatCell.
	Row(i int) []any
}

// Bold is a cell which stands out, such as the kind of an event.
type Bold struct{ Value any }

// Alert is a cell which reports a failure.
type Alert struct{ Value any }

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	empty    = "-"
	ellipsis = "…"
)

var (
	borderStyle = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Render draws the table for standard output, narrowed to the width of the
// terminal when it would not otherwise fit.
func Render(data TableData) string {
	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	return RenderWidth(data, width)
}

// RenderWidth draws the table, wrapping cells when the table is wider than
// width. A width of zero leaves the table at its natural width.
func RenderWidth(data TableData, width int) string {
	t := lgtable.New().
		Headers(data.Header()...).
		Rows(cells(data, FormatCell)...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Wrap(true).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})

	out := t.Render()
	if width > 0 && lipgloss.Width(out) > width {
		out = t.Width(width).Render()
	}
	return out
}

// RenderMarkdown returns the table in Markdown. Bold cells are emphasised,
// alerts are marked, and pipes in cells are escaped.
func RenderMarkdown(data TableData) string {
	header := data.Header()
	if len(header) == 0 {
		return ""
	}
	lines := []string{
		markdownRow(header),
		"|" + strings.Repeat("---|", len(header)),
	}
	for _, row := range cells(data, markdownCell) {
		for len(row) < len(header) {
			row = append(row, empty)
		}
		lines = append(lines, markdownRow(row[:len(header)]))
	}
	return strings.Join(lines, "\n")
}

// FormatCell returns the terminal text of a cell. Nil, empty and zero
// values are shown as a dash.
func FormatCell(v any) string {
	switch v := v.(type) {
	case Bold:
		return boldStyle.Render(FormatCell(v.Value))
	case Alert:
		return alertStyle.Render(FormatCell(v.Value))
	default:
		return plain(v)
	}
}

// Truncate returns s on one line, cut to at most limit runes with an
// ellipsis when it is longer.
func Truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runes := []rune(s); len(runes) > limit {
		return string(runes[:max(limit-1, 0)]) + ellipsis
	}
	return s
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// cells returns the rows of a table, formatted with fn
func cells(data TableData, fn func(any) string) [][]string {
	var rows [][]string
	for i := range data.Len() {
		row := data.Row(i)
		if row == nil {
			continue
		}
		formatted := make([]string, len(row))
		for j, v := range row {
			formatted[j] = fn(v)
		}
		rows = append(rows, formatted)
	}
	return rows
}

func markdownRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func markdownCell(v any) string {
	switch v := v.(type) {
	case Bold:
		if s := markdownCell(v.Value); s != empty {
			return "**" + s + "**"
		}
		return empty
	case Alert:
		if s := markdownCell(v.Value); s != empty {
			return "⚠ " + s
		}
		return empty
	default:
		return strings.ReplaceAll(plain(v), "|", `\|`)
	}
}

func plain(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
	case string:
		s = v
	case int, int64, uint, uint64:
		if s = fmt.Sprint(v); s == "0" {
			s = ""
		}
	default:
		s = fmt.Sprint(v)
	}
	if s == "" {
		return empty
	}
	return s
}
