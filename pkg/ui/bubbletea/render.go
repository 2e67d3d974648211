package bubbletea

import (
	"fmt"
	"strings"

	// Packages
	glamour "github.com/charmbracelet/glamour"
	lipgloss "github.com/charmbracelet/lipgloss"
	wordwrap "github.com/muesli/reflow/wordwrap"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// roleUser labels what was typed at the prompt
const roleUser ui.Role = "user"

const (
	margin   = "  " // glamour's left margin
	minWrap  = 20
	labelPad = 14 // room for the longest label
)

var (
	dimStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	labelStyles = map[ui.Role]lipgloss.Style{
		roleUser:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ui.RoleAssistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		ui.RoleSystem:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		ui.RoleTool:      dimStyle,
		ui.RoleError:     errorStyle,
	}
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
}

func (m *model) wrap() int {
	return max(m.width-labelPad, minWrap)
}

// format renders Markdown for a closed entry, falling back to wrapped text
// when there is no renderer
func (m *model) format(role ui.Role, text string) string {
	out := wordwrap.String(text, m.wrap())
	if m.renderer != nil {
		if md, err := m.renderer.Render(text); err == nil {
			out = strings.TrimSpace(md)
		}
	}
	return tint(role, out)
}

// draft renders the segments of a message as it streams, as wrapped text
// with a label wherever the role changes
func (m *model) draft(segments []segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n\n" + label(seg.role) + "\n")
		}
		b.WriteString(tint(seg.role, wordwrap.String(seg.text, m.wrap())))
	}
	return b.String()
}

func label(role ui.Role) string {
	if style, exists := labelStyles[role]; exists {
		return style.Render(string(role) + ":")
	}
	return string(role) + ":"
}

func tint(role ui.Role, text string) string {
	switch role {
	case ui.RoleTool:
		return dimStyle.Render(text)
	case ui.RoleError:
		return errorStyle.Render(text)
	default:
		return text
	}
}

// indent gives non-empty lines the same left margin as glamour output
func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" && !strings.HasPrefix(line, margin) {
			lines[i] = margin + line
		}
	}
	return strings.Join(lines, "\n")
}

func title(req ui.ApprovalRequest) string {
	if req.Title != "" {
		return req.Title
	}
	return ui.ToolTitle(req.ToolName, nil)
}

// approvalMarkdown is the history entry for an approval request
func approvalMarkdown(req ui.ApprovalRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** needs approval", title(req))
	if input := ui.Inline(req.Input); input != "" {
		fmt.Fprintf(&b, "\n\n`%s`", input)
	}
	fmt.Fprintf(&b, "\n\nPress `y` or `n`, or type `/reject %s <reason>`", req.ToolCallID)
	return b.String()
}
