package bubbletea

import (
	"fmt"
	"slices"
	"strings"

	// Packages
	spinner "github.com/charmbracelet/bubbles/spinner"
	textinput "github.com/charmbracelet/bubbles/textinput"
	viewport "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	glamour "github.com/charmbracelet/glamour"
	ui "github.com/mutablelogic/go-agentstream/pkg/ui"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type model struct {
	uctx     ui.Context
	events   chan<- ui.Event
	style    string // glamour style, "dark" or "light"
	renderer *glamour.TermRenderer

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	width    int
	ready    bool
	quitting bool

	history   []entry
	approvals []ui.ApprovalRequest // oldest first
	busy      bool
	activity  ui.Role // role of the last chunk streamed
}

// entry is a message in the history. While a message is streamed its text
// is built from role-tagged segments.
type entry struct {
	role     ui.Role
	raw      string
	text     string
	markdown bool // text is rendered from raw through glamour
	open     bool
	segments []segment
}

type segment struct {
	role ui.Role
	text string
}

// Messages sent to the program
type (
	historyMsg struct {
		role ui.Role
		text string
	}
	approvalMsg struct {
		req ui.ApprovalRequest
	}
	chunkMsg struct {
		role ui.Role
		text string
	}
	busyMsg  bool
	beginMsg struct{}
	endMsg   struct{}
	resetMsg struct{}
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	footerHeight = 2

	cmdApprove = "approve"
	cmdReject  = "reject"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newModel(uctx ui.Context, events chan<- ui.Event, style string) *model {
	input := textinput.New()
	input.Placeholder = "Send a message"
	input.CharLimit = 0
	input.Focus()

	return &model{
		uctx:    uctx,
		events:  events,
		style:   style,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

///////////////////////////////////////////////////////////////////////////////
// BUBBLETEA

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.key(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case busyMsg:
		m.busy = bool(msg)
		return m, nil
	case historyMsg:
		m.append(msg.role, msg.text)
		m.busy = false
	case approvalMsg:
		m.approvals = append(m.approvals, msg.req)
		m.append(ui.RoleSystem, approvalMarkdown(msg.req))
	case beginMsg:
		m.history = append(m.history, entry{open: true})
		m.busy = true
	case chunkMsg:
		m.chunk(msg.role, msg.text)
	case endMsg:
		m.end()
		m.busy = false
	case resetMsg:
		m.history, m.approvals = nil, nil
	default:
		return m, m.forward(msg, true)
	}
	m.layout()
	return m, nil
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Initializing..."
	}
	return m.viewport.View() + "\n" + m.input.View() + "\n" + m.status()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - INPUT

// key handles a key press. Navigation keys scroll the history, and other
// keys edit the prompt unless they answer an approval request.
func (m *model) key(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return tea.Quit
	case tea.KeyEnter:
		m.submit()
		return nil
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		return m.forward(msg, true)
	case tea.KeyRunes:
		if len(m.approvals) > 0 && m.input.Value() == "" {
			switch strings.ToLower(msg.String()) {
			case "y":
				m.answer(true)
				return nil
			case "n":
				m.answer(false)
				return nil
			}
		}
	}
	return m.forward(msg, false)
}

// forward passes a message to the prompt, and to the history when scroll
// is true
func (m *model) forward(msg tea.Msg, scroll bool) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if scroll {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// submit sends the prompt as a text or command event
func (m *model) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}
	m.input.SetValue("")
	m.append(roleUser, text)

	evt := ui.ParseText(m.uctx, text)
	if evt.Type == ui.EventCommand {
		m.answered(evt)
	}
	m.emit(evt)
	m.layout()
}

// answer responds to the oldest approval request
func (m *model) answer(approved bool) {
	req := m.approvals[0]
	m.approvals = m.approvals[1:]

	verb := "Rejected"
	if approved {
		verb = "Approved"
	}
	m.append(roleUser, verb+" "+title(req))
	m.emit(ui.Event{
		Type:    ui.EventApproval,
		Context: m.uctx,
		Text:    verb,
		Approval: &ui.ApprovalResponse{
			ToolCallID: req.ToolCallID,
			Approved:   approved,
		},
	})
	m.layout()
}

// answered removes the requests which a typed command answers: the tool
// call it names, or otherwise every request
func (m *model) answered(evt ui.Event) {
	if evt.Command != cmdApprove && evt.Command != cmdReject {
		return
	}
	if len(evt.Args) > 0 {
		if i := slices.IndexFunc(m.approvals, func(req ui.ApprovalRequest) bool {
			return req.ToolCallID == evt.Args[0]
		}); i >= 0 {
			m.approvals = slices.Delete(m.approvals, i, i+1)
			return
		}
	}
	m.approvals = nil
}

// emit passes an event to the caller, or notes that it was dropped when the
// caller has fallen behind
func (m *model) emit(evt ui.Event) {
	select {
	case m.events <- evt:
	default:
		m.append(ui.RoleError, "Still busy, try again")
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - HISTORY

func (m *model) append(role ui.Role, text string) {
	e := entry{role: role, raw: text, text: text}
	if role == ui.RoleAssistant || role == ui.RoleSystem {
		e.text, e.markdown = m.format(role, text), true
	}
	m.history = append(m.history, e)
}

// streaming returns the entry being streamed, or nil
func (m *model) streaming() *entry {
	if n := len(m.history); n > 0 && m.history[n-1].open {
		return &m.history[n-1]
	}
	return nil
}

func (m *model) chunk(role ui.Role, text string) {
	e := m.streaming()
	if e == nil {
		return
	}
	m.activity = role
	if e.role == "" {
		e.role = role
	}
	e.raw += text
	if n := len(e.segments); n > 0 && e.segments[n-1].role == role {
		e.segments[n-1].text += text
	} else {
		e.segments = append(e.segments, segment{role: role, text: text})
	}
	e.text = m.draft(e.segments)
}

// end closes the streamed entry. Each segment becomes an entry of its own,
// labelled with its role, and an entry with nothing streamed is dropped.
func (m *model) end() {
	m.activity = ""
	e := m.streaming()
	if e == nil {
		return
	}
	segments := e.segments
	if len(segments) == 0 {
		m.history = m.history[:len(m.history)-1]
		return
	}
	*e = m.closed(segments[0])
	for _, seg := range segments[1:] {
		m.history = append(m.history, m.closed(seg))
	}
}

func (m *model) closed(seg segment) entry {
	return entry{role: seg.role, raw: seg.text, text: m.format(seg.role, seg.text), markdown: true}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - LAYOUT

func (m *model) resize(width, height int) {
	m.width = width
	if m.ready {
		m.viewport.Width, m.viewport.Height = width, height-footerHeight
	} else {
		m.viewport = viewport.New(width, height-footerHeight)
		m.ready = true
	}
	m.input.Width = width - 4

	// Markdown is wrapped to the width, so closed entries are rendered again
	if r, err := newRenderer(m.style, m.wrap()); err == nil {
		m.renderer = r
	}
	for i := range m.history {
		if e := &m.history[i]; e.markdown && !e.open {
			e.text = m.format(e.role, e.raw)
		}
	}
	m.layout()
}

// layout sets the history content and scrolls to the end
func (m *model) layout() {
	var b strings.Builder
	for _, e := range m.history {
		if e.role != "" {
			b.WriteString(label(e.role))
		}
		if e.text != "" {
			b.WriteString("\n")
			if e.markdown {
				b.WriteString(e.text)
			} else {
				b.WriteString(indent(e.text))
			}
		}
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// status returns the line under the prompt: what the agent is doing, and
// the approval request the y and n keys answer
func (m *model) status() string {
	var parts []string
	if m.busy {
		activity := "thinking"
		if m.activity == ui.RoleTool {
			activity = "calling tool"
		}
		parts = append(parts, m.spinner.View()+" "+activity)
	}
	if n := len(m.approvals); n > 0 {
		ask := fmt.Sprintf("run %s? y/n", title(m.approvals[0]))
		if n > 1 {
			ask += fmt.Sprintf(" (%d more waiting)", n-1)
		}
		parts = append(parts, ask)
	}
	if len(parts) == 0 {
		parts = append(parts, "ctrl+c to quit")
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}
