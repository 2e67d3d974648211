package telegram

import (
	"strconv"
	"strings"

	// Packages
	gte "github.com/igor-pavlenko/goldmark-telegram/extension"
	gteast "github.com/igor-pavlenko/goldmark-telegram/extension/ast"
	goldmark "github.com/yuin/goldmark"
	ast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	text "github.com/yuin/goldmark/text"
	tele "gopkg.in/telebot.v4"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// message is plain text with the entities which format it. Offsets and
// lengths are in UTF-16 code units.
type message struct {
	text     string
	entities tele.Entities
}

type renderer struct {
	source   []byte
	buf      strings.Builder
	entities tele.Entities
	offset   int // UTF-16 length of buf
	ordinal  int // next ordered list number, or zero in an unordered list
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Maximum length of a message, in UTF-16 code units
	maxMessage = 4096

	bullet    = "• "
	ruleBreak = "───"
)

var markdown = goldmark.New(goldmark.WithExtensions(gte.GTE))

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// render converts Markdown into a message. Block elements become line
// breaks and bullets, and inline formatting becomes entities.
func render(md string) message {
	r := &renderer{source: []byte(md)}
	r.walk(markdown.Parser().Parse(text.NewReader(r.source)))
	return message{
		text:     strings.TrimRight(r.buf.String(), "\n"),
		entities: r.entities,
	}
}

// styled returns a message where one entity covers all the text.
func styled(s string, typ tele.EntityType) message {
	return message{text: s, entities: tele.Entities{{Type: typ, Length: utf16Len(s)}}}
}

// split breaks a message into messages of at most limit UTF-16 code units,
// breaking after a newline where possible. Entities are clipped to each part.
func split(m message, limit int) []message {
	var result []message
	rest, offset := m.text, 0
	for {
		trimmed := strings.TrimLeft(rest, "\n")
		offset += len(rest) - len(trimmed)
		if rest = trimmed; rest == "" {
			return result
		}
		head := rest[:cut(rest, limit)]
		body := strings.TrimRight(head, "\n")
		result = append(result, message{
			text:     body,
			entities: clip(m.entities, offset, utf16Len(body)),
		})
		rest = rest[len(head):]
		offset += utf16Len(head)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - RENDERER

func (r *renderer) write(s string) {
	r.buf.WriteString(s)
	r.offset += utf16Len(s)
}

// span records an entity of the given type around whatever fn writes
func (r *renderer) span(typ tele.EntityType, fn func(), opts ...func(*tele.MessageEntity)) {
	start := r.offset
	fn()
	if r.offset == start {
		return
	}
	entity := tele.MessageEntity{Type: typ, Offset: start, Length: r.offset - start}
	for _, opt := range opts {
		opt(&entity)
	}
	r.entities = append(r.entities, entity)
}

// newline ends the current line, if there is one
func (r *renderer) newline() {
	if s := r.buf.String(); s != "" && !strings.HasSuffix(s, "\n") {
		r.write("\n")
	}
}

// paragraph leaves a blank line before a new block
func (r *renderer) paragraph() {
	switch s := r.buf.String(); {
	case s == "", strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		r.write("\n")
	default:
		r.write("\n\n")
	}
}

func (r *renderer) children(node ast.Node) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.walk(c)
	}
}

// lines writes the raw lines of a code block without the final newline
func (r *renderer) lines(node ast.Node) {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(r.source))
	}
	r.write(strings.TrimSuffix(b.String(), "\n"))
}

func (r *renderer) walk(node ast.Node) {
	switch n := node.(type) {
	case *ast.Document, *ast.TextBlock:
		r.children(n)
	case *ast.Paragraph:
		r.paragraph()
		r.children(n)
	case *ast.Heading:
		r.paragraph()
		r.span(tele.EntityBold, func() { r.children(n) })
	case *ast.Blockquote:
		r.paragraph()
		r.span(tele.EntityBlockquote, func() { r.children(n) })
	case *ast.List:
		r.newline()
		saved := r.ordinal
		r.ordinal = 0
		if n.IsOrdered() {
			r.ordinal = max(n.Start, 1)
		}
		r.children(n)
		r.ordinal = saved
	case *ast.ListItem:
		r.newline()
		if r.ordinal > 0 {
			r.write(strconv.Itoa(r.ordinal) + ". ")
			r.ordinal++
		} else {
			r.write(bullet)
		}
		r.children(n)
	case *ast.FencedCodeBlock:
		r.paragraph()
		lang := string(n.Language(r.source))
		r.span(tele.EntityCodeBlock, func() { r.lines(n) }, func(e *tele.MessageEntity) { e.Language = lang })
	case *ast.CodeBlock:
		r.paragraph()
		r.span(tele.EntityCodeBlock, func() { r.lines(n) })
	case *ast.ThematicBreak:
		r.paragraph()
		r.write(ruleBreak)
	case *ast.Emphasis:
		typ := tele.EntityItalic
		if n.Level == 2 {
			typ = tele.EntityBold
		}
		r.span(typ, func() { r.children(n) })
	case *ast.CodeSpan:
		r.span(tele.EntityCode, func() {
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					r.write(string(t.Segment.Value(r.source)))
				}
			}
		})
	case *ast.Link:
		url := string(n.Destination)
		r.span(tele.EntityTextLink, func() { r.children(n) }, func(e *tele.MessageEntity) { e.URL = url })
	case *ast.Image:
		url := string(n.Destination)
		r.span(tele.EntityTextLink, func() { r.children(n) }, func(e *tele.MessageEntity) { e.URL = url })
	case *ast.AutoLink:
		r.write(string(n.URL(r.source)))
	case *ast.Text:
		r.write(string(n.Segment.Value(r.source)))
		if n.HardLineBreak() || n.SoftLineBreak() {
			r.write("\n")
		}
	case *ast.String:
		r.write(string(n.Value))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			r.write(string(seg.Value(r.source)))
		}
	default:
		switch node.Kind() {
		case east.KindStrikethrough:
			r.span(tele.EntityStrikethrough, func() { r.children(node) })
		case gteast.KindUnderline:
			r.span(tele.EntityUnderline, func() { r.children(node) })
		default:
			r.children(node)
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// cut returns the byte index at which to break s so the head is at most
// limit UTF-16 code units, after the last newline if there is one
func cut(s string, limit int) int {
	n, end, newline := 0, len(s), 0
	for i, r := range s {
		w := 1
		if r >= 0x10000 {
			w = 2
		}
		if n+w > limit {
			end = i
			break
		}
		n += w
		if r == '\n' {
			newline = i + 1
		}
	}
	if end < len(s) && newline > 0 {
		return newline
	}
	return max(end, 1)
}

// clip returns the entities which overlap the range, relative to its start
func clip(entities tele.Entities, offset, length int) tele.Entities {
	var result tele.Entities
	for _, e := range entities {
		start, stop := max(e.Offset, offset), min(e.Offset+e.Length, offset+length)
		if stop <= start {
			continue
		}
		e.Offset, e.Length = start-offset, stop-start
		result = append(result, e)
	}
	return result
}

// utf16Len returns the length of s in UTF-16 code units, which is the unit
// of Telegram entity offsets
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
