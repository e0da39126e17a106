package convert

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"github.com/gerunddev/blockbridge/internal/block"
)

// piece is one inline result: a span, or an image that a paragraph lifts
// into its own block.
type piece struct {
	span  block.RichText
	image string
}

// pieces collects the inline content of a block node
func (m *mapper) pieces(n ast.Node) ([]piece, error) {
	var out []piece
	if err := m.inlines(n, block.Annotations{}, "", true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// richText returns the inline content of n as spans. Images that would be
// lifted out of a paragraph become linked alt text instead.
func (m *mapper) richText(n ast.Node) ([]block.RichText, error) {
	pieces, err := m.pieces(n)
	if err != nil {
		return nil, err
	}

	spans := make([]block.RichText, 0, len(pieces))
	for _, p := range pieces {
		if p.image != "" {
			spans = append(spans, block.Link(p.span.Text, p.image))
			continue
		}
		spans = append(spans, p.span)
	}
	return m.finish(spans), nil
}

// inlines walks the children of parent. Raw <u>, <strong>, <em> and <del>
// tags toggle their annotation for the siblings between them.
func (m *mapper) inlines(parent ast.Node, ann block.Annotations, link string, top bool, out *[]piece) error {
	cur := ann
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		raw, ok := n.(*ast.RawHTML)
		if !ok {
			if err := m.inline(n, cur, link, top, out); err != nil {
				return err
			}
			continue
		}

		tag := m.rawHTML(raw)
		switch normalizeTag(tag) {
		case "<u>":
			cur.Underline = true
		case "</u>":
			cur.Underline = ann.Underline
		case "<strong>", "<b>":
			cur.Bold = true
		case "</strong>", "</b>":
			cur.Bold = ann.Bold
		case "<em>", "<i>":
			cur.Italic = true
		case "</em>", "</i>":
			cur.Italic = ann.Italic
		case "<del>", "<s>":
			cur.Strikethrough = true
		case "</del>", "</s>":
			cur.Strikethrough = ann.Strikethrough
		case "<br>", "<br/>":
			emit(out, "\n", cur, link)
		default:
			if !m.conv.lenient {
				return m.unsupportedErr(raw)
			}
			emit(out, tag, cur, link)
		}
	}
	return nil
}

// inline maps a single inline node, composing annotations on the way down
func (m *mapper) inline(n ast.Node, ann block.Annotations, link string, top bool, out *[]piece) error {
	switch node := n.(type) {
	case *ast.Text:
		value := node.Segment.Value(m.source)
		if !node.IsRaw() {
			value = unescape(value)
		}
		emit(out, string(value), ann, link)
		switch {
		case node.HardLineBreak():
			emit(out, "\n", ann, link)
		case node.SoftLineBreak():
			emit(out, " ", ann, link)
		}

	case *ast.String:
		emit(out, string(node.Value), ann, link)

	case *ast.Emphasis:
		next := ann
		if node.Level >= 2 {
			next.Bold = true
		} else {
			next.Italic = true
		}
		return m.inlines(node, next, link, false, out)

	case *extast.Strikethrough:
		next := ann
		next.Strikethrough = true
		return m.inlines(node, next, link, false, out)

	case *ast.CodeSpan:
		next := ann
		next.Code = true
		emit(out, m.codeSpan(node), next, link)

	case *ast.Link:
		return m.inlines(node, ann, string(node.Destination), false, out)

	case *ast.AutoLink:
		emit(out, string(node.Label(m.source)), ann, string(node.URL(m.source)))

	case *ast.Image:
		dest := string(node.Destination)
		if !absoluteURL(dest) && m.conv.strictImages && !m.conv.lenient {
			return &block.UnsupportedConstructError{Construct: "relative image", Line: m.line(node)}
		}
		alt := m.plainText(node)
		if alt == "" {
			alt = dest
		}
		if top && link == "" && !ann.Any() && absoluteURL(dest) {
			*out = append(*out, piece{span: block.Plain(alt), image: dest})
			return nil
		}
		emit(out, alt, ann, dest)

	case *extast.TaskCheckBox:
		// checked state is read by the list item mapper

	default:
		if !m.conv.lenient {
			return m.unsupportedErr(n)
		}
		emit(out, m.plainText(n), ann, link)
	}
	return nil
}

func emit(out *[]piece, text string, ann block.Annotations, link string) {
	if text == "" {
		return
	}
	*out = append(*out, piece{span: block.NewSpan(text, ann, link)})
}

// codeSpan returns code span content verbatim; line endings become spaces
func (m *mapper) codeSpan(n *ast.CodeSpan) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(m.source))
		case *ast.String:
			b.Write(t.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

// plainText flattens the text content of an inline subtree
func (m *mapper) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			value := t.Segment.Value(m.source)
			if !t.IsRaw() {
				value = unescape(value)
			}
			b.Write(value)
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.RawHTML:
			b.WriteString(m.rawHTML(t))
		case *ast.AutoLink:
			b.Write(t.Label(m.source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (m *mapper) rawHTML(n *ast.RawHTML) string {
	var b strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		b.Write(seg.Value(m.source))
	}
	return b.String()
}

// unescape resolves backslash escapes and character references in one
// pass, so an escaped & never starts a reference.
func unescape(value []byte) []byte {
	out := make([]byte, 0, len(value))
	start := 0
	for i := 0; i < len(value)-1; i++ {
		if value[i] == '\\' && util.IsPunct(value[i+1]) {
			out = append(out, resolveReferences(value[start:i])...)
			out = append(out, value[i+1])
			i++
			start = i + 1
		}
	}
	return append(out, resolveReferences(value[start:])...)
}

func resolveReferences(value []byte) []byte {
	return util.ResolveEntityNames(util.ResolveNumericReferences(value))
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return strings.Join(strings.Fields(tag), "")
}

// absoluteURL reports whether s has a scheme and host, or is a mailto/data URL
func absoluteURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// trimSpans strips whitespace from the outer edges of a span run. Code spans
// keep their content.
func trimSpans(spans []block.RichText) []block.RichText {
	if len(spans) == 0 {
		return spans
	}
	out := make([]block.RichText, len(spans))
	copy(out, spans)

	if first := &out[0]; !first.Annotations.Code {
		first.Text = strings.TrimLeftFunc(first.Text, unicode.IsSpace)
	}
	if last := &out[len(out)-1]; !last.Annotations.Code {
		last.Text = strings.TrimRightFunc(last.Text, unicode.IsSpace)
	}

	kept := out[:0]
	for _, s := range out {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	return kept
}
