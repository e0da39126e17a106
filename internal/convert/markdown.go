package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/gerunddev/blockbridge/internal/block"
)

// engine is shared by all converters; goldmark parsers keep no state between calls
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var errInvalidUTF8 = errors.New("input is not valid UTF-8")

// MarkdownToBlocks converts markdown content to a block tree
func (c *Converter) MarkdownToBlocks(markdown string) ([]block.Block, error) {
	doc, err := c.ParseDocument(markdown)
	if err != nil {
		return nil, err
	}
	return doc.Blocks, nil
}

// parse maps the goldmark AST of source to blocks. lineOffset shifts
// reported line numbers past any front matter that was split off.
func (c *Converter) parse(source []byte, lineOffset int) ([]block.Block, error) {
	if !utf8.Valid(source) {
		return nil, &block.ParseError{
			Format: "markdown",
			Line:   invalidUTF8Line(source) + lineOffset,
			Err:    errInvalidUTF8,
		}
	}

	root, err := parseAST(source)
	if err != nil {
		return nil, err
	}

	m := &mapper{conv: c, source: source, lineOffset: lineOffset}
	blocks, err := m.children(root)
	if err != nil {
		return nil, err
	}

	if c.assignIDs {
		assignIDs(blocks)
	}
	if blocks == nil {
		blocks = []block.Block{}
	}
	return blocks, nil
}

// parseAST runs goldmark, turning a parser panic into a ParseError
func parseAST(source []byte) (root ast.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = &block.ParseError{Format: "markdown", Err: fmt.Errorf("%v", r)}
		}
	}()
	return engine.Parser().Parse(text.NewReader(source)), nil
}

func invalidUTF8Line(source []byte) int {
	line := 1
	for i := 0; i < len(source); {
		r, size := utf8.DecodeRune(source[i:])
		if r == utf8.RuneError && size <= 1 {
			return line
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return line
}

func assignIDs(blocks []block.Block) {
	for i := range blocks {
		blocks[i].ID = uuid.NewString()
		assignIDs(blocks[i].Children)
	}
}

// mapper walks a goldmark AST and builds blocks
type mapper struct {
	conv       *Converter
	source     []byte
	lineOffset int
}

// children maps every child of parent in document order
func (m *mapper) children(parent ast.Node) ([]block.Block, error) {
	var out []block.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		blocks, err := m.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks...)
	}
	return out, nil
}

// node maps one block-level AST node. Lists expand to one block per item.
func (m *mapper) node(n ast.Node) ([]block.Block, error) {
	switch node := n.(type) {
	case *ast.Heading:
		spans, err := m.richText(node)
		if err != nil {
			return nil, err
		}
		// Levels above 3 clamp to heading_3
		return []block.Block{block.New(block.Heading(node.Level), spans...)}, nil

	case *ast.Paragraph, *ast.TextBlock:
		return m.paragraph(node)

	case *ast.List:
		return m.list(node)

	case *ast.Blockquote:
		b, err := m.quote(node)
		if err != nil {
			return nil, err
		}
		return []block.Block{b}, nil

	case *ast.FencedCodeBlock:
		lang := strings.TrimSpace(string(node.Language(m.source)))
		return []block.Block{m.code(node, lang)}, nil

	case *ast.CodeBlock:
		return []block.Block{m.code(node, "")}, nil

	case *ast.ThematicBreak:
		return []block.Block{block.NewDivider()}, nil

	default:
		return m.unsupported(n)
	}
}

// paragraph maps a paragraph, splitting out direct image children as image blocks
func (m *mapper) paragraph(n ast.Node) ([]block.Block, error) {
	pieces, err := m.pieces(n)
	if err != nil {
		return nil, err
	}

	var out []block.Block
	var run []block.RichText

	flush := func() {
		spans := m.finish(run)
		run = nil
		if strings.TrimSpace(block.PlainText(spans)) == "" {
			return
		}
		out = append(out, block.New(block.TypeParagraph, trimSpans(spans)...))
	}

	for _, p := range pieces {
		if p.image != "" {
			flush()
			out = append(out, block.NewImage(p.image))
			continue
		}
		run = append(run, p.span)
	}
	flush()

	return out, nil
}

// list maps every item of a list
func (m *mapper) list(list *ast.List) ([]block.Block, error) {
	var out []block.Block
	for n := list.FirstChild(); n != nil; n = n.NextSibling() {
		item, ok := n.(*ast.ListItem)
		if !ok {
			continue
		}
		b, err := m.listItem(list, item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// listItem maps an item: its leading paragraph becomes the rich text and
// every following block becomes a child.
func (m *mapper) listItem(list *ast.List, item *ast.ListItem) (block.Block, error) {
	b := block.Block{Type: block.TypeBulletedListItem}
	if list.IsOrdered() {
		b.Type = block.TypeNumberedListItem
	}

	rest := item.FirstChild()
	switch rest.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if box, ok := rest.FirstChild().(*extast.TaskCheckBox); ok {
			b.Type = block.TypeToDo
			b.Checked = block.Bool(box.IsChecked)
		}
		spans, err := m.richText(rest)
		if err != nil {
			return block.Block{}, err
		}
		b.RichText = trimSpans(spans)
		rest = rest.NextSibling()
	}

	for n := rest; n != nil; n = n.NextSibling() {
		children, err := m.node(n)
		if err != nil {
			return block.Block{}, err
		}
		b.Children = append(b.Children, children...)
	}

	return b, nil
}

// quote maps a blockquote: the first paragraph is the rich text, the rest are children
func (m *mapper) quote(q *ast.Blockquote) (block.Block, error) {
	b := block.Block{Type: block.TypeQuote}

	rest := q.FirstChild()
	if p, ok := rest.(*ast.Paragraph); ok {
		spans, err := m.richText(p)
		if err != nil {
			return block.Block{}, err
		}
		b.RichText = trimSpans(spans)
		rest = p.NextSibling()
	}

	for n := rest; n != nil; n = n.NextSibling() {
		children, err := m.node(n)
		if err != nil {
			return block.Block{}, err
		}
		b.Children = append(b.Children, children...)
	}

	return b, nil
}

// code maps fenced and indented code blocks; content is kept verbatim
func (m *mapper) code(n ast.Node, lang string) block.Block {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(m.source))
	}

	if lang == "" {
		lang = m.conv.defaultLanguage
	}

	b := block.Block{Type: block.TypeCode, Language: lang}
	content := strings.TrimSuffix(buf.String(), "\n")
	if content != "" {
		b.RichText = m.finish([]block.RichText{block.Plain(content)})
	}
	return b
}

// unsupported fails in strict mode and degrades to a plain paragraph otherwise
func (m *mapper) unsupported(n ast.Node) ([]block.Block, error) {
	if !m.conv.lenient {
		return nil, m.unsupportedErr(n)
	}

	raw := strings.TrimRight(m.rawText(n), "\n")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return []block.Block{block.New(block.TypeParagraph, m.finish([]block.RichText{block.Plain(raw)})...)}, nil
}

func (m *mapper) unsupportedErr(n ast.Node) error {
	return &block.UnsupportedConstructError{
		Construct: n.Kind().String(),
		Line:      m.line(n),
	}
}

// finish coalesces spans and applies the text length limit
func (m *mapper) finish(spans []block.RichText) []block.RichText {
	return block.SplitLong(block.Coalesce(spans), m.conv.maxTextLength)
}

// rawText returns the source text of a node for lenient fallbacks
func (m *mapper) rawText(n ast.Node) string {
	if n.Type() == ast.TypeInline {
		return m.plainText(n)
	}

	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(m.source))
		}
		if hb, ok := n.(*ast.HTMLBlock); ok && hb.HasClosure() {
			buf.Write(hb.ClosureLine.Value(m.source))
		}
		return buf.String()
	}

	sep := "\n"
	switch n.(type) {
	case *extast.TableRow, *extast.TableHeader:
		sep = " | "
	}

	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		parts = append(parts, strings.TrimRight(m.rawText(c), "\n"))
	}
	return strings.Join(parts, sep)
}

// line returns the 1-based source line of a node, or 0 when unknown
func (m *mapper) line(n ast.Node) int {
	for cur := n; cur != nil; cur = cur.Parent() {
		if off, ok := m.offset(cur); ok {
			if off > len(m.source) {
				off = len(m.source)
			}
			return bytes.Count(m.source[:off], []byte("\n")) + 1 + m.lineOffset
		}
	}
	return 0
}

func (m *mapper) offset(n ast.Node) (int, bool) {
	switch node := n.(type) {
	case *ast.Text:
		return node.Segment.Start, true
	case *ast.RawHTML:
		if node.Segments != nil && node.Segments.Len() > 0 {
			return node.Segments.At(0).Start, true
		}
	}

	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := m.offset(c); ok {
			return off, true
		}
	}
	return 0, false
}
