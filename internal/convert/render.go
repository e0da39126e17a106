package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gerunddev/blockbridge/internal/block"
)

// BlocksToMarkdown renders a block tree as markdown. The output has no
// trailing newline.
func (c *Converter) BlocksToMarkdown(blocks []block.Block) (string, error) {
	r := &renderer{conv: c}
	return r.blocks(blocks, "", 0)
}

// renderer serializes blocks using the converter's options
type renderer struct {
	conv *Converter
}

// blocks renders siblings. Items of the same list are separated by a single
// newline, everything else by a blank line. slack is the indentation the
// siblings already carry past the content column of their container.
func (r *renderer) blocks(blocks []block.Block, prefix string, slack int) (string, error) {
	var b strings.Builder
	var prev block.Type
	number := 0

	for i, blk := range blocks {
		path := block.ChildPath(prefix, i)

		if blk.Type == block.TypeNumberedListItem {
			number++
		} else {
			number = 0
		}

		chunk, err := r.block(blk, path, number, slack)
		if err != nil {
			return "", err
		}
		if chunk == "" {
			prev = blk.Type
			continue
		}

		if b.Len() > 0 {
			if sameList(prev, blk.Type) {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(chunk)
		prev = blk.Type
	}

	return b.String(), nil
}

// block renders one block and its children. number is the position of a
// numbered item within its run.
func (r *renderer) block(blk block.Block, path string, number, slack int) (string, error) {
	if !blk.Type.Known() {
		if strings.TrimSpace(string(blk.Type)) != "" {
			return "", &block.UnsupportedConstructError{Construct: string(blk.Type), Path: path}
		}
	}
	if err := blk.ValidateFields(); err != nil {
		var m *block.MalformedBlockError
		if errors.As(err, &m) {
			m.Path = path
		}
		return "", err
	}

	switch blk.Type {
	case block.TypeParagraph:
		return r.withChildren(r.text(blk.RichText), blk, path, slack)

	case block.TypeHeading1, block.TypeHeading2, block.TypeHeading3:
		line := strings.Repeat("#", blk.Type.HeadingLevel()) + " " + r.heading(blk.RichText)
		return r.withChildren(line, blk, path, slack)

	case block.TypeBulletedListItem, block.TypeToggle:
		return r.listItem("- ", "", blk, path)

	case block.TypeNumberedListItem:
		return r.listItem(fmt.Sprintf("%d. ", number), "", blk, path)

	case block.TypeToDo:
		box := "[ ] "
		if *blk.Checked {
			box = "[x] "
		}
		return r.listItem("- ", box, blk, path)

	case block.TypeQuote:
		return r.quote(r.text(blk.RichText), blk, path)

	case block.TypeCallout:
		text := r.text(blk.RichText)
		if blk.Icon != "" {
			text = strings.TrimSpace(blk.Icon + " " + text)
		}
		return r.quote(text, blk, path)

	case block.TypeCode:
		return r.code(blk), nil

	case block.TypeDivider:
		return "---", nil

	case block.TypeImage:
		return "![](" + linkDestination(blk.URL) + ")", nil

	case block.TypeBookmark:
		return "[" + escapeText(blk.URL) + "](" + linkDestination(blk.URL) + ")", nil

	case block.TypeEquation:
		return "$$\n" + strings.TrimSpace(blk.Expression) + "\n$$", nil

	default:
		return "", &block.UnsupportedConstructError{Construct: string(blk.Type), Path: path}
	}
}

// withChildren appends the indented children of a non-list block below its
// own line. Indentation stops growing before it would reach an indented code
// block.
func (r *renderer) withChildren(own string, blk block.Block, path string, slack int) (string, error) {
	if len(blk.Children) == 0 {
		return own, nil
	}

	unit := r.conv.indent
	if slack+len(unit) > 3 {
		unit = ""
	}

	kids, err := r.blocks(blk.Children, path+"/children", slack+len(unit))
	if err != nil {
		return "", err
	}
	return attach(own, indentLines(kids, unit), "\n\n"), nil
}

// listItem renders an item behind its marker. Continuation lines and
// children are indented to the item's content column. A list item whose
// first child is not a list item gets a blank line so the child does not
// read as a lazy continuation of the item's text.
func (r *renderer) listItem(marker, box string, blk block.Block, path string) (string, error) {
	width := len(marker)
	own := marker + box + strings.ReplaceAll(r.text(blk.RichText), "\n", "\n"+strings.Repeat(" ", width))
	if len(blk.Children) == 0 {
		return own, nil
	}

	unit := r.childIndent(width)
	kids, err := r.blocks(blk.Children, path+"/children", len(unit)-width)
	if err != nil {
		return "", err
	}

	sep := "\n\n"
	if blk.Children[0].Type.IsListItem() {
		sep = "\n"
	}
	return attach(own, indentLines(kids, unit), sep), nil
}

// childIndent returns the configured indent unit when it lands children
// inside a list item whose marker is width wide, and width spaces otherwise.
func (r *renderer) childIndent(width int) string {
	unit := r.conv.indent
	if len(unit) < width || len(unit) > width+3 {
		return strings.Repeat(" ", width)
	}
	return unit
}

func attach(own, kids, sep string) string {
	switch {
	case kids == "":
		return own
	case own == "":
		return kids
	}
	return own + sep + kids
}

// quote renders text and children inside a blockquote
func (r *renderer) quote(text string, blk block.Block, path string) (string, error) {
	content := text
	if len(blk.Children) > 0 {
		kids, err := r.blocks(blk.Children, path+"/children", 0)
		if err != nil {
			return "", err
		}
		switch {
		case content == "":
			content = kids
		case kids != "":
			content += "\n\n" + kids
		}
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n"), nil
}

// code renders a fenced code block. The fence grows past any backtick run
// in the content.
func (r *renderer) code(blk block.Block) string {
	content := block.PlainText(blk.RichText)
	fence := strings.Repeat("`", max(3, longestRun(content, '`')+1))

	lang := blk.Language
	if lang == DefaultLanguage || lang == r.conv.defaultLanguage {
		lang = ""
	}

	if content == "" {
		return fence + lang + "\n" + fence
	}
	return fence + lang + "\n" + content + "\n" + fence
}

// sameList reports whether b continues a list ended by a
func sameList(a, b block.Type) bool {
	if !a.IsListItem() || !b.IsListItem() {
		return false
	}
	return (a == block.TypeNumberedListItem) == (b == block.TypeNumberedListItem)
}

// indentLines prefixes every non-empty line with unit
func indentLines(s, unit string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = unit + line
		}
	}
	return strings.Join(lines, "\n")
}

func longestRun(s string, ch rune) int {
	longest, cur := 0, 0
	for _, c := range s {
		if c == ch {
			cur++
			longest = max(longest, cur)
			continue
		}
		cur = 0
	}
	return longest
}
