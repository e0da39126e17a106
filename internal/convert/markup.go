package convert

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gerunddev/blockbridge/internal/block"
)

// markdownSpecial are the characters escaped in plain text
const markdownSpecial = "\\*_`[]~<&|"

// rendered is one span split into edge whitespace and the marked-up body
type rendered struct {
	lead, body, trail string
	// open and close are the delimiter runs at the edges of body, empty when
	// body does not start or end with emphasis markers
	open, close string
}

func (p rendered) String() string {
	return p.lead + p.body + p.trail
}

// inline renders a span sequence as inline markdown. A span whose emphasis
// markers would not open or close next to its neighbours is written with
// HTML tags instead.
func (r *renderer) inline(spans []block.RichText) string {
	spans = block.Coalesce(spans)
	parts := make([]rendered, len(spans))
	for i, s := range spans {
		parts[i] = r.span(s, false)
	}

	var b strings.Builder
	for i, p := range parts {
		if p.open != "" {
			prev, next := neighbours(parts, i)
			if !delimits(p, prev, next) {
				p = r.span(spans[i], true)
			}
		}
		b.WriteString(p.String())
	}
	return b.String()
}

// neighbours returns the runes rendered right before and after parts[i].
// Line edges count as whitespace.
func neighbours(parts []rendered, i int) (prev, next rune) {
	prev, next = ' ', ' '
	if parts[i].lead == "" {
		for j := i - 1; j >= 0; j-- {
			if s := parts[j].String(); s != "" {
				prev, _ = utf8.DecodeLastRuneInString(s)
				break
			}
		}
	}
	if parts[i].trail == "" {
		for j := i + 1; j < len(parts); j++ {
			if s := parts[j].String(); s != "" {
				next, _ = utf8.DecodeRuneInString(s)
				break
			}
		}
	}
	return prev, next
}

// delimits reports whether the outer delimiter runs of p can open and close
// between prev and next. Runs of the same character on either side would
// merge with them.
func delimits(p rendered, prev, next rune) bool {
	first, _ := utf8.DecodeRuneInString(p.open)
	last, _ := utf8.DecodeRuneInString(p.close)
	if prev == first || next == last {
		return false
	}

	after, _ := utf8.DecodeRuneInString(p.body[len(p.open):])
	before, _ := utf8.DecodeLastRuneInString(p.body[:len(p.body)-len(p.close)])

	if isPunct(after) && !unicode.IsSpace(prev) && !isPunct(prev) {
		return false
	}
	if isPunct(before) && !unicode.IsSpace(next) && !isPunct(next) {
		return false
	}
	return true
}

func isPunct(c rune) bool {
	return unicode.IsPunct(c) || unicode.IsSymbol(c)
}

// text renders block text whose lines start a markdown line. Leading and
// trailing breaks are dropped, indentation on continuation lines is kept as
// character references and every line is escaped against block markers.
func (r *renderer) text(spans []block.RichText) string {
	s := trimBreaks(r.inline(spans))
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			line = keepIndent(line)
		}
		lines[i] = escapeBlockStart(line)
	}
	return strings.Join(lines, "\n")
}

// heading renders heading text on one line. A trailing run of # would be
// read as a closing sequence, so it is escaped.
func (r *renderer) heading(spans []block.RichText) string {
	flat := make([]block.RichText, len(spans))
	for i, s := range spans {
		s.Text = strings.ReplaceAll(s.Text, "\n", " ")
		flat[i] = s
	}

	s := strings.TrimFunc(r.inline(flat), unicode.IsSpace)
	run := len(s) - len(strings.TrimRight(s, "#"))
	if run == 0 {
		return s
	}
	if at := len(s) - run; at == 0 || s[at-1] == ' ' || s[at-1] == '\t' {
		return s[:at] + "\\" + s[at:]
	}
	return s
}

// trimBreaks strips whitespace and hard breaks from both ends of s
func trimBreaks(s string) string {
	for {
		t := strings.TrimLeft(s, " \t")
		t = strings.TrimPrefix(t, "\\\n")
		t = strings.TrimRight(t, " \t")
		t = strings.TrimSuffix(t, "\\\n")
		if t == s {
			return s
		}
		s = t
	}
}

// keepIndent writes the first indentation character of a continuation line
// as a character reference, which the parser does not strip.
func keepIndent(line string) string {
	switch {
	case strings.HasPrefix(line, " "):
		return "&#32;" + line[1:]
	case strings.HasPrefix(line, "\t"):
		return "&#9;" + line[1:]
	}
	return line
}

// span wraps one span in its markers, innermost first: code, strikethrough,
// underline, italic, bold, then the link. Edge whitespace stays outside the
// markers so emphasis still parses. With html set, emphasis is written as
// tags.
func (r *renderer) span(s block.RichText, html bool) rendered {
	a := s.Annotations

	core := strings.TrimFunc(s.Text, unicode.IsSpace)
	if core == "" {
		if !a.Code {
			return rendered{body: escapeText(s.Text)}
		}
		core = s.Text
	}
	start := strings.Index(s.Text, core)
	p := rendered{
		lead:  escapeText(s.Text[:start]),
		trail: escapeText(s.Text[start+len(core):]),
	}

	wrap := func(marker, open, shut string) {
		if html {
			p.body = open + p.body + shut
			return
		}
		p.body = marker + p.body + marker
		if p.open != "" && p.open[0] == marker[0] {
			p.open += marker
			p.close = marker + p.close
			return
		}
		p.open, p.close = marker, marker
	}

	p.body = escapeText(core)
	if a.Code {
		p.body = codeSpan(core)
	}
	if a.Strikethrough {
		wrap("~~", "<del>", "</del>")
	}
	if a.Underline && r.conv.underline == UnderlineHTML {
		p.body = "<u>" + p.body + "</u>"
		p.open, p.close = "", ""
	}
	if a.Italic {
		wrap("*", "<em>", "</em>")
	}
	if a.Bold {
		wrap("**", "<strong>", "</strong>")
	}
	if s.Link != "" {
		p.body = "[" + p.body + "](" + linkDestination(s.Link) + ")"
		p.open, p.close = "", ""
	}

	return p
}

// escapeText backslash-escapes markdown punctuation and turns newlines
// into hard line breaks.
func escapeText(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c == '\n':
			b.WriteString("\\\n")
		case strings.ContainsRune(markdownSpecial, c):
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// codeSpan wraps s in enough backticks to hold any run inside it
func codeSpan(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	fence := strings.Repeat("`", longestRun(s, '`')+1)
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		s = " " + s + " "
	}
	return fence + s + fence
}

// linkDestination wraps destinations that would end the link early in <>
func linkDestination(dest string) string {
	if !strings.ContainsAny(dest, " ()<>") {
		return dest
	}
	dest = strings.NewReplacer("<", "%3C", ">", "%3E").Replace(dest)
	return "<" + dest + ">"
}

var blockStart = regexp.MustCompile(`^(#{1,6}(?:\s|$)|[-+](?:\s|$)|-+\s*$|=+\s*$|>|\d{1,9}[.)](?:\s|$))`)

// escapeBlockStart keeps a line of text that looks like a block marker or a
// setext underline from re-parsing as a heading, list item or quote.
func escapeBlockStart(s string) string {
	loc := blockStart.FindStringIndex(s)
	if loc == nil {
		return s
	}
	marker := s[:loc[1]]
	if i := strings.IndexAny(marker, ".)"); i > 0 && unicode.IsDigit(rune(marker[0])) {
		return s[:i] + "\\" + s[i:]
	}
	return "\\" + s
}
