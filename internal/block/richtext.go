package block

import (
	"strings"
	"unicode/utf8"
)

// Annotations is the set of independent style flags on a span
type Annotations struct {
	Bold          bool `json:"bold"`
	Italic        bool `json:"italic"`
	Strikethrough bool `json:"strikethrough"`
	Code          bool `json:"code"`
	Underline     bool `json:"underline"`
}

// Any reports whether at least one flag is set
func (a Annotations) Any() bool {
	return a.Bold || a.Italic || a.Strikethrough || a.Code || a.Underline
}

// Merge returns the union of a and o
func (a Annotations) Merge(o Annotations) Annotations {
	return Annotations{
		Bold:          a.Bold || o.Bold,
		Italic:        a.Italic || o.Italic,
		Strikethrough: a.Strikethrough || o.Strikethrough,
		Code:          a.Code || o.Code,
		Underline:     a.Underline || o.Underline,
	}
}

// RichText is an inline run of text with uniform formatting
type RichText struct {
	Text        string      `json:"text"`
	Annotations Annotations `json:"annotations"`
	Link        string      `json:"link,omitempty"`
}

// NewSpan creates a span with the given annotations and optional link
func NewSpan(text string, annotations Annotations, link string) RichText {
	return RichText{Text: text, Annotations: annotations, Link: link}
}

// Plain creates an unannotated span
func Plain(text string) RichText {
	return RichText{Text: text}
}

// Bold creates a bold span
func Bold(text string) RichText {
	return RichText{Text: text, Annotations: Annotations{Bold: true}}
}

// Italic creates an italic span
func Italic(text string) RichText {
	return RichText{Text: text, Annotations: Annotations{Italic: true}}
}

// Code creates an inline code span
func Code(text string) RichText {
	return RichText{Text: text, Annotations: Annotations{Code: true}}
}

// Link creates an unannotated span linked to url
func Link(text, url string) RichText {
	return RichText{Text: text, Link: url}
}

// SameStyle reports whether two spans can be coalesced
func (r RichText) SameStyle(o RichText) bool {
	return r.Annotations == o.Annotations && r.Link == o.Link
}

// Equal reports whether two spans are identical
func (r RichText) Equal(o RichText) bool {
	return r.Text == o.Text && r.SameStyle(o)
}

// Equal reports whether two span sequences are identical
func Equal(a, b []RichText) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Coalesce merges adjacent spans with identical style and drops empty spans.
// The input slice is not modified.
func Coalesce(spans []RichText) []RichText {
	var out []RichText
	for _, s := range spans {
		if s.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].SameStyle(s) {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

// PlainText concatenates the text of all spans
func PlainText(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// SplitLong splits spans whose text exceeds max runes into consecutive spans
// with the same style. A max of zero or less returns the input unchanged.
func SplitLong(spans []RichText, max int) []RichText {
	if max <= 0 {
		return spans
	}

	var out []RichText
	for _, s := range spans {
		if utf8.RuneCountInString(s.Text) <= max {
			out = append(out, s)
			continue
		}

		rest := s.Text
		for rest != "" {
			cut := len(rest)
			count := 0
			for i := range rest {
				if count == max {
					cut = i
					break
				}
				count++
			}
			chunk := s
			chunk.Text = rest[:cut]
			out = append(out, chunk)
			rest = rest[cut:]
		}
	}
	return out
}
