package convert

import (
	"errors"
	"testing"

	"github.com/gerunddev/blockbridge/internal/block"
)

func TestBlocksToMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    []block.Block
		expected string
	}{
		{
			name:     "checked to-do",
			input:    []block.Block{block.NewToDo(true, block.Plain("Done"))},
			expected: "- [x] Done",
		},
		{
			name:     "unchecked to-do",
			input:    []block.Block{block.NewToDo(false, block.Plain("Open"))},
			expected: "- [ ] Open",
		},
		{
			name:     "code with language",
			input:    []block.Block{block.NewCode("python", "print(1)")},
			expected: "```python\nprint(1)\n```",
		},
		{
			name:     "plain text code has a bare fence",
			input:    []block.Block{block.NewCode(DefaultLanguage, "text")},
			expected: "```\ntext\n```",
		},
		{
			name:     "code fence grows past backticks",
			input:    []block.Block{block.NewCode("md", "```go\nx\n```")},
			expected: "````md\n```go\nx\n```\n````",
		},
		{
			name: "nested bulleted list",
			input: []block.Block{
				{
					Type:     block.TypeBulletedListItem,
					RichText: []block.RichText{block.Plain("a")},
					Children: []block.Block{block.New(block.TypeBulletedListItem, block.Plain("b"))},
				},
			},
			expected: "- a\n  - b",
		},
		{
			name: "headings",
			input: []block.Block{
				block.New(block.TypeHeading1, block.Plain("One")),
				block.New(block.TypeHeading2, block.Plain("Two")),
				block.New(block.TypeHeading3, block.Plain("Three")),
			},
			expected: "# One\n\n## Two\n\n### Three",
		},
		{
			name: "numbering restarts after a break",
			input: []block.Block{
				block.New(block.TypeNumberedListItem, block.Plain("a")),
				block.New(block.TypeNumberedListItem, block.Plain("b")),
				block.New(block.TypeParagraph, block.Plain("break")),
				block.New(block.TypeNumberedListItem, block.Plain("c")),
			},
			expected: "1. a\n2. b\n\nbreak\n\n1. c",
		},
		{
			name: "list kinds are separated",
			input: []block.Block{
				block.New(block.TypeBulletedListItem, block.Plain("a")),
				block.NewToDo(false, block.Plain("b")),
				block.New(block.TypeNumberedListItem, block.Plain("c")),
			},
			expected: "- a\n- [ ] b\n\n1. c",
		},
		{
			name: "empty paragraphs are skipped",
			input: []block.Block{
				block.New(block.TypeParagraph, block.Plain("a")),
				block.New(block.TypeParagraph),
				block.New(block.TypeParagraph, block.Plain("b")),
			},
			expected: "a\n\nb",
		},
		{
			name: "list item with paragraph child",
			input: []block.Block{
				{
					Type:     block.TypeBulletedListItem,
					RichText: []block.RichText{block.Plain("item")},
					Children: []block.Block{block.New(block.TypeParagraph, block.Plain("more"))},
				},
			},
			expected: "- item\n\n  more",
		},
		{
			name: "quote with children",
			input: []block.Block{
				{
					Type:     block.TypeQuote,
					RichText: []block.RichText{block.Plain("first")},
					Children: []block.Block{block.New(block.TypeParagraph, block.Plain("second"))},
				},
			},
			expected: "> first\n>\n> second",
		},
		{
			name:     "callout",
			input:    []block.Block{{Type: block.TypeCallout, Icon: "💡", RichText: []block.RichText{block.Plain("Tip")}}},
			expected: "> 💡 Tip",
		},
		{
			name:     "toggle",
			input:    []block.Block{block.New(block.TypeToggle, block.Plain("More"))},
			expected: "- More",
		},
		{
			name:     "divider",
			input:    []block.Block{block.NewDivider()},
			expected: "---",
		},
		{
			name:     "image",
			input:    []block.Block{block.NewImage("https://example.com/a.png")},
			expected: "![](https://example.com/a.png)",
		},
		{
			name:     "bookmark",
			input:    []block.Block{{Type: block.TypeBookmark, URL: "https://example.com"}},
			expected: "[https://example.com](https://example.com)",
		},
		{
			name:     "equation",
			input:    []block.Block{{Type: block.TypeEquation, Expression: "e = mc^2"}},
			expected: "$$\ne = mc^2\n$$",
		},
		{
			name:     "paragraph that looks like a heading",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("# not a heading"))},
			expected: "\\# not a heading",
		},
		{
			name:     "paragraph that looks like a list",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("1. not a list"))},
			expected: "1\\. not a list",
		},
		{
			name:     "hard line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("one\ntwo"))},
			expected: "one\\\ntwo",
		},
		{
			name:     "heading marker after a line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("a\n# b"))},
			expected: "a\\\n\\# b",
		},
		{
			name:     "list marker after a line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("Items:\n- one\n+ two\n3. three"))},
			expected: "Items:\\\n\\- one\\\n\\+ two\\\n3\\. three",
		},
		{
			name:     "quote marker after a line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("a\n> b"))},
			expected: "a\\\n\\> b",
		},
		{
			name:     "setext underline after a line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("a\n==="))},
			expected: "a\\\n\\===",
		},
		{
			name:     "dash underline after a line break",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("a\n--"))},
			expected: "a\\\n\\--",
		},
		{
			name:     "continuation indentation is kept",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("a\n    b"))},
			expected: "a\\\n&#32;   b",
		},
		{
			name:     "leading indentation is dropped",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("    x"))},
			expected: "x",
		},
		{
			name:     "edge line breaks are dropped",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("\nx\n"))},
			expected: "x",
		},
		{
			name:     "heading with a trailing hash",
			input:    []block.Block{block.New(block.TypeHeading1, block.Plain("C #"))},
			expected: "# C \\#",
		},
		{
			name:     "heading text on one line",
			input:    []block.Block{block.New(block.TypeHeading2, block.Plain("a\nb"))},
			expected: "## a b",
		},
		{
			name:     "html and table characters are escaped",
			input:    []block.Block{block.New(block.TypeParagraph, block.Plain("x <u>y</u> &amp; z | w"))},
			expected: "x \\<u>y\\</u> \\&amp; z \\| w",
		},
		{
			name: "numbered item children sit at the content column",
			input: []block.Block{
				{
					Type:     block.TypeNumberedListItem,
					RichText: []block.RichText{block.Plain("a")},
					Children: []block.Block{block.New(block.TypeBulletedListItem, block.Plain("b"))},
				},
				{
					Type:     block.TypeNumberedListItem,
					RichText: []block.RichText{block.Plain("c")},
					Children: []block.Block{block.New(block.TypeParagraph, block.Plain("para"))},
				},
			},
			expected: "1. a\n   - b\n2. c\n\n   para",
		},
		{
			name:     "list item continuation lines are indented",
			input:    []block.Block{block.New(block.TypeNumberedListItem, block.Plain("a\nb"))},
			expected: "1. a\\\n   b",
		},
		{
			name: "paragraph children stop short of code indentation",
			input: []block.Block{
				{
					Type:     block.TypeParagraph,
					RichText: []block.RichText{block.Plain("p")},
					Children: []block.Block{
						{
							Type:     block.TypeParagraph,
							RichText: []block.RichText{block.Plain("c")},
							Children: []block.Block{block.New(block.TypeParagraph, block.Plain("gc"))},
						},
					},
				},
			},
			expected: "p\n\n  c\n\n  gc",
		},
		{
			name:     "no blocks",
			input:    nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := BlocksToMarkdown(tt.input)
			if err != nil {
				t.Fatalf("BlocksToMarkdown failed: %v", err)
			}
			if actual != tt.expected {
				t.Errorf("BlocksToMarkdown() = %q, want %q", actual, tt.expected)
			}
		})
	}
}

func TestRenderRichText(t *testing.T) {
	tests := []struct {
		name     string
		spans    []block.RichText
		expected string
	}{
		{name: "bold", spans: []block.RichText{block.Bold("x")}, expected: "**x**"},
		{name: "italic", spans: []block.RichText{block.Italic("x")}, expected: "*x*"},
		{name: "code", spans: []block.RichText{block.Code("x")}, expected: "`x`"},
		{
			name:     "strikethrough",
			spans:    []block.RichText{block.NewSpan("x", block.Annotations{Strikethrough: true}, "")},
			expected: "~~x~~",
		},
		{
			name:     "underline",
			spans:    []block.RichText{block.NewSpan("x", block.Annotations{Underline: true}, "")},
			expected: "<u>x</u>",
		},
		{
			name:     "bold italic",
			spans:    []block.RichText{block.NewSpan("x", block.Annotations{Bold: true, Italic: true}, "")},
			expected: "***x***",
		},
		{
			name:     "bold code",
			spans:    []block.RichText{block.NewSpan("x", block.Annotations{Bold: true, Code: true}, "")},
			expected: "**`x`**",
		},
		{
			name: "all annotations",
			spans: []block.RichText{block.NewSpan("x", block.Annotations{
				Bold: true, Italic: true, Strikethrough: true, Code: true, Underline: true,
			}, "")},
			expected: "***<u>~~`x`~~</u>***",
		},
		{
			name:     "link",
			spans:    []block.RichText{block.Link("site", "https://example.com")},
			expected: "[site](https://example.com)",
		},
		{
			name:     "bold link",
			spans:    []block.RichText{block.NewSpan("site", block.Annotations{Bold: true}, "https://example.com")},
			expected: "[**site**](https://example.com)",
		},
		{
			name:     "link with spaces",
			spans:    []block.RichText{block.Link("doc", "https://example.com/a b")},
			expected: "[doc](<https://example.com/a b>)",
		},
		{
			name:     "whitespace stays outside markers",
			spans:    []block.RichText{block.Plain("a"), block.Bold(" x "), block.Plain("y")},
			expected: "a **x** y",
		},
		{
			name:     "intraword emphasis keeps markers",
			spans:    []block.RichText{block.Plain("a"), block.Italic("b"), block.Plain("c")},
			expected: "a*b*c",
		},
		{
			name:     "emphasis that cannot flank falls back to tags",
			spans:    []block.RichText{block.Plain("a"), block.Bold("(x)"), block.Plain("b")},
			expected: "a<strong>(x)</strong>b",
		},
		{
			name:     "adjacent emphasis falls back to tags",
			spans:    []block.RichText{block.Bold("a"), block.Italic("b")},
			expected: "<strong>a</strong><em>b</em>",
		},
		{
			name:     "struck punctuation inside a word",
			spans:    []block.RichText{block.Plain("a"), block.NewSpan("!", block.Annotations{Strikethrough: true}, ""), block.Plain("b")},
			expected: "a<del>!</del>b",
		},
		{
			name:     "whitespace code span",
			spans:    []block.RichText{block.Plain("a"), block.Code(" "), block.Plain("b")},
			expected: "a` `b",
		},
		{
			name:     "special characters are escaped",
			spans:    []block.RichText{block.Plain("a*b_c`d[e]f~g\\h")},
			expected: "a\\*b\\_c\\`d\\[e\\]f\\~g\\\\h",
		},
		{
			name:     "code is not escaped",
			spans:    []block.RichText{block.Code("a*b_c")},
			expected: "`a*b_c`",
		},
		{
			name:     "code with backticks",
			spans:    []block.RichText{block.Code("a`b")},
			expected: "``a`b``",
		},
		{
			name:     "adjacent spans coalesce",
			spans:    []block.RichText{block.Bold("a"), block.Bold("b")},
			expected: "**ab**",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := BlocksToMarkdown([]block.Block{block.New(block.TypeHeading1, tt.spans...)})
			if err != nil {
				t.Fatalf("BlocksToMarkdown failed: %v", err)
			}
			if want := "# " + tt.expected; actual != want {
				t.Errorf("BlocksToMarkdown() = %q, want %q", actual, want)
			}
		})
	}
}

func TestUnderlinePolicy(t *testing.T) {
	spans := []block.RichText{block.Plain("a "), block.NewSpan("b", block.Annotations{Underline: true, Bold: true}, "")}

	tests := []struct {
		policy   string
		expected string
	}{
		{policy: UnderlineHTML, expected: "a **<u>b</u>**"},
		{policy: UnderlineNone, expected: "a **b**"},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			conv := New(WithUnderline(tt.policy))
			actual, err := conv.BlocksToMarkdown([]block.Block{block.New(block.TypeParagraph, spans...)})
			if err != nil {
				t.Fatalf("BlocksToMarkdown failed: %v", err)
			}
			if actual != tt.expected {
				t.Errorf("BlocksToMarkdown() = %q, want %q", actual, tt.expected)
			}
		})
	}
}

func TestBlocksToMarkdownOptions(t *testing.T) {
	conv := New(WithIndent("    "), WithDefaultLanguage("go"))

	input := []block.Block{
		{
			Type:     block.TypeNumberedListItem,
			RichText: []block.RichText{block.Plain("step")},
			Children: []block.Block{block.New(block.TypeBulletedListItem, block.Plain("detail"))},
		},
		block.NewCode("go", "x := 1"),
	}

	actual, err := conv.BlocksToMarkdown(input)
	if err != nil {
		t.Fatalf("BlocksToMarkdown failed: %v", err)
	}

	expected := "1. step\n    - detail\n\n```\nx := 1\n```"
	if actual != expected {
		t.Errorf("BlocksToMarkdown() = %q, want %q", actual, expected)
	}
}

func TestBlocksToMarkdownUnsupported(t *testing.T) {
	_, err := JSONToMarkdown([]byte(`[{"type": "paragraph"}, {"type": "unknownVariant"}]`))
	if !errors.Is(err, block.ErrUnsupported) {
		t.Fatalf("expected unsupported construct error, got %v", err)
	}

	var uerr *block.UnsupportedConstructError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UnsupportedConstructError, got %T", err)
	}
	if uerr.Construct != "unknownVariant" {
		t.Errorf("construct = %q, want %q", uerr.Construct, "unknownVariant")
	}
	if uerr.Path != "/1" {
		t.Errorf("path = %q, want %q", uerr.Path, "/1")
	}
}

func TestBlocksToMarkdownMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input []block.Block
		path  string
		field string
	}{
		{
			name:  "to-do without checked",
			input: []block.Block{{Type: block.TypeToDo, RichText: []block.RichText{block.Plain("x")}}},
			path:  "/0",
			field: "checked",
		},
		{
			name: "nested divider with text",
			input: []block.Block{
				{
					Type:     block.TypeParagraph,
					Children: []block.Block{{Type: block.TypeDivider, RichText: []block.RichText{block.Plain("x")}}},
				},
			},
			path:  "/0/children/0",
			field: "richText",
		},
		{
			name:  "image without url",
			input: []block.Block{{Type: block.TypeImage}},
			path:  "/0",
			field: "url",
		},
		{
			name:  "missing type",
			input: []block.Block{block.NewDivider(), {}},
			path:  "/1",
			field: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlocksToMarkdown(tt.input)
			if !errors.Is(err, block.ErrMalformed) {
				t.Fatalf("expected malformed block error, got %v", err)
			}

			var merr *block.MalformedBlockError
			if !errors.As(err, &merr) {
				t.Fatalf("expected *MalformedBlockError, got %T", err)
			}
			if merr.Path != tt.path {
				t.Errorf("path = %q, want %q", merr.Path, tt.path)
			}
			if merr.Field != tt.field {
				t.Errorf("field = %q, want %q", merr.Field, tt.field)
			}
		})
	}
}
