package convert

import (
	"github.com/gerunddev/blockbridge/internal/block"
)

// Underline policies. Markdown has no underline marker.
const (
	UnderlineHTML = "html"
	UnderlineNone = "none"
)

const (
	// DefaultLanguage is used for code blocks without an info string
	DefaultLanguage = "plain text"
	// DefaultIndent is the indentation unit for nested children
	DefaultIndent = "  "
	// DefaultMaxTextLength is the platform limit on a single rich text span
	DefaultMaxTextLength = 2000
)

// Converter handles bidirectional conversion between markdown and blocks.
// A Converter is immutable and safe for concurrent use.
type Converter struct {
	lenient         bool
	defaultLanguage string
	indent          string
	underline       string
	maxTextLength   int
	assignIDs       bool
	frontMatter     bool
	strictImages    bool
}

// Option configures a Converter
type Option func(*Converter)

// WithLenient degrades unsupported markdown constructs to plain paragraphs
// instead of failing.
func WithLenient(lenient bool) Option {
	return func(c *Converter) {
		c.lenient = lenient
	}
}

// WithDefaultLanguage sets the language of code blocks without an info string
func WithDefaultLanguage(lang string) Option {
	return func(c *Converter) {
		if lang != "" {
			c.defaultLanguage = lang
		}
	}
}

// WithIndent sets the indentation unit used for nested children
func WithIndent(indent string) Option {
	return func(c *Converter) {
		if indent != "" {
			c.indent = indent
		}
	}
}

// WithUnderline selects how underlined spans are written (UnderlineHTML or UnderlineNone)
func WithUnderline(policy string) Option {
	return func(c *Converter) {
		if policy == UnderlineHTML || policy == UnderlineNone {
			c.underline = policy
		}
	}
}

// WithMaxTextLength splits spans longer than n runes. Zero disables splitting.
func WithMaxTextLength(n int) Option {
	return func(c *Converter) {
		if n >= 0 {
			c.maxTextLength = n
		}
	}
}

// WithIDs assigns a fresh UUID to every block produced from markdown
func WithIDs(assign bool) Option {
	return func(c *Converter) {
		c.assignIDs = assign
	}
}

// WithFrontMatter splits YAML/TOML/JSON front matter off markdown input
// and writes it back when rendering a Document.
func WithFrontMatter(enabled bool) Option {
	return func(c *Converter) {
		c.frontMatter = enabled
	}
}

// WithStrictImages rejects images with relative URLs instead of keeping
// their alt text linked to the destination. Lenient mode overrides it.
func WithStrictImages(strict bool) Option {
	return func(c *Converter) {
		c.strictImages = strict
	}
}

// New creates a converter with the given options
func New(opts ...Option) *Converter {
	c := &Converter{
		defaultLanguage: DefaultLanguage,
		indent:          DefaultIndent,
		underline:       UnderlineHTML,
		maxTextLength:   DefaultMaxTextLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultConverter = New()

// MarkdownToBlocks converts markdown to blocks with default options
func MarkdownToBlocks(markdown string) ([]block.Block, error) {
	return defaultConverter.MarkdownToBlocks(markdown)
}

// BlocksToMarkdown converts blocks to markdown with default options
func BlocksToMarkdown(blocks []block.Block) (string, error) {
	return defaultConverter.BlocksToMarkdown(blocks)
}

// JSONToMarkdown decodes the JSON wire format and converts it to markdown
// with default options.
func JSONToMarkdown(data []byte) (string, error) {
	return defaultConverter.JSONToMarkdown(data)
}

// JSONToMarkdown decodes the JSON wire format and converts it to markdown
func (c *Converter) JSONToMarkdown(data []byte) (string, error) {
	blocks, err := block.Decode(data)
	if err != nil {
		return "", err
	}
	return c.BlocksToMarkdown(blocks)
}

// MarkdownToJSON converts markdown to the indented JSON wire format
func (c *Converter) MarkdownToJSON(markdown string) ([]byte, error) {
	blocks, err := c.MarkdownToBlocks(markdown)
	if err != nil {
		return nil, err
	}
	return block.Encode(blocks)
}
