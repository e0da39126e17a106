package convert

import (
	"bytes"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/gerunddev/blockbridge/internal/block"
)

// Document is a block tree together with the front matter of its source
type Document struct {
	FrontMatter map[string]any
	Blocks      []block.Block
}

// splitFrontMatter separates front matter from the markdown body.
// lineOffset is the number of source lines consumed by the front matter.
func splitFrontMatter(markdown string) (fm map[string]any, body string, lineOffset int, err error) {
	rest, err := frontmatter.Parse(strings.NewReader(markdown), &fm)
	if err != nil {
		return nil, "", 0, &block.ParseError{Format: "front matter", Line: 1, Err: err}
	}

	body = string(rest)
	if consumed := len(markdown) - len(body); consumed > 0 && strings.HasSuffix(markdown, body) {
		lineOffset = strings.Count(markdown[:consumed], "\n")
	}
	return fm, body, lineOffset, nil
}

// renderFrontMatter writes fm as a YAML front matter block
func renderFrontMatter(fm map[string]any) (string, error) {
	if len(fm) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	return "---\n" + buf.String() + "---\n", nil
}

// ParseDocument converts markdown to a Document. Front matter is only
// extracted when the converter was built WithFrontMatter.
func (c *Converter) ParseDocument(markdown string) (*Document, error) {
	doc := &Document{}
	body := markdown
	lineOffset := 0

	if c.frontMatter {
		fm, rest, offset, err := splitFrontMatter(markdown)
		if err != nil {
			return nil, err
		}
		doc.FrontMatter = fm
		body = rest
		lineOffset = offset
	}

	blocks, err := c.parse([]byte(body), lineOffset)
	if err != nil {
		return nil, err
	}
	doc.Blocks = blocks
	return doc, nil
}

// RenderDocument converts a Document back to markdown, front matter first
func (c *Converter) RenderDocument(doc *Document) (string, error) {
	body, err := c.BlocksToMarkdown(doc.Blocks)
	if err != nil {
		return "", err
	}

	fm, err := renderFrontMatter(doc.FrontMatter)
	if err != nil {
		return "", err
	}
	if fm == "" {
		return body, nil
	}
	if body == "" {
		return fm, nil
	}
	return fm + "\n" + body, nil
}
