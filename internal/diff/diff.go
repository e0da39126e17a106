package diff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/convert"
)

// Report is the result of a round-trip check
type Report struct {
	Name      string
	Original  string
	RoundTrip string
	Blocks    int
}

// Clean reports whether the round trip reproduced the input
func (r *Report) Clean() bool {
	return r.Original == r.RoundTrip
}

// Unified returns the unified diff from the input to its round trip.
// It is empty for a clean report.
func (r *Report) Unified() string {
	if r.Clean() {
		return ""
	}
	return Unified(r.Name, r.Name+" (round trip)", r.Original, r.RoundTrip)
}

// Markdown checks that markdown survives markdown -> blocks -> markdown
func Markdown(conv *convert.Converter, name, markdown string) (*Report, error) {
	blocks, err := conv.MarkdownToBlocks(markdown)
	if err != nil {
		return nil, fmt.Errorf("failed to convert markdown to blocks: %w", err)
	}
	rendered, err := conv.BlocksToMarkdown(blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to convert blocks to markdown: %w", err)
	}

	return &Report{
		Name:      name,
		Original:  normalize(markdown),
		RoundTrip: normalize(rendered),
		Blocks:    len(blocks),
	}, nil
}

// Blocks checks that a block document survives blocks -> markdown -> blocks.
// Both sides are compared in their encoded JSON form.
func Blocks(conv *convert.Converter, name string, data []byte) (*Report, error) {
	blocks, err := block.Decode(data)
	if err != nil {
		return nil, err
	}
	original, err := block.Encode(blocks)
	if err != nil {
		return nil, err
	}

	md, err := conv.BlocksToMarkdown(blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to convert blocks to markdown: %w", err)
	}
	reparsed, err := conv.MarkdownToBlocks(md)
	if err != nil {
		return nil, fmt.Errorf("failed to convert markdown to blocks: %w", err)
	}
	roundTrip, err := block.Encode(carryIDs(reparsed, blocks))
	if err != nil {
		return nil, err
	}

	return &Report{
		Name:      name,
		Original:  normalize(string(original)),
		RoundTrip: normalize(string(roundTrip)),
		Blocks:    len(blocks),
	}, nil
}

// File runs the round-trip check matching the file's extension
func File(conv *convert.Converter, path string) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)
	if filepath.Ext(path) == ".json" {
		return Blocks(conv, name, content)
	}
	return Markdown(conv, name, string(content))
}

// Unified computes a unified diff between two texts
func Unified(fromName, toName, from, to string) string {
	edits := myers.ComputeEdits(span.URIFromPath(fromName), from, to)
	return fmt.Sprint(gotextdiff.ToUnified(fromName, toName, from, edits))
}

// Render renders a unified diff for the terminal. It falls back to the
// fenced plain diff if glamour cannot render.
func Render(unified string) string {
	diffMarkdown := fmt.Sprintf("```diff\n%s```\n", unified)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return diffMarkdown
	}

	rendered, err := renderer.Render(diffMarkdown)
	if err != nil {
		return diffMarkdown
	}

	return rendered
}

// normalize drops trailing blank lines and ends the text with one newline
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return s
	}
	return s + "\n"
}

// carryIDs copies the ids of the original blocks onto the reparsed tree
// wherever the shapes line up, so assigned ids do not show up as changes.
func carryIDs(reparsed, original []block.Block) []block.Block {
	out := make([]block.Block, len(reparsed))
	for i, b := range reparsed {
		b.ID = ""
		var origChildren []block.Block
		if i < len(original) {
			b.ID = original[i].ID
			origChildren = original[i].Children
		}
		if len(b.Children) > 0 {
			b.Children = carryIDs(b.Children, origChildren)
		}
		out[i] = b
	}
	return out
}
