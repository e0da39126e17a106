package block

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse       = errors.New("parse error")
	ErrUnsupported = errors.New("unsupported construct")
	ErrMalformed   = errors.New("malformed block")
)

// ParseError reports input the underlying grammar could not tokenize
type ParseError struct {
	Format string // "markdown", "front matter" or "json"
	Line   int    // 1-based, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("failed to parse ")
	b.WriteString(e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnsupportedConstructError reports a well-formed node with no mapping target.
// Markdown nodes carry Line, blocks carry Path.
type UnsupportedConstructError struct {
	Construct string
	Line      int
	Path      string
}

func (e *UnsupportedConstructError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("unsupported block type %q at %s", e.Construct, e.Path)
	case e.Line > 0:
		return fmt.Sprintf("unsupported markdown construct %q at line %d", e.Construct, e.Line)
	default:
		return fmt.Sprintf("unsupported construct %q", e.Construct)
	}
}

func (e *UnsupportedConstructError) Is(target error) bool { return target == ErrUnsupported }

// Issue is a single schema violation
type Issue struct {
	Location string
	Message  string
}

// MalformedBlockError reports block input that violates the schema
type MalformedBlockError struct {
	Path   string
	Field  string
	Reason string
	Issues []Issue
}

func (e *MalformedBlockError) Error() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	msg := fmt.Sprintf("malformed block at %s", path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Issues) > 1 {
		msg += fmt.Sprintf(" (and %d more issues)", len(e.Issues)-1)
	}
	return msg
}

func (e *MalformedBlockError) Is(target error) bool { return target == ErrMalformed }
