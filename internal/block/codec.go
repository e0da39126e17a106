package block

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaSource string

// blockSchema describes the shape of the JSON wire format. Variant rules
// (required checked, leaf children) are enforced by Validate afterwards.
var blockSchema = jsonschema.MustCompileString("blocks.schema.json", schemaSource)

// Schema returns the JSON Schema of the wire format
func Schema() string {
	return schemaSource
}

// Decode parses the JSON wire format into a block tree.
// JSON syntax errors return *ParseError, shape violations *MalformedBlockError.
// Unknown type tags are accepted here and rejected when rendering.
func Decode(data []byte) ([]Block, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Format: "json", Line: jsonErrorLine(data, err), Err: err}
	}

	if err := blockSchema.Validate(raw); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			issues := collectIssues(verr)
			m := &MalformedBlockError{Issues: issues}
			if len(issues) > 0 {
				m.Path = issues[0].Location
				m.Reason = issues[0].Message
			}
			return nil, m
		}
		return nil, &MalformedBlockError{Reason: err.Error()}
	}

	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, &MalformedBlockError{Reason: err.Error()}
	}

	if err := Validate(blocks); err != nil {
		return nil, err
	}

	if blocks == nil {
		blocks = []Block{}
	}
	return blocks, nil
}

// Encode renders blocks as indented JSON. A nil slice encodes as [].
func Encode(blocks []Block) ([]byte, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal blocks: %w", err)
	}
	return data, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func jsonErrorLine(data []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
