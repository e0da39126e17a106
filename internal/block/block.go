package block

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type identifies a block variant
type Type string

const (
	TypeParagraph        Type = "paragraph"
	TypeHeading1         Type = "heading_1"
	TypeHeading2         Type = "heading_2"
	TypeHeading3         Type = "heading_3"
	TypeBulletedListItem Type = "bulleted_list_item"
	TypeNumberedListItem Type = "numbered_list_item"
	TypeToDo             Type = "to_do"
	TypeQuote            Type = "quote"
	TypeCode             Type = "code"
	TypeDivider          Type = "divider"
	TypeImage            Type = "image"
	TypeToggle           Type = "toggle"
	TypeCallout          Type = "callout"
	TypeBookmark         Type = "bookmark"
	TypeEquation         Type = "equation"
)

// Block is a single node of the document tree
type Block struct {
	ID         string     `json:"id,omitempty"`
	Type       Type       `json:"type"`
	RichText   []RichText `json:"richText,omitempty"`
	Children   []Block    `json:"children,omitempty"`
	Checked    *bool      `json:"checked,omitempty"`
	Language   string     `json:"language,omitempty"`
	URL        string     `json:"url,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Expression string     `json:"expression,omitempty"`
}

// variant lists which optional fields a block type may carry
type variant struct {
	richText   bool
	children   bool
	checked    bool
	language   bool
	url        bool
	icon       bool
	expression bool
}

var variants = map[Type]variant{
	TypeParagraph:        {richText: true, children: true},
	TypeHeading1:         {richText: true, children: true},
	TypeHeading2:         {richText: true, children: true},
	TypeHeading3:         {richText: true, children: true},
	TypeBulletedListItem: {richText: true, children: true},
	TypeNumberedListItem: {richText: true, children: true},
	TypeToDo:             {richText: true, children: true, checked: true},
	TypeQuote:            {richText: true, children: true},
	TypeCode:             {richText: true, language: true},
	TypeDivider:          {},
	TypeImage:            {url: true},
	TypeToggle:           {richText: true, children: true},
	TypeCallout:          {richText: true, children: true, icon: true},
	TypeBookmark:         {url: true},
	TypeEquation:         {expression: true},
}

// Types returns every supported block type in a stable order
func Types() []Type {
	return []Type{
		TypeParagraph, TypeHeading1, TypeHeading2, TypeHeading3,
		TypeBulletedListItem, TypeNumberedListItem, TypeToDo, TypeQuote,
		TypeCode, TypeDivider, TypeImage, TypeToggle, TypeCallout,
		TypeBookmark, TypeEquation,
	}
}

// Known reports whether t is one of the supported block types
func (t Type) Known() bool {
	_, ok := variants[t]
	return ok
}

// HeadingLevel returns 1-3 for heading types and 0 otherwise
func (t Type) HeadingLevel() int {
	switch t {
	case TypeHeading1:
		return 1
	case TypeHeading2:
		return 2
	case TypeHeading3:
		return 3
	}
	return 0
}

// Heading returns the heading type for a level, clamping to 1..3
func Heading(level int) Type {
	switch {
	case level <= 1:
		return TypeHeading1
	case level == 2:
		return TypeHeading2
	default:
		return TypeHeading3
	}
}

// IsListItem reports whether blocks of this type render as list items
func (t Type) IsListItem() bool {
	switch t {
	case TypeBulletedListItem, TypeNumberedListItem, TypeToDo, TypeToggle:
		return true
	}
	return false
}

// Leaf reports whether the type never has children
func (t Type) Leaf() bool {
	v, ok := variants[t]
	return ok && !v.children
}

// Bool returns a pointer to b, for the Checked field
func Bool(b bool) *bool {
	return &b
}

// New creates a text-bearing block of the given type
func New(t Type, spans ...RichText) Block {
	return Block{Type: t, RichText: spans}
}

// NewToDo creates a to-do block
func NewToDo(checked bool, spans ...RichText) Block {
	return Block{Type: TypeToDo, RichText: spans, Checked: Bool(checked)}
}

// NewCode creates a code block holding content verbatim
func NewCode(language, content string) Block {
	return Block{Type: TypeCode, Language: language, RichText: []RichText{Plain(content)}}
}

// NewImage creates an image block referencing an external URL
func NewImage(url string) Block {
	return Block{Type: TypeImage, URL: url}
}

// NewDivider creates a divider block
func NewDivider() Block {
	return Block{Type: TypeDivider}
}

// Text returns the concatenated plain text of the block's rich text
func (b Block) Text() string {
	return PlainText(b.RichText)
}

// ValidateFields checks the block's own fields against its variant.
// Children are not visited and unknown types are not reported.
func (b Block) ValidateFields() error {
	if b.ID != "" {
		if _, err := uuid.Parse(b.ID); err != nil {
			return &MalformedBlockError{Field: "id", Reason: fmt.Sprintf("invalid id %q", b.ID)}
		}
	}

	v, ok := variants[b.Type]
	if !ok {
		if strings.TrimSpace(string(b.Type)) == "" {
			return &MalformedBlockError{Field: "type", Reason: "missing block type"}
		}
		return nil
	}

	irrelevant := func(field string) error {
		return &MalformedBlockError{
			Field:  field,
			Reason: fmt.Sprintf("field %q is not allowed on %s blocks", field, b.Type),
		}
	}

	if len(b.RichText) > 0 && !v.richText {
		return irrelevant("richText")
	}
	if len(b.Children) > 0 && !v.children {
		return irrelevant("children")
	}
	if b.Checked != nil && !v.checked {
		return irrelevant("checked")
	}
	if b.Language != "" && !v.language {
		return irrelevant("language")
	}
	if b.URL != "" && !v.url {
		return irrelevant("url")
	}
	if b.Icon != "" && !v.icon {
		return irrelevant("icon")
	}
	if b.Expression != "" && !v.expression {
		return irrelevant("expression")
	}

	// Required fields
	if v.checked && b.Checked == nil {
		return &MalformedBlockError{Field: "checked", Reason: "to_do block is missing checked"}
	}
	if v.url && strings.TrimSpace(b.URL) == "" {
		return &MalformedBlockError{Field: "url", Reason: fmt.Sprintf("%s block is missing url", b.Type)}
	}
	if v.expression && strings.TrimSpace(b.Expression) == "" {
		return &MalformedBlockError{Field: "expression", Reason: "equation block is missing expression"}
	}

	return nil
}

// Validate walks the tree and returns the first field violation,
// annotated with its JSON pointer path.
func Validate(blocks []Block) error {
	return validate(blocks, "")
}

func validate(blocks []Block, prefix string) error {
	for i, b := range blocks {
		path := ChildPath(prefix, i)
		if err := b.ValidateFields(); err != nil {
			if m, ok := err.(*MalformedBlockError); ok {
				m.Path = path
			}
			return err
		}
		if err := validate(b.Children, path+"/children"); err != nil {
			return err
		}
	}
	return nil
}

// ChildPath returns the JSON pointer of the i-th block under prefix
func ChildPath(prefix string, i int) string {
	return fmt.Sprintf("%s/%d", prefix, i)
}
