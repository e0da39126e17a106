package block

import (
	"strings"
	"testing"
)

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name     string
		input    []RichText
		expected []RichText
	}{
		{
			name:     "merges same style",
			input:    []RichText{Plain("a"), Plain("b"), Bold("c"), Bold("d")},
			expected: []RichText{Plain("ab"), Bold("cd")},
		},
		{
			name:     "keeps different links apart",
			input:    []RichText{Link("a", "https://a.example"), Link("b", "https://b.example")},
			expected: []RichText{Link("a", "https://a.example"), Link("b", "https://b.example")},
		},
		{
			name:     "drops empty spans",
			input:    []RichText{Plain(""), Plain("a"), Bold(""), Plain("b")},
			expected: []RichText{Plain("ab")},
		},
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := Coalesce(tt.input)
			if !Equal(actual, tt.expected) {
				t.Errorf("Coalesce() = %#v, want %#v", actual, tt.expected)
			}
		})
	}
}

func TestCoalesceDoesNotModifyInput(t *testing.T) {
	input := []RichText{Plain("a"), Plain("b")}
	Coalesce(input)
	if input[0].Text != "a" {
		t.Errorf("input was modified: %#v", input)
	}
}

func TestSplitLong(t *testing.T) {
	tests := []struct {
		name     string
		input    []RichText
		max      int
		expected []RichText
	}{
		{
			name:     "short spans unchanged",
			input:    []RichText{Plain("abc")},
			max:      5,
			expected: []RichText{Plain("abc")},
		},
		{
			name:     "splits and keeps style",
			input:    []RichText{Bold("abcdefg")},
			max:      3,
			expected: []RichText{Bold("abc"), Bold("def"), Bold("g")},
		},
		{
			name:     "counts runes not bytes",
			input:    []RichText{Plain("ééééé")},
			max:      2,
			expected: []RichText{Plain("éé"), Plain("éé"), Plain("é")},
		},
		{
			name:     "zero disables splitting",
			input:    []RichText{Plain(strings.Repeat("x", 10))},
			max:      0,
			expected: []RichText{Plain(strings.Repeat("x", 10))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := SplitLong(tt.input, tt.max)
			if !Equal(actual, tt.expected) {
				t.Errorf("SplitLong() = %#v, want %#v", actual, tt.expected)
			}
		})
	}
}

func TestAnnotations(t *testing.T) {
	if (Annotations{}).Any() {
		t.Error("zero annotations should report none set")
	}

	merged := Annotations{Bold: true}.Merge(Annotations{Code: true})
	expected := Annotations{Bold: true, Code: true}
	if merged != expected {
		t.Errorf("Merge() = %+v, want %+v", merged, expected)
	}
	if !merged.Any() {
		t.Error("merged annotations should report set flags")
	}
}
