package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
)

var defaults = domain.Draft{Subject: "CSC280", Test: "Test1"}

func TestParse(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedDrafts int
		expectedErrors int
		expected       domain.Draft
	}{
		{
			name:           "Simple Q&A",
			input:          "Q: What is the capital of France?\nA: Paris",
			expectedDrafts: 1,
			expected:       domain.Draft{Front: "What is the capital of France?", Back: "Paris", Subject: "CSC280", Test: "Test1"},
		},
		{
			name: "Multiline Answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedDrafts: 1,
			expected:       domain.Draft{Front: "What are the primary colors?", Back: "Red\nBlue\nYellow", Subject: "CSC280", Test: "Test1"},
		},
		{
			name: "Two Cards",
			input: `
Q: First question
A: First answer

Q: Second question
A: Second answer
`,
			expectedDrafts: 2,
		},
		{
			name: "Subject and test override defaults",
			input: `
S: MATH101
T: Final
Q: 2+2?
A: 4
`,
			expectedDrafts: 1,
			expected:       domain.Draft{Front: "2+2?", Back: "4", Subject: "MATH101", Test: "Final"},
		},
		{
			name: "Separator ends a card",
			input: `Q: One
A: 1
---
Q: Two
A: 2
---`,
			expectedDrafts: 2,
		},
		{
			name:           "Question without answer is reported",
			input:          "Q: Orphan question\n---\nQ: Fine\nA: Yes",
			expectedDrafts: 1,
			expectedErrors: 1,
			expected:       domain.Draft{Front: "Fine", Back: "Yes", Subject: "CSC280", Test: "Test1"},
		},
		{
			name:           "No cards, just text",
			input:          "This is a file with no questions.",
			expectedDrafts: 0,
		},
		{
			name:           "Prefixes with no space",
			input:          "Q:Question\nA:Answer",
			expectedDrafts: 1,
			expected:       domain.Draft{Front: "Question", Back: "Answer", Subject: "CSC280", Test: "Test1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := strings.NewReader(tc.input)
			drafts, cardErrs, err := Parse(r, defaults)
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(drafts) != tc.expectedDrafts {
				t.Fatalf("Expected %d drafts, but got %d", tc.expectedDrafts, len(drafts))
			}
			if len(cardErrs) != tc.expectedErrors {
				t.Fatalf("Expected %d card errors, but got %d: %v", tc.expectedErrors, len(cardErrs), cardErrs)
			}

			if tc.expectedDrafts == 1 && drafts[0] != tc.expected {
				t.Errorf("Expected draft %+v, but got %+v", tc.expected, drafts[0])
			}
		})
	}
}

func TestParse_MissingDefaults(t *testing.T) {
	drafts, cardErrs, err := Parse(strings.NewReader("Q: Term\nA: Definition"), domain.Draft{})
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(drafts) != 0 || len(cardErrs) != 1 {
		t.Fatalf("Expected 0 drafts and 1 error, but got %d and %d", len(drafts), len(cardErrs))
	}

	var invalid *draft.InvalidError
	if !errors.As(cardErrs[0], &invalid) {
		t.Fatalf("Expected an invalid draft error, but got %v", cardErrs[0])
	}
	if strings.Join(invalid.Missing, ",") != "subject,test" {
		t.Errorf("Expected subject and test to be missing, but got %v", invalid.Missing)
	}
	if !strings.Contains(cardErrs[0].Error(), "line 1") {
		t.Errorf("Expected the error to name line 1, but got '%s'", cardErrs[0])
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.md")
	if err := os.WriteFile(path, []byte("Q: Q1\nA: A1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	drafts, _, err := ParseFile(path, defaults)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("Expected 1 draft, but got %d", len(drafts))
	}

	if _, _, err := ParseFile(filepath.Join(t.TempDir(), "missing.md"), defaults); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
