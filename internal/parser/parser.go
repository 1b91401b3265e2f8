// Package parser reads drafts from plain-text card files.
//
// A card starts with a "Q:" line and takes its answer from an "A:" line.
// Lines without a prefix continue the current field. "S:" and "T:" set the
// subject and test of the current card, overriding the defaults the caller
// passes in. A line of "---" ends the current card.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	subjectPrefix  = "S:"
	testPrefix     = "T:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
)

// CardError describes a card that could not become a valid draft.
type CardError struct {
	Line int
	Err  error
}

func (e *CardError) Error() string {
	return fmt.Sprintf("card at line %d: %v", e.Line, e.Err)
}

func (e *CardError) Unwrap() error {
	return e.Err
}

// ParseFile reads a file from the given path and extracts all drafts.
func ParseFile(path string, defaults domain.Draft) ([]domain.Draft, []error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return Parse(file, defaults)
}

// Parse extracts drafts from r. Subject and test fall back to defaults.
// Cards that are incomplete after applying defaults are skipped and reported
// in the second return value; the third is reserved for read failures.
func Parse(r io.Reader, defaults domain.Draft) ([]domain.Draft, []error, error) {
	scanner := bufio.NewScanner(r)

	var (
		drafts    []domain.Draft
		cardErrs  []error
		current   domain.Draft
		block     []string
		st        = seeking
		lineNo    int
		startLine int
		started   bool
	)

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch st {
		case readingQuestion:
			current.Front = content
		case readingAnswer:
			current.Back = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if started {
			d := current
			if strings.TrimSpace(d.Subject) == "" {
				d.Subject = defaults.Subject
			}
			if strings.TrimSpace(d.Test) == "" {
				d.Test = defaults.Test
			}
			d = draft.Normalize(d)
			if err := draft.Validate(d); err != nil {
				cardErrs = append(cardErrs, &CardError{Line: startLine, Err: err})
			} else {
				drafts = append(drafts, d)
			}
		}
		current = domain.Draft{}
		st = seeking
		started = false
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishCard()
			continue
		}

		switch {
		case strings.HasPrefix(line, questionPrefix):
			if started {
				finishCard() // A new question always starts a new card
			}
			started = true
			startLine = lineNo
			st = readingQuestion
			block = append(block, field(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			if !started {
				started = true
				startLine = lineNo
			}
			st = readingAnswer
			block = append(block, field(line, answerPrefix))
		case strings.HasPrefix(line, subjectPrefix):
			current.Subject = field(line, subjectPrefix)
		case strings.HasPrefix(line, testPrefix):
			current.Test = field(line, testPrefix)
		case st != seeking:
			block = append(block, line)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return drafts, cardErrs, nil
}

func field(line, prefix string) string {
	return strings.TrimPrefix(line[len(prefix):], " ")
}
