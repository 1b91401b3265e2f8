package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Subjects lists every subject.
func (a *API) Subjects(ctx context.Context) ([]domain.Subject, error) {
	var subjects []domain.Subject
	err := a.do(ctx, request{op: "list subjects", method: http.MethodGet, path: "/subjects"}, &subjects)
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// Tests lists the tests of a subject.
func (a *API) Tests(ctx context.Context, subjectID int64) ([]domain.Test, error) {
	var tests []domain.Test
	err := a.do(ctx, request{
		op:     "list tests",
		method: http.MethodGet,
		path:   fmt.Sprintf("/subjects/%d/tests", subjectID),
	}, &tests)
	if err != nil {
		return nil, err
	}
	return tests, nil
}

// Flashcards lists the persisted cards of a test.
func (a *API) Flashcards(ctx context.Context, testID int64) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	err := a.do(ctx, request{
		op:     "list flashcards",
		method: http.MethodGet,
		path:   fmt.Sprintf("/tests/%d/flashcards", testID),
	}, &cards)
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// SetMastered sets the mastered flag of a persisted card and returns the
// value the backend stored.
func (a *API) SetMastered(ctx context.Context, cardID int64, mastered bool) (bool, error) {
	body, err := jsonBody(mastered)
	if err != nil {
		return false, &Error{Kind: KindValidation, Op: "update mastery", Err: err}
	}

	var resp struct {
		ID       int64 `json:"id"`
		Mastered *bool `json:"mastered"`
	}
	err = a.do(ctx, request{
		op:          "update mastery",
		method:      http.MethodPatch,
		path:        fmt.Sprintf("/flashcards/%d/mastered", cardID),
		body:        body,
		contentType: "application/json",
	}, &resp)
	if err != nil {
		return false, err
	}
	if resp.Mastered == nil {
		return mastered, nil
	}
	return *resp.Mastered, nil
}
