package draft

import (
	"fmt"
	"strings"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/pkg/validator"
)

// InvalidError reports which draft fields were blank.
type InvalidError struct {
	Missing []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("draft is missing %s", strings.Join(e.Missing, ", "))
}

// Normalize trims surrounding whitespace from every field.
func Normalize(d domain.Draft) domain.Draft {
	return domain.Draft{
		Front:   strings.TrimSpace(d.Front),
		Back:    strings.TrimSpace(d.Back),
		Subject: strings.TrimSpace(d.Subject),
		Test:    strings.TrimSpace(d.Test),
	}
}

// Validate reports an *InvalidError unless all four fields are non-empty
// after trimming.
func Validate(d domain.Draft) error {
	if missing := validator.MissingFields(Normalize(d)); len(missing) > 0 {
		return &InvalidError{Missing: missing}
	}
	return nil
}
