package draft

import (
	"testing"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      domain.Draft
		missing []string
	}{
		{
			name: "complete",
			in:   domain.Draft{Front: "Q1", Back: "A1", Subject: "CSC280", Test: "Test1"},
		},
		{
			name:    "whitespace only counts as blank",
			in:      domain.Draft{Front: "  ", Back: "A1", Subject: "CSC280", Test: "\t"},
			missing: []string{"front", "test"},
		},
		{
			name:    "all blank",
			in:      domain.Draft{},
			missing: []string{"front", "back", "subject", "test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.missing == nil {
				require.NoError(t, err)
				return
			}
			var invalid *InvalidError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.missing, invalid.Missing)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize(domain.Draft{Front: " Q1 ", Back: "A1\n", Subject: " CSC280", Test: "Test1 "})
	assert.Equal(t, domain.Draft{Front: "Q1", Back: "A1", Subject: "CSC280", Test: "Test1"}, got)
}
