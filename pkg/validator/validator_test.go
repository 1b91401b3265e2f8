package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Level string `validate:"oneof=debug info"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{name: "valid", in: sample{Name: "a", Level: "info"}},
		{name: "missing name", in: sample{Level: "debug"}, wantErr: "Field: Name, Tag: required"},
		{name: "bad level", in: sample{Name: "a", Level: "trace"}, wantErr: "Field: Level, Tag: oneof, Param: debug info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMissingFields(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MissingFields(sample{Name: "a", Level: "info"}))
	assert.Equal(t, []string{"name"}, MissingFields(sample{Level: "info"}))
}
