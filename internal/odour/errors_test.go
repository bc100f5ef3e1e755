package odour

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"schema", fmt.Errorf("validate: %w", &SchemaError{Missing: []string{ColLatitude, ColHedonicTone}}),
			"The uploaded sheet is missing required columns: Latitude, Hedonic Tone."},
		{"empty", &InsufficientDataError{Rows: 0, K: 3},
			"No valid observations remain after filtering. Check the coordinates and numeric fields."},
		{"too few", fmt.Errorf("cluster: %w", &InsufficientDataError{Rows: 2, K: 5}),
			"Only 2 valid observations remain, fewer than the 5 requested groups."},
		{"palette", &PaletteExhaustedError{Group: 10}, "At most 10 groups can be drawn; group 10 has no color."},
		{"invalid k", fmt.Errorf("%w: k=0", ErrInvalidK), "The number of groups must be at least 1."},
		{"other", errors.New("zip: not a valid zip file"), "An error occurred: zip: not a valid zip file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", ErrorKind(nil))
	assert.Equal(t, "schema", ErrorKind(&SchemaError{}))
	assert.Equal(t, "insufficient_data", ErrorKind(fmt.Errorf("x: %w", &InsufficientDataError{})))
	assert.Equal(t, "palette_exhausted", ErrorKind(&PaletteExhaustedError{}))
	assert.Equal(t, "invalid_k", ErrorKind(ErrInvalidK))
	assert.Equal(t, "degenerate_feature", ErrorKind(ErrDegenerateFeature))
	assert.Equal(t, "other", ErrorKind(errors.New("boom")))
}
