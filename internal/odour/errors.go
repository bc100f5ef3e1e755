package odour

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds raised by the pipeline. Callers match them with errors.Is.
var (
	ErrSchema            = errors.New("required columns missing")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrPaletteExhausted  = errors.New("palette exhausted")
	ErrInvalidK          = errors.New("invalid group count")
	ErrDegenerateFeature = errors.New("degenerate feature")
)

// SchemaError reports which required columns were absent from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// InsufficientDataError reports a dataset too small for the requested k.
type InsufficientDataError struct {
	Rows int
	K    int
}

func (e *InsufficientDataError) Error() string {
	if e.Rows == 0 {
		return "no valid rows to cluster"
	}
	return fmt.Sprintf("cannot form %d groups from %d rows", e.K, e.Rows)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// PaletteExhaustedError reports a group id with no palette color.
type PaletteExhaustedError struct {
	Group int
}

func (e *PaletteExhaustedError) Error() string {
	return fmt.Sprintf("no color for group %d: palette holds %d colors", e.Group, PaletteSize)
}

func (e *PaletteExhaustedError) Is(target error) bool { return target == ErrPaletteExhausted }

// ErrorKind returns a short stable label for err, used for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrPaletteExhausted):
		return "palette_exhausted"
	case errors.Is(err, ErrInvalidK):
		return "invalid_k"
	case errors.Is(err, ErrDegenerateFeature):
		return "degenerate_feature"
	default:
		return "other"
	}
}

// Describe turns a pipeline error into the single message shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var schemaErr *SchemaError
	var dataErr *InsufficientDataError
	var paletteErr *PaletteExhaustedError
	switch {
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("The uploaded sheet is missing required columns: %s.", strings.Join(schemaErr.Missing, ", "))
	case errors.As(err, &dataErr):
		if dataErr.Rows == 0 {
			return "No valid observations remain after filtering. Check the coordinates and numeric fields."
		}
		return fmt.Sprintf("Only %d valid observations remain, fewer than the %d requested groups.", dataErr.Rows, dataErr.K)
	case errors.As(err, &paletteErr):
		return fmt.Sprintf("At most %d groups can be drawn; group %d has no color.", PaletteSize, paletteErr.Group)
	case errors.Is(err, ErrInvalidK):
		return "The number of groups must be at least 1."
	default:
		return fmt.Sprintf("An error occurred: %v", err)
	}
}
