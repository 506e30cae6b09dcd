package retrieval

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch marks a vector whose length differs from the configured
// embedding dimension. It is a configuration error and is never retried.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// DimensionError reports the expected and observed vector lengths.
type DimensionError struct {
	Expected int
	Got      int
	Where    string
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s: expected %d, got %d", ErrDimensionMismatch, e.Where, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDimension returns a *DimensionError when len(vec) != expected.
func CheckDimension(vec []float32, expected int, where string) error {
	if len(vec) != expected {
		return &DimensionError{Expected: expected, Got: len(vec), Where: where}
	}
	return nil
}
