package anova

import (
	"errors"
	"fmt"
)

// Error kinds returned by the pipeline. Callers match them with errors.Is.
var (
	ErrEmptyInput         = errors.New("dataset has no observations")
	ErrInsufficientData   = errors.New("insufficient data for two-way analysis")
	ErrDegenerateVariance = errors.New("mean squared error is zero")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrNumericOverflow    = errors.New("values too large to analyze")
)

// MalformedRecordError describes a record that does not carry three finite
// numeric attributes.
type MalformedRecordError struct {
	Index  int    // zero-based position in the dataset, -1 if unknown
	Field  string // attribute name, empty when the whole record is bad
	Reason string
}

func (e *MalformedRecordError) Error() string {
	switch {
	case e.Field != "" && e.Index >= 0:
		return fmt.Sprintf("malformed record %d: %s %s", e.Index, e.Field, e.Reason)
	case e.Index >= 0:
		return fmt.Sprintf("malformed record %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("malformed record: %s", e.Reason)
	}
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

func insufficientData(rows, cols int) error {
	return fmt.Errorf("%w: %d rows x %d columns gives df rows=%d, df within=%d",
		ErrInsufficientData, rows, cols, rows-1, (rows-1)*(cols-1))
}
