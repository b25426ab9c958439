package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a computation needs at least one row.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInsufficientCardinality is returned when quartile binning is not well defined.
	ErrInsufficientCardinality = errors.New("insufficient cardinality")
	// ErrInvalidParameter is returned for out of range arguments such as top-N <= 0.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// CardinalityError describes why a field could not be split into quartiles.
type CardinalityError struct {
	Field    string // "customers", "recency", "frequency" or "monetary"
	Distinct int
	Reason   string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s: %s (%d distinct)", ErrInsufficientCardinality, e.Reason, e.Distinct)
}

func (e *CardinalityError) Unwrap() error {
	return ErrInsufficientCardinality
}

func validateTopN(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %d", ErrInvalidParameter, name, n)
	}
	return nil
}
