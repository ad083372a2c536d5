package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyDataset    = errors.New("dataset has no valid rows")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotNumeric      = errors.New("column is not numeric")
	ErrNotCategorical  = errors.New("column is not categorical")
	ErrUnknownReducer  = errors.New("unknown reducer")
	ErrRoleUnmapped    = errors.New("role is not mapped for this dataset")
)

// SchemaError reports required columns missing from a source table.
// It is fatal to the load that produced it.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: missing required columns %s",
		e.Source, strings.Join(e.Missing, ", "))
}

// InvalidFilterError reports a FilterSpec that cannot be applied.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// DataQualityWarning records a malformed row or cell found at load time.
// Unless Kept is set the row was excluded from the dataset; a kept row
// only lost the offending optional cell.
type DataQualityWarning struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
	Kept   bool   `json:"kept,omitempty"`
}

func (w DataQualityWarning) String() string {
	msg := fmt.Sprintf("line %d: %s", w.Line, w.Reason)
	if w.Column != "" {
		msg = fmt.Sprintf("line %d: column %q value %q: %s", w.Line, w.Column, w.Value, w.Reason)
	}
	if w.Kept {
		msg += " (row kept)"
	}
	return msg
}
