// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion failures.
var (
	// ErrMalformedColumn indicates a column that cannot be rendered.
	ErrMalformedColumn = errors.New("malformed column")
	// ErrInvalidInput indicates a table or witness list that cannot be read.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidOptions indicates an unknown policy or an out-of-range threshold.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrUnsupportedFormat indicates that no adapter accepts a source.
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// MalformedColumnError identifies the offending column of a failed conversion.
type MalformedColumnError struct {
	Column  int    // Index of the column in the source table
	Witness string // Witness involved, if any
	Reason  string
}

func (e *MalformedColumnError) Error() string {
	if e.Witness != "" {
		return fmt.Sprintf("malformed column %d: %s: %q", e.Column, e.Reason, e.Witness)
	}
	return fmt.Sprintf("malformed column %d: %s", e.Column, e.Reason)
}

func (e *MalformedColumnError) Unwrap() error {
	return ErrMalformedColumn
}

// ParseError reports a serialized table that an adapter could not read.
type ParseError struct {
	Format  string // Adapter format, e.g. "collatex-json"
	Source  string // Source id, if known
	Message string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("failed to parse %s table %s: %s", e.Format, e.Source, e.Message)
	}
	return fmt.Sprintf("failed to parse %s table: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewParse creates a ParseError wrapping err.
func NewParse(format, source string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Source:  source,
		Message: err.Error(),
		Err:     errors.Join(ErrInvalidInput, err),
	}
}
