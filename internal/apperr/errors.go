// Package apperr defines the error types shared across the analyzer.
package apperr

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// TaxonomyError reports a fatal failure to load or validate the taxonomy.
// The run must abort before any document is touched.
type TaxonomyError struct {
	Path   string
	Reason string
	Err    error
}

func (e *TaxonomyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("taxonomy %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("taxonomy %s: %s", e.Path, e.Reason)
}

func (e *TaxonomyError) Unwrap() error { return e.Err }

// ParseError reports a note whose front-matter block is present but not
// well-formed. Recoverable: the note is skipped and the run continues.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MalformedEntryError reports a ledger line that could not be parsed.
// Recoverable: the affected entry stays pending and reconciliation continues.
type MalformedEntryError struct {
	Line int
	Text string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("ledger line %d: cannot parse %q", e.Line, e.Text)
}
