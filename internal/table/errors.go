package table

import (
	"fmt"
	"strings"
)

// ColumnNotFoundError reports a reference to columns absent from a table.
type ColumnNotFoundError struct {
	Table   string
	Columns []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("table %q has no columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

// DuplicateIndexError reports a non-unique index after an operation that
// guarantees uniqueness.
type DuplicateIndexError struct {
	Column string
	Value  string
	Count  int
}

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("index %q not unique: value %q occurs %d times", e.Column, e.Value, e.Count)
}

// SchemaError reports a malformed or unexpected table schema: a missing
// expected column, a rename collision, or an unrecognized identifier space.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return e.Msg
}

// Schemaf builds a SchemaError with a formatted message.
func Schemaf(format string, args ...any) error {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}
