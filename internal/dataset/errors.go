package dataset

import (
	"fmt"

	"github.com/pkg/errors"
)

// NoSuchTableError reports a table name that could not be resolved. The
// message is the requested name.
type NoSuchTableError struct {
	Name string
}

func (e *NoSuchTableError) Error() string {
	return e.Name
}

// NoSuchColumnError reports a column name that could not be resolved.
type NoSuchColumnError struct {
	Table  string
	Column string
}

func (e *NoSuchColumnError) Error() string {
	if e.Table == "" {
		return e.Column
	}
	return e.Table + "." + e.Column
}

// AmbiguousTableNameError reports two tables whose names collide under the
// active case-sensitivity rule.
type AmbiguousTableNameError struct {
	Name string
}

func (e *AmbiguousTableNameError) Error() string {
	return "ambiguous table name: " + e.Name
}

// RowOutOfBoundsError reports a row index outside [0, Count). Count is -1
// when the table size is not known, as with forward-only tables.
type RowOutOfBoundsError struct {
	Row   int
	Count int
}

func (e *RowOutOfBoundsError) Error() string {
	if e.Count < 0 {
		return fmt.Sprintf("row %d out of bounds", e.Row)
	}
	return fmt.Sprintf("row %d out of bounds [0,%d)", e.Row, e.Count)
}

// UnsupportedOperationError reports an operation a table or dataset does not
// allow, such as random access on a forward-only table.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return "unsupported operation: " + e.Op
}

// UnmatchedTokenError reports a delimited token with no registered
// replacement while strict replacement is on.
type UnmatchedTokenError struct {
	Table  string
	Column string
	Row    int
	Token  string
}

func (e *UnmatchedTokenError) Error() string {
	return fmt.Sprintf("no replacement for token %q in %s.%s row %d", e.Token, e.Table, e.Column, e.Row)
}

// IsNoSuchTable reports whether err is, or wraps, a NoSuchTableError.
func IsNoSuchTable(err error) bool {
	var e *NoSuchTableError
	return errors.As(err, &e)
}

// IsRowOutOfBounds reports whether err is, or wraps, a RowOutOfBoundsError.
func IsRowOutOfBounds(err error) bool {
	var e *RowOutOfBoundsError
	return errors.As(err, &e)
}

// IsUnsupported reports whether err is, or wraps, an
// UnsupportedOperationError.
func IsUnsupported(err error) bool {
	var e *UnsupportedOperationError
	return errors.As(err, &e)
}
