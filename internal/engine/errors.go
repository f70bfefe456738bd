package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDatabase wraps any failure of the database gateway during a run. A run
// that fails with it has been fully rolled back.
var ErrDatabase = errors.New("database error")

// ColumnDetectionError reports that a spreadsheet is missing required
// canonical columns. It is fatal to the file: no rows are processed.
type ColumnDetectionError struct {
	Kind    ImportKind
	Missing []Field
}

func (e *ColumnDetectionError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s file: required columns not found: %s", e.Kind, strings.Join(names, ", "))
}

// rowError is a data-quality problem scoped to a single row. It is recorded
// in the run's Stats and never escapes the import.
type rowError struct {
	field Field
	msg   string
}

func (e *rowError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("%s: %s", e.field, e.msg)
	}
	return e.msg
}

func rowErrorf(field Field, format string, args ...any) error {
	return &rowError{field: field, msg: fmt.Sprintf(format, args...)}
}

func dbErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDatabase, op, err)
}
