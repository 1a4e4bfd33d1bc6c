package table

import "errors"

var (
	// ErrUnknownColumn is returned when a sort key names no column of the table.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotSortable is returned when a sort key names a column without a value accessor.
	ErrNotSortable = errors.New("column is not sortable")
	// ErrInvalidSort is returned for a malformed sort expression.
	ErrInvalidSort = errors.New("invalid sort expression")
)
