// Package table implements the generic filter, sort and paginate pipeline
// shared by every ranking view.
//
// Apply always runs the stages in the same order: the global filter first,
// then the sort, then the page slice. Input rows are never reordered.
package table

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultPageSize is used when a query asks for a non-positive page size.
const DefaultPageSize = 20

// Column describes one column of a table over rows of type T.
type Column[T any] struct {
	ID     string
	Header string
	// Value feeds the sort. Nil means the column is not sortable.
	Value func(T) Value
	// Text feeds the global filter. Nil means the column is not filterable.
	Text func(T) string
}

// Sortable reports whether the column has a value accessor.
func (c Column[T]) Sortable() bool { return c.Value != nil }

// Filterable reports whether the global filter looks at the column.
func (c Column[T]) Filterable() bool { return c.Text != nil }

// Query is the presentation state of a table.
type Query struct {
	Filter    string
	Sort      []SortKey
	PageIndex int
	PageSize  int
}

// Page is the result of applying a Query.
type Page[T any] struct {
	Rows         []T
	PageIndex    int
	PageSize     int
	PageCount    int
	TotalRows    int
	FilteredRows int
	Sort         []SortKey
	Filter       string
}

// From is the 1-based position of the first row on the page, 0 when empty.
func (p Page[T]) From() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.PageIndex*p.PageSize + 1
}

// To is the 1-based position of the last row on the page.
func (p Page[T]) To() int {
	return min((p.PageIndex+1)*p.PageSize, p.FilteredRows)
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.PageIndex > 0 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.PageIndex < p.PageCount-1 }

// Table is an ordered set of columns.
type Table[T any] struct {
	columns []Column[T]
	index   map[string]int
}

// New builds a table. It panics on duplicate or empty column ids.
func New[T any](columns ...Column[T]) *Table[T] {
	t := &Table[T]{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.ID == "" {
			panic("table: empty column id")
		}
		if _, dup := t.index[c.ID]; dup {
			panic("table: duplicate column id " + c.ID)
		}
		t.index[c.ID] = i
	}
	return t
}

// Columns returns the columns in display order.
func (t *Table[T]) Columns() []Column[T] { return t.columns }

// Column looks up a column by id.
func (t *Table[T]) Column(id string) (Column[T], bool) {
	i, ok := t.index[id]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

// ValidateSort checks that every key names a sortable column.
func (t *Table[T]) ValidateSort(keys []SortKey) error {
	for _, k := range keys {
		c, ok := t.Column(k.Column)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, k.Column)
		}
		if !c.Sortable() {
			return fmt.Errorf("%w: %q", ErrNotSortable, k.Column)
		}
	}
	return nil
}

// Apply filters, sorts and paginates rows according to q.
func (t *Table[T]) Apply(rows []T, q Query) (Page[T], error) {
	if err := t.ValidateSort(q.Sort); err != nil {
		return Page[T]{}, err
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}

	fold := newFolder()
	filtered := t.filter(rows, fold(strings.TrimSpace(q.Filter)), fold)
	t.sort(filtered, q.Sort, fold)

	count := PageCount(len(filtered), size)
	idx := min(max(q.PageIndex, 0), count-1)
	start := min(idx*size, len(filtered))
	end := min(start+size, len(filtered))

	return Page[T]{
		Rows:         filtered[start:end:end],
		PageIndex:    idx,
		PageSize:     size,
		PageCount:    count,
		TotalRows:    len(rows),
		FilteredRows: len(filtered),
		Sort:         q.Sort,
		Filter:       q.Filter,
	}, nil
}

// PageCount is ceil(n/size), and 1 for an empty table.
func PageCount(n, size int) int {
	if n == 0 || size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

func (t *Table[T]) filter(rows []T, needle string, fold func(string) string) []T {
	out := make([]T, 0, len(rows))
	if needle == "" {
		return append(out, rows...)
	}
	for _, r := range rows {
		for _, c := range t.columns {
			if c.Text != nil && strings.Contains(fold(c.Text(r)), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func (t *Table[T]) sort(rows []T, keys []SortKey, fold func(string) string) {
	if len(keys) == 0 || len(rows) < 2 {
		return
	}
	accessors := make([]func(T) Value, len(keys))
	for i, k := range keys {
		c, _ := t.Column(k.Column)
		accessors[i] = c.Value
	}

	// each row's keys are extracted and folded once, not per comparison
	m := len(keys)
	flat := make([]sortValue, len(rows)*m)
	decorated := make([]sortRow[T], len(rows))
	for i, r := range rows {
		vals := flat[i*m : (i+1)*m : (i+1)*m]
		for n, get := range accessors {
			vals[n] = newSortValue(get(r), fold)
		}
		decorated[i] = sortRow[T]{row: r, vals: vals}
	}

	sort.SliceStable(decorated, func(i, j int) bool {
		for n, k := range keys {
			a, b := decorated[i].vals[n], decorated[j].vals[n]
			switch {
			case a.Absent() && b.Absent():
				continue
			case a.Absent():
				return false
			case b.Absent():
				return true
			}
			c := compare(a, b)
			if k.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	for i := range decorated {
		rows[i] = decorated[i].row
	}
}

type sortRow[T any] struct {
	row  T
	vals []sortValue
}

// newFolder returns a case-insensitive, compatibility-normalizing string
// folder. cases.Caser is stateful, so each Apply gets its own.
func newFolder() func(string) string {
	caser := cases.Fold()
	return func(s string) string {
		return caser.String(norm.NFKC.String(s))
	}
}
