package table

import (
	"fmt"
	"strings"
)

// Direction of a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey orders rows by one column.
type SortKey struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// ParseSort parses "col:dir,col2:dir". A missing direction means ascending.
// The empty string yields no keys.
func ParseSort(expr string) ([]SortKey, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	parts := strings.Split(expr, ",")
	keys := make([]SortKey, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		col, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("%w: empty column in %q", ErrInvalidSort, expr)
		}
		if _, dup := seen[col]; dup {
			return nil, fmt.Errorf("%w: column %q repeated", ErrInvalidSort, col)
		}
		seen[col] = struct{}{}

		d := Direction(strings.ToLower(strings.TrimSpace(dir)))
		switch d {
		case "":
			d = Asc
		case Asc, Desc:
		default:
			return nil, fmt.Errorf("%w: direction %q", ErrInvalidSort, dir)
		}
		keys = append(keys, SortKey{Column: col, Direction: d})
	}
	return keys, nil
}

// FormatSort is the inverse of ParseSort.
func FormatSort(keys []SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.Column+":"+string(k.Direction))
	}
	return strings.Join(parts, ",")
}

// ToggleSort returns the single-column sort that follows keys when the
// header of column is activated: unsorted, then asc, then desc, then unsorted.
func ToggleSort(keys []SortKey, column string) []SortKey {
	for _, k := range keys {
		if k.Column != column {
			continue
		}
		if k.Direction == Asc {
			return []SortKey{{Column: column, Direction: Desc}}
		}
		return nil
	}
	return []SortKey{{Column: column, Direction: Asc}}
}

// DirectionOf reports how keys sort column, or "" when they don't.
func DirectionOf(keys []SortKey, column string) Direction {
	for _, k := range keys {
		if k.Column == column {
			return k.Direction
		}
	}
	return ""
}
