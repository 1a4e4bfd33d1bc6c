package table

import (
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindNumber
	kindText
)

// Value is a sortable cell value. The zero Value is absent.
type Value struct {
	kind valueKind
	num  float64
	text string
}

// Text returns a string value.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: kindNumber, num: f} }

// Int returns a numeric value from an int.
func Int(i int) Value { return Number(float64(i)) }

// OptionalInt returns an absent value for nil, a numeric value otherwise.
func OptionalInt(p *int) Value {
	if p == nil {
		return Value{}
	}
	return Int(*p)
}

// Absent reports whether the value is missing.
func (v Value) Absent() bool { return v.kind == kindAbsent }

// String renders the value the way the global filter sees it.
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindText:
		return v.text
	}
	return ""
}

// sortValue is a Value prepared for sorting, its text folded once.
type sortValue struct {
	Value
	folded string
}

func newSortValue(v Value, fold func(string) string) sortValue {
	sv := sortValue{Value: v}
	if v.kind == kindText {
		sv.folded = fold(v.text)
	}
	return sv
}

// compare orders two present values. Numbers sort before text; text compares
// folded first, then raw so the order stays total.
func compare(a, b sortValue) int {
	if a.kind != b.kind {
		if a.kind == kindNumber {
			return -1
		}
		return 1
	}
	if a.kind == kindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	if c := strings.Compare(a.folded, b.folded); c != 0 {
		return c
	}
	return strings.Compare(a.text, b.text)
}
