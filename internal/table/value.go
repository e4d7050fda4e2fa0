package table

import (
	"strconv"
	"strings"
)

// Kind identifies the semantic type of a cell value.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindList
	KindNumber
)

// ListSeparator joins list values when rendered as a single string.
const ListSeparator = "|"

// Value is a single table cell. The zero value is missing.
type Value struct {
	kind Kind
	str  string
	list []string
	num  float64
}

// Missing returns a missing cell.
func Missing() Value {
	return Value{}
}

// String returns a string cell.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// List returns a string-list cell.
func List(elems ...string) Value {
	return Value{kind: KindList, list: elems}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Num returns the numeric value and whether the cell is numeric.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Strings returns the cell's contents as a flat list of strings.
// Missing cells yield nil; numbers are formatted.
func (v Value) Strings() []string {
	switch v.kind {
	case KindString:
		return []string{v.str}
	case KindList:
		return v.list
	case KindNumber:
		return []string{strconv.FormatFloat(v.num, 'g', -1, 64)}
	default:
		return nil
	}
}

// String renders the cell for display and join-key purposes.
// Lists are joined with ListSeparator; missing renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindList:
		return strings.Join(v.list, ListSeparator)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return ""
	}
}
