// Package table implements the in-memory tabular model shared by all
// reference datasets and the annotation store: ordered named columns of
// typed cells, an optional (possibly composite) index, group-by
// aggregation and left-outer joins.
package table

import "fmt"

// Table is an ordered collection of named columns of equal length.
// An optional index designates one or more columns as the key by which
// rows are addressed; index columns remain ordinary columns, so setting
// and clearing the index never reshapes the table.
type Table struct {
	name    string
	columns []string
	cells   map[string][]Value
	index   []string
	nrows   int
}

// New creates an empty table.
func New(name string) *Table {
	return &Table{
		name:  name,
		cells: make(map[string][]Value),
	}
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.nrows
}

// Columns returns column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// MissingColumns returns the subset of names not present in the table.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// AddColumn appends a column. The first column fixes the row count;
// subsequent columns must match it.
func (t *Table) AddColumn(name string, values []Value) error {
	if t.HasColumn(name) {
		return Schemaf("table %q: duplicate column %q", t.name, name)
	}
	if len(t.columns) > 0 && len(values) != t.nrows {
		return Schemaf("table %q: column %q has %d values, want %d", t.name, name, len(values), t.nrows)
	}
	t.columns = append(t.columns, name)
	t.cells[name] = values
	t.nrows = len(values)
	return nil
}

// SetColumn replaces a column's cells, appending the column if absent.
func (t *Table) SetColumn(name string, values []Value) error {
	if !t.HasColumn(name) {
		return t.AddColumn(name, values)
	}
	if len(values) != t.nrows {
		return Schemaf("table %q: column %q has %d values, want %d", t.name, name, len(values), t.nrows)
	}
	t.cells[name] = values
	return nil
}

// Column returns the cells of a column.
func (t *Table) Column(name string) ([]Value, error) {
	vals, ok := t.cells[name]
	if !ok {
		return nil, &ColumnNotFoundError{Table: t.name, Columns: []string{name}}
	}
	return vals, nil
}

// Cell returns one cell. Out-of-range or unknown columns yield missing.
func (t *Table) Cell(column string, row int) Value {
	vals, ok := t.cells[column]
	if !ok || row < 0 || row >= len(vals) {
		return Missing()
	}
	return vals[row]
}

// SetCell overwrites one cell.
func (t *Table) SetCell(column string, row int, v Value) error {
	vals, ok := t.cells[column]
	if !ok {
		return &ColumnNotFoundError{Table: t.name, Columns: []string{column}}
	}
	if row < 0 || row >= len(vals) {
		return fmt.Errorf("table %q: row %d out of range", t.name, row)
	}
	vals[row] = v
	return nil
}

// SetIndex designates the index columns. All named columns must exist.
func (t *Table) SetIndex(names ...string) error {
	if missing := t.MissingColumns(names); len(missing) > 0 {
		return &ColumnNotFoundError{Table: t.name, Columns: missing}
	}
	t.index = append([]string(nil), names...)
	return nil
}

// ResetIndex clears the index designation. Columns are untouched.
func (t *Table) ResetIndex() {
	t.index = nil
}

// Index returns the index column names, or nil if no index is set.
func (t *Table) Index() []string {
	return append([]string(nil), t.index...)
}

// Rename renames columns according to mapping. Every key must name an
// existing column. All entries apply simultaneously, so an overlapping
// mapping like {a: b, b: c} is legal; a collision is judged against the
// post-rename name set and is a SchemaError.
func (t *Table) Rename(mapping map[string]string) error {
	for old := range mapping {
		if !t.HasColumn(old) {
			return Schemaf("table %q: cannot rename missing column %q", t.name, old)
		}
	}

	renamed := func(c string) string {
		if n, ok := mapping[c]; ok {
			return n
		}
		return c
	}

	// Stage the full rename before mutating anything.
	taken := make(map[string]string, len(t.columns))
	for _, c := range t.columns {
		n := renamed(c)
		if prev, ok := taken[n]; ok {
			return Schemaf("table %q: rename collides on %q (from %q and %q)", t.name, n, prev, c)
		}
		taken[n] = c
	}

	columns := make([]string, len(t.columns))
	cells := make(map[string][]Value, len(t.cells))
	for i, c := range t.columns {
		columns[i] = renamed(c)
		cells[columns[i]] = t.cells[c]
	}
	for i, c := range t.index {
		t.index[i] = renamed(c)
	}
	t.columns = columns
	t.cells = cells
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New(t.name)
	c.nrows = t.nrows
	c.columns = append([]string(nil), t.columns...)
	c.index = append([]string(nil), t.index...)
	for name, vals := range t.cells {
		c.cells[name] = append([]Value(nil), vals...)
	}
	return c
}

// rowsByKey groups row positions by the string rendering of a column's
// cells, preserving first-seen key order. Missing cells are skipped, and
// so are cells rendering to the empty string: neither holds a usable key.
func (t *Table) rowsByKey(column string) (keys []string, groups map[string][]int, err error) {
	vals, err := t.Column(column)
	if err != nil {
		return nil, nil, err
	}
	groups = make(map[string][]int)
	for i, v := range vals {
		if v.IsMissing() {
			continue
		}
		k := v.String()
		if k == "" {
			continue
		}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	return keys, groups, nil
}
