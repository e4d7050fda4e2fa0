package table

import "sort"

// Reducer selects how values sharing a group key collapse to one cell.
type Reducer string

const (
	// ReduceConcat joins the unique string renderings of a group's
	// values with ListSeparator, in first-seen order.
	ReduceConcat Reducer = "concat"
	ReduceFirst  Reducer = "first"
	ReduceLast   Reducer = "last"
	ReduceSum    Reducer = "sum"
	ReduceMean   Reducer = "mean"
	ReduceMedian Reducer = "median"
)

// valid reports whether r names a known reduction. Empty means concat.
func (r Reducer) valid() bool {
	switch r {
	case ReduceConcat, "", ReduceFirst, ReduceLast, ReduceSum, ReduceMean, ReduceMedian:
		return true
	}
	return false
}

// Aggregate groups t by the key column and reduces every value column per
// group. Rows whose key is missing are dropped; keys rendering to the
// empty string are treated as missing and dropped too, since they cannot
// be joined against. The result carries the key as both a column and its
// index, and the index is guaranteed unique: one row per distinct
// non-missing key. A duplicate in the output index is a
// DuplicateIndexError (unreachable by construction, checked regardless).
// An unknown reducer is a SchemaError.
func Aggregate(t *Table, key string, columns []string, reducer Reducer) (*Table, error) {
	if !reducer.valid() {
		return nil, Schemaf("table %q: unknown reducer %q", t.Name(), reducer)
	}
	want := append([]string{key}, columns...)
	if missing := t.MissingColumns(want); len(missing) > 0 {
		return nil, &ColumnNotFoundError{Table: t.Name(), Columns: missing}
	}

	keys, groups, err := t.rowsByKey(key)
	if err != nil {
		return nil, err
	}

	out := New(t.Name())
	keyCells := make([]Value, len(keys))
	for i, k := range keys {
		keyCells[i] = String(k)
	}
	if err := out.AddColumn(key, keyCells); err != nil {
		return nil, err
	}

	for _, col := range columns {
		if col == key {
			continue
		}
		src, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		cells := make([]Value, len(keys))
		for i, k := range keys {
			cells[i] = reduce(src, groups[k], reducer)
		}
		if err := out.AddColumn(col, cells); err != nil {
			return nil, err
		}
	}

	if err := out.SetIndex(key); err != nil {
		return nil, err
	}
	if err := checkUniqueIndex(out, key); err != nil {
		return nil, err
	}
	return out, nil
}

// reduce collapses the cells at the given row positions to one value.
func reduce(src []Value, rows []int, reducer Reducer) Value {
	switch reducer {
	case ReduceConcat, "":
		return concatUniques(src, rows)
	case ReduceFirst:
		for _, r := range rows {
			if !src[r].IsMissing() {
				return src[r]
			}
		}
		return Missing()
	case ReduceLast:
		for i := len(rows) - 1; i >= 0; i-- {
			if !src[rows[i]].IsMissing() {
				return src[rows[i]]
			}
		}
		return Missing()
	case ReduceSum, ReduceMean:
		sum, n := 0.0, 0
		for _, r := range rows {
			if f, ok := src[r].Num(); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			return Missing()
		}
		if reducer == ReduceMean {
			return Number(sum / float64(n))
		}
		return Number(sum)
	case ReduceMedian:
		var nums []float64
		for _, r := range rows {
			if f, ok := src[r].Num(); ok {
				nums = append(nums, f)
			}
		}
		if len(nums) == 0 {
			return Missing()
		}
		sort.Float64s(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 1 {
			return Number(nums[mid])
		}
		return Number((nums[mid-1] + nums[mid]) / 2)
	default:
		// Unreachable: Aggregate validates the reducer up front.
		return Missing()
	}
}

// concatUniques collapses a group to the unique string renderings of its
// non-missing values, joined with ListSeparator in first-seen order.
func concatUniques(src []Value, rows []int) Value {
	var uniq []string
	seen := make(map[string]struct{})
	for _, r := range rows {
		for _, s := range src[r].Strings() {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			uniq = append(uniq, s)
		}
	}
	if len(uniq) == 0 {
		return Missing()
	}
	if len(uniq) == 1 {
		return String(uniq[0])
	}
	return List(uniq...)
}

// checkUniqueIndex verifies that no two rows share an index value.
func checkUniqueIndex(t *Table, column string) error {
	vals, err := t.Column(column)
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		k := v.String()
		counts[k]++
		if counts[k] > 1 {
			return &DuplicateIndexError{Column: column, Value: k, Count: counts[k]}
		}
	}
	return nil
}
