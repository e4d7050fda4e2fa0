package table

// LeftJoin joins right onto left by matching left's key column against
// right's unique index, returning a new table. Every left row survives
// exactly once; right rows with no partner are ignored. Columns that
// exist on both sides are merged by filling only left's missing cells
// (left's non-missing values always win) and the incoming copy is
// dropped. The input tables are not modified, so a caller can swap the
// result in atomically.
func LeftJoin(left, right *Table, key string) (*Table, error) {
	if !left.HasColumn(key) {
		return nil, &ColumnNotFoundError{Table: left.Name(), Columns: []string{key}}
	}
	rightIdx := right.Index()
	if len(rightIdx) != 1 || rightIdx[0] != key {
		return nil, Schemaf("join: table %q must be indexed by %q", right.Name(), key)
	}
	if err := checkUniqueIndex(right, key); err != nil {
		return nil, err
	}

	// Position of each right row by key.
	rightKeys, err := right.Column(key)
	if err != nil {
		return nil, err
	}
	rightRow := make(map[string]int, len(rightKeys))
	for i, v := range rightKeys {
		if !v.IsMissing() {
			rightRow[v.String()] = i
		}
	}

	leftKeys, err := left.Column(key)
	if err != nil {
		return nil, err
	}

	out := left.Clone()
	for _, col := range right.Columns() {
		if col == key {
			continue
		}
		src, err := right.Column(col)
		if err != nil {
			return nil, err
		}

		incoming := make([]Value, left.NumRows())
		for i, lk := range leftKeys {
			if lk.IsMissing() {
				incoming[i] = Missing()
				continue
			}
			if r, ok := rightRow[lk.String()]; ok {
				incoming[i] = src[r]
			} else {
				incoming[i] = Missing()
			}
		}

		if out.HasColumn(col) {
			existing, err := out.Column(col)
			if err != nil {
				return nil, err
			}
			for i := range existing {
				if existing[i].IsMissing() {
					existing[i] = incoming[i]
				}
			}
		} else if err := out.AddColumn(col, incoming); err != nil {
			return nil, err
		}
	}

	return out, nil
}
