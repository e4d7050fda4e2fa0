// Package annotation owns the caller's working annotation table and the
// join operations that pull aggregated reference columns into it.
package annotation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/omixdb/omix/internal/dataset"
	"github.com/omixdb/omix/internal/table"
)

// DiseaseColName is the column disease associations are written to.
const DiseaseColName = "disease_associations"

// Store holds the annotations table for a fixed set of entities. Rows
// are fixed at Init; joins only ever add or fill columns. A Store is
// not safe for concurrent mutation; callers must serialize Join and
// Attach calls on the same instance.
type Store struct {
	annotations *table.Table
	expressions *table.Table
	matcher     Matcher
	logger      *zap.Logger
}

// New creates an uninitialized store.
func New() *Store {
	return &Store{
		matcher: RatioMatcher{},
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for join diagnostics.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// SetMatcher replaces the fuzzy key matcher.
func (s *Store) SetMatcher(m Matcher) {
	s.matcher = m
}

// Init creates the annotations table with one row per identifier,
// indexed by the given identifier-space name. Duplicate identifiers
// are kept as-is; callers deduplicate beforehand.
func (s *Store) Init(identifiers []string, index string) error {
	cells := make([]table.Value, len(identifiers))
	for i, id := range identifiers {
		cells[i] = table.String(id)
	}

	tbl := table.New("annotations")
	if err := tbl.AddColumn(index, cells); err != nil {
		return err
	}
	if err := tbl.SetIndex(index); err != nil {
		return err
	}
	s.annotations = tbl
	s.expressions = nil
	return nil
}

// InitComposite creates the annotations table with a composite index.
// Each row supplies one value per index level.
func (s *Store) InitComposite(index []string, rows [][]string) error {
	if len(index) == 0 {
		return table.Schemaf("composite index needs at least one level")
	}

	tbl := table.New("annotations")
	for lvl, name := range index {
		cells := make([]table.Value, len(rows))
		for i, row := range rows {
			if lvl >= len(row) {
				return table.Schemaf("row %d has %d values, want %d index levels", i, len(row), len(index))
			}
			cells[i] = table.String(row[lvl])
		}
		if err := tbl.AddColumn(name, cells); err != nil {
			return err
		}
	}
	if err := tbl.SetIndex(index...); err != nil {
		return err
	}
	s.annotations = tbl
	s.expressions = nil
	return nil
}

// Annotations returns the working table. Callers must treat it as
// read-only between store operations.
func (s *Store) Annotations() (*table.Table, error) {
	if s.annotations == nil {
		return nil, &NotInitializedError{Op: "Annotations"}
	}
	return s.annotations, nil
}

// Expressions returns the secondary expression table built by
// AnnotateExpressions.
func (s *Store) Expressions() (*table.Table, error) {
	if s.expressions == nil {
		return nil, &NotInitializedError{Op: "Expressions"}
	}
	return s.expressions, nil
}

// Join aggregates the dataset's table by key, optionally remaps the
// aggregated keys by fuzzy matching against the store's index values,
// and left-outer-joins the result onto the annotations. The annotations
// row set and index survive unchanged; overlapping columns are merged
// by filling missing cells only. The result is staged and swapped in
// atomically: on error the annotations are untouched.
func (s *Store) Join(ds dataset.Dataset, key string, columns []string, agg table.Reducer, fuzzyMatch bool) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "Join"}
	}

	aggregated, err := table.Aggregate(ds.Table(), key, columns, agg)
	if err != nil {
		return fmt.Errorf("join %s on %q: %w", ds.Name(), key, err)
	}

	if fuzzyMatch {
		aggregated, err = s.fuzzyRemap(aggregated, key)
		if err != nil {
			return fmt.Errorf("join %s on %q: %w", ds.Name(), key, err)
		}
	}

	joined, err := table.LeftJoin(s.annotations, aggregated, key)
	if err != nil {
		return fmt.Errorf("join %s on %q: %w", ds.Name(), key, err)
	}

	s.logger.Info("joined annotations",
		zap.String("dataset", ds.Name()),
		zap.String("key", key),
		zap.Strings("columns", columns))
	s.annotations = joined
	return nil
}

// fuzzyRemap rewrites the aggregated table's keys to their closest
// match among the store's index values. Keys with no match, and keys
// whose match is already taken by an earlier row, are dropped.
func (s *Store) fuzzyRemap(aggregated *table.Table, key string) (*table.Table, error) {
	idx := s.annotations.Index()
	universeCells, err := s.annotations.Column(idx[0])
	if err != nil {
		return nil, err
	}
	universe := make([]string, 0, len(universeCells))
	for _, v := range universeCells {
		if !v.IsMissing() {
			universe = append(universe, v.String())
		}
	}

	keys, err := aggregated.Column(key)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(keys))
	var kept []int
	remapped := make([]table.Value, 0, len(keys))
	dropped := 0
	for i, v := range keys {
		match, ok := s.matcher.BestMatch(v.String(), universe)
		if !ok || taken[match] {
			dropped++
			continue
		}
		taken[match] = true
		kept = append(kept, i)
		remapped = append(remapped, table.String(match))
	}
	if dropped > 0 {
		s.logger.Debug("fuzzy match dropped unmatched keys",
			zap.String("key", key),
			zap.Int("dropped", dropped))
	}

	out := table.New(aggregated.Name())
	if err := out.AddColumn(key, remapped); err != nil {
		return nil, err
	}
	for _, col := range aggregated.Columns() {
		if col == key {
			continue
		}
		cells := make([]table.Value, 0, len(kept))
		for _, row := range kept {
			cells = append(cells, aggregated.Cell(col, row))
		}
		if err := out.AddColumn(col, cells); err != nil {
			return nil, err
		}
	}
	if err := out.SetIndex(key); err != nil {
		return nil, err
	}
	return out, nil
}

// AttachSequences resolves sequences from a dataset with the sequence
// capability and writes them to the "sequence" column, matched on the
// active index (for a composite index, the level named by space).
// Identifiers without a sequence stay missing.
func (s *Store) AttachSequences(ds dataset.Dataset, space string, policy dataset.SequencePolicy) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "AttachSequences"}
	}
	src, ok := ds.(dataset.SequenceSource)
	if !ok {
		return &dataset.UnsupportedCapabilityError{Dataset: ds.Name(), Capability: "sequences"}
	}

	seqs, err := src.Sequences(space, policy)
	if err != nil {
		return fmt.Errorf("attach sequences from %s: %w", ds.Name(), err)
	}
	return s.mapOntoIndex(dataset.SequenceColName, space, seqs)
}

// AttachDiseases writes disease associations from a dataset with the
// disease capability to the "disease_associations" column.
func (s *Store) AttachDiseases(ds dataset.Dataset, space string) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "AttachDiseases"}
	}
	src, ok := ds.(dataset.DiseaseSource)
	if !ok {
		return &dataset.UnsupportedCapabilityError{Dataset: ds.Name(), Capability: "disease associations"}
	}

	assocs, err := src.DiseaseAssocs(space)
	if err != nil {
		return fmt.Errorf("attach diseases from %s: %w", ds.Name(), err)
	}
	return s.mapOntoIndex(DiseaseColName, space, assocs)
}

// AttachInteractions joins an interaction table from a dataset with the
// interaction capability onto the annotations, keyed by space.
func (s *Store) AttachInteractions(ds dataset.Dataset, space string) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "AttachInteractions"}
	}
	src, ok := ds.(dataset.InteractionSource)
	if !ok {
		return &dataset.UnsupportedCapabilityError{Dataset: ds.Name(), Capability: "interactions"}
	}

	interactions, err := src.Interactions(space)
	if err != nil {
		return fmt.Errorf("attach interactions from %s: %w", ds.Name(), err)
	}
	joined, err := table.LeftJoin(s.annotations, interactions, space)
	if err != nil {
		return fmt.Errorf("attach interactions from %s: %w", ds.Name(), err)
	}
	s.annotations = joined
	return nil
}

// AnnotateExpressions builds the secondary expression table by
// median-aggregating every numeric column of the dataset by key. The
// key must be the store's active (single) index.
func (s *Store) AnnotateExpressions(ds dataset.Dataset, key string) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "AnnotateExpressions"}
	}
	idx := s.annotations.Index()
	if len(idx) != 1 || idx[0] != key {
		return table.Schemaf("expressions key %q must match the store index %v", key, idx)
	}

	src := ds.Table()
	var numeric []string
	for _, col := range src.Columns() {
		if col == key {
			continue
		}
		cells, err := src.Column(col)
		if err != nil {
			return err
		}
		for _, v := range cells {
			if _, ok := v.Num(); ok {
				numeric = append(numeric, col)
				break
			}
		}
	}
	if len(numeric) == 0 {
		return table.Schemaf("dataset %s has no numeric columns to aggregate", ds.Name())
	}

	agg, err := table.Aggregate(src, key, numeric, table.ReduceMedian)
	if err != nil {
		return fmt.Errorf("annotate expressions from %s: %w", ds.Name(), err)
	}

	base := table.New("annotation_expressions")
	keyCells, err := s.annotations.Column(key)
	if err != nil {
		return err
	}
	if err := base.AddColumn(key, append([]table.Value(nil), keyCells...)); err != nil {
		return err
	}
	if err := base.SetIndex(key); err != nil {
		return err
	}

	expressions, err := table.LeftJoin(base, agg, key)
	if err != nil {
		return fmt.Errorf("annotate expressions from %s: %w", ds.Name(), err)
	}
	s.expressions = expressions
	return nil
}

// SetIndex re-keys the annotations to another identifier column. Rows
// missing a value in the new index column inherit their current index
// value first, so no row loses its key.
func (s *Store) SetIndex(newIndex string) error {
	if s.annotations == nil {
		return &NotInitializedError{Op: "SetIndex"}
	}
	if !s.annotations.HasColumn(newIndex) {
		return &table.ColumnNotFoundError{Table: s.annotations.Name(), Columns: []string{newIndex}}
	}

	cur := s.annotations.Index()[0]
	next, err := s.annotations.Column(newIndex)
	if err != nil {
		return err
	}
	for i, v := range next {
		if v.IsMissing() {
			if err := s.annotations.SetCell(newIndex, i, s.annotations.Cell(cur, i)); err != nil {
				return err
			}
		}
	}
	return s.annotations.SetIndex(newIndex)
}

// RenameDict derives an identifier mapping between two annotation
// columns, skipping entities with no target value.
func (s *Store) RenameDict(fromSpace, toSpace string) (map[string]string, error) {
	if s.annotations == nil {
		return nil, &NotInitializedError{Op: "RenameDict"}
	}

	if missing := s.annotations.MissingColumns([]string{fromSpace, toSpace}); len(missing) > 0 {
		return nil, &table.ColumnNotFoundError{Table: s.annotations.Name(), Columns: missing}
	}
	from, err := s.annotations.Column(fromSpace)
	if err != nil {
		return nil, err
	}
	to, err := s.annotations.Column(toSpace)
	if err != nil {
		return nil, err
	}

	dict := make(map[string]string)
	for i := range from {
		if from[i].IsMissing() || to[i].IsMissing() {
			continue
		}
		dict[from[i].String()] = to[i].String()
	}
	return dict, nil
}

// mapOntoIndex writes a mapped column onto the annotations, looking up
// each row by the active index (or the named composite level).
func (s *Store) mapOntoIndex(column, space string, mapping map[string]table.Value) error {
	idx := s.annotations.Index()
	lookup := idx[0]
	if len(idx) > 1 {
		found := false
		for _, level := range idx {
			if level == space {
				lookup, found = level, true
				break
			}
		}
		if !found {
			return table.Schemaf("identifier space %q is not a level of index %v", space, idx)
		}
	}

	keys, err := s.annotations.Column(lookup)
	if err != nil {
		return err
	}
	cells := make([]table.Value, len(keys))
	for i, k := range keys {
		if k.IsMissing() {
			cells[i] = table.Missing()
			continue
		}
		if v, ok := mapping[k.String()]; ok {
			cells[i] = v
		} else {
			cells[i] = table.Missing()
		}
	}
	return s.annotations.SetColumn(column, cells)
}
