// Package dataset wraps external reference databases as normalized
// in-memory tables. Each dataset resolves its file resources at
// construction, materializes one table, and is read-only afterwards.
// Optional capabilities (sequences, disease associations, interactions,
// ontology traversal) are modeled as interfaces a concrete dataset may
// implement.
package dataset

import (
	"fmt"

	"github.com/omixdb/omix/internal/table"
)

// Identifier spaces shared across datasets.
const (
	SpaceGeneID         = "gene_id"
	SpaceGeneName       = "gene_name"
	SpaceTranscriptID   = "transcript_id"
	SpaceTranscriptName = "transcript_name"
)

// SequenceColName is the fixed column name sequences are written to.
const SequenceColName = "sequence"

// Dataset is one loaded reference database.
type Dataset interface {
	// Name is the dataset's stable identity.
	Name() string
	// Table returns the normalized data table. Callers must not modify it.
	Table() *table.Table
	// RenameDict maps values of one identifier space to another,
	// e.g. gene_id -> gene_name. Identifiers without a target value
	// are omitted.
	RenameDict(fromSpace, toSpace string) (map[string]string, error)
}

// SequencePolicy selects how multiple sequences collapsing to the same
// identifier combine.
type SequencePolicy string

const (
	// PolicyShortest keeps the extremal-length sequence; ties keep the
	// first seen.
	PolicyShortest SequencePolicy = "shortest"
	PolicyLongest  SequencePolicy = "longest"
	// PolicyAll accumulates every sequence in first-seen order.
	PolicyAll SequencePolicy = "all"
)

// SequenceSource is the capability of datasets backed by sequence FASTA.
type SequenceSource interface {
	Sequences(space string, policy SequencePolicy) (map[string]table.Value, error)
}

// DiseaseSource is the capability of datasets carrying gene-disease
// associations.
type DiseaseSource interface {
	DiseaseAssocs(space string) (map[string]table.Value, error)
}

// InteractionSource is the capability of datasets carrying entity
// interaction tables, keyed by an identifier space.
type InteractionSource interface {
	Interactions(space string) (*table.Table, error)
}

// OntologyGraph exposes ancestor lookup over an ontology term DAG.
// Graph construction lives outside this package.
type OntologyGraph interface {
	Predecessors(term string) []string
}

// UnsupportedCapabilityError reports an operation requested on a dataset
// that does not implement the required capability.
type UnsupportedCapabilityError struct {
	Dataset    string
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("dataset %q does not support %s", e.Dataset, e.Capability)
}

// renameDict derives an identifier mapping from two columns of a table.
func renameDict(t *table.Table, fromSpace, toSpace string) (map[string]string, error) {
	if missing := t.MissingColumns([]string{fromSpace, toSpace}); len(missing) > 0 {
		return nil, &table.ColumnNotFoundError{Table: t.Name(), Columns: missing}
	}
	from, err := t.Column(fromSpace)
	if err != nil {
		return nil, err
	}
	to, err := t.Column(toSpace)
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
