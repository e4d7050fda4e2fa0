package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omixdb/omix/internal/dataset"
	"github.com/omixdb/omix/internal/table"
)

// fakeDataset is a minimal in-memory dataset for store tests.
type fakeDataset struct {
	name string
	tbl  *table.Table
}

func (d *fakeDataset) Name() string        { return d.name }
func (d *fakeDataset) Table() *table.Table { return d.tbl }
func (d *fakeDataset) RenameDict(from, to string) (map[string]string, error) {
	return nil, nil
}

// seqDataset adds the sequence capability.
type seqDataset struct {
	fakeDataset
	seqs map[string]table.Value
}

func (d *seqDataset) Sequences(space string, policy dataset.SequencePolicy) (map[string]table.Value, error) {
	return d.seqs, nil
}

// diseaseDataset adds the disease-association capability.
type diseaseDataset struct {
	fakeDataset
	assocs map[string]table.Value
}

func (d *diseaseDataset) DiseaseAssocs(space string) (map[string]table.Value, error) {
	return d.assocs, nil
}

func goDataset(t *testing.T) *fakeDataset {
	t.Helper()

	tbl := table.New("go")
	require.NoError(t, tbl.AddColumn("gene_id", []table.Value{
		table.String("G1"), table.String("G1"), table.String("G2"),
	}))
	require.NoError(t, tbl.AddColumn("go_id", []table.Value{
		table.String("GO:1"), table.String("GO:2"), table.String("GO:3"),
	}))
	return &fakeDataset{name: "go", tbl: tbl}
}

func TestStore_ReadBeforeInit(t *testing.T) {
	s := New()

	_, err := s.Annotations()
	var notInit *NotInitializedError
	require.ErrorAs(t, err, &notInit)

	err = s.Join(goDataset(t), "gene_id", []string{"go_id"}, table.ReduceConcat, false)
	assert.ErrorAs(t, err, &notInit)
}

func TestStore_JoinEndToEnd(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2", "G3"}, "gene_id"))

	require.NoError(t, s.Join(goDataset(t), "gene_id", []string{"go_id"}, table.ReduceConcat, false))

	ann, err := s.Annotations()
	require.NoError(t, err)
	require.Equal(t, 3, ann.NumRows())

	assert.Equal(t, "GO:1|GO:2", ann.Cell("go_id", 0).String())
	assert.Equal(t, "GO:3", ann.Cell("go_id", 1).String())
	assert.True(t, ann.Cell("go_id", 2).IsMissing())
}

func TestStore_JoinRowCountInvariant(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2", "G3", "G4"}, "gene_id"))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Join(goDataset(t), "gene_id", []string{"go_id"}, table.ReduceConcat, false))
		ann, err := s.Annotations()
		require.NoError(t, err)
		assert.Equal(t, 4, ann.NumRows(), "join %d changed the row count", i)
	}
}

func TestStore_JoinCollisionMerge(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2", "G3"}, "gene_id"))

	first := table.New("names1")
	require.NoError(t, first.AddColumn("gene_id", []table.Value{table.String("G1"), table.String("G3")}))
	require.NoError(t, first.AddColumn("gene_name", []table.Value{table.String("TP53"), table.String("EGFR")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names1", tbl: first}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	second := table.New("names2")
	require.NoError(t, second.AddColumn("gene_id", []table.Value{table.String("G1"), table.String("G2")}))
	require.NoError(t, second.AddColumn("gene_name", []table.Value{table.String("WRONG"), table.String("KRAS")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names2", tbl: second}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, "TP53", ann.Cell("gene_name", 0).String(), "existing non-missing value wins")
	assert.Equal(t, "KRAS", ann.Cell("gene_name", 1).String(), "missing cell filled by incoming")
	assert.Equal(t, "EGFR", ann.Cell("gene_name", 2).String())
}

func TestStore_JoinOnNonIndexKey_IndexRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2"}, "gene_id"))

	// First join brings in gene_name keyed by gene_id.
	names := table.New("names")
	require.NoError(t, names.AddColumn("gene_id", []table.Value{table.String("G1"), table.String("G2")}))
	require.NoError(t, names.AddColumn("gene_name", []table.Value{table.String("TP53"), table.String("KRAS")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names", tbl: names}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	// Second join keyed on gene_name, which is not the index.
	terms := table.New("terms")
	require.NoError(t, terms.AddColumn("gene_name", []table.Value{table.String("TP53")}))
	require.NoError(t, terms.AddColumn("go_id", []table.Value{table.String("GO:1")}))
	require.NoError(t, s.Join(&fakeDataset{name: "terms", tbl: terms}, "gene_name", []string{"go_id"}, table.ReduceConcat, false))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, []string{"gene_id"}, ann.Index(), "index survives a join on another key")
	assert.Equal(t, 2, ann.NumRows())
	assert.Equal(t, "GO:1", ann.Cell("go_id", 0).String())
	assert.True(t, ann.Cell("go_id", 1).IsMissing())
}

func TestStore_CompositeIndexRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.InitComposite(
		[]string{"gene_id", "transcript_id"},
		[][]string{{"G1", "T1"}, {"G1", "T2"}, {"G2", "T3"}},
	))

	names := table.New("names")
	require.NoError(t, names.AddColumn("gene_id", []table.Value{table.String("G1"), table.String("G2")}))
	require.NoError(t, names.AddColumn("gene_name", []table.Value{table.String("TP53"), table.String("KRAS")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names", tbl: names}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, []string{"gene_id", "transcript_id"}, ann.Index(), "composite index survives")
	assert.Equal(t, 3, ann.NumRows())
	assert.Equal(t, "TP53", ann.Cell("gene_name", 1).String(), "both G1 rows annotated")
}

func TestStore_JoinAtomicOnError(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1"}, "gene_id"))

	before, err := s.Annotations()
	require.NoError(t, err)
	beforeCols := before.Columns()

	err = s.Join(goDataset(t), "gene_id", []string{"nope"}, table.ReduceConcat, false)
	var notFound *table.ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)

	after, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, beforeCols, after.Columns(), "failed join leaves the table untouched")
}

func TestStore_JoinFuzzyMatch(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"TP53", "KRAS"}, "gene_name"))

	terms := table.New("terms")
	require.NoError(t, terms.AddColumn("gene_name", []table.Value{
		table.String("TP53-201"), table.String("KRAS-201"), table.String("ZZZZZZZZ"),
	}))
	require.NoError(t, terms.AddColumn("go_id", []table.Value{
		table.String("GO:1"), table.String("GO:2"), table.String("GO:9"),
	}))

	require.NoError(t, s.Join(&fakeDataset{name: "terms", tbl: terms}, "gene_name", []string{"go_id"}, table.ReduceConcat, true))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, "GO:1", ann.Cell("go_id", 0).String(), "fuzzy-remapped key joined")
	assert.Equal(t, "GO:2", ann.Cell("go_id", 1).String())
	assert.Equal(t, 2, ann.NumRows(), "unmatched incoming keys dropped, rows unchanged")
}

func TestStore_AttachSequences(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2", "G3"}, "gene_id"))

	ds := &seqDataset{
		fakeDataset: fakeDataset{name: "gencode", tbl: table.New("gencode")},
		seqs: map[string]table.Value{
			"G1": table.String("ACGT"),
			"G2": table.List("ACG", "ACGTACGT"),
		},
	}
	require.NoError(t, s.AttachSequences(ds, "gene_id", dataset.PolicyAll))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, "ACGT", ann.Cell(dataset.SequenceColName, 0).String())
	assert.Equal(t, "ACG|ACGTACGT", ann.Cell(dataset.SequenceColName, 1).String())
	assert.True(t, ann.Cell(dataset.SequenceColName, 2).IsMissing(), "missing mapping is not an error")
}

func TestStore_AttachSequences_CompositeIndexLevel(t *testing.T) {
	s := New()
	require.NoError(t, s.InitComposite(
		[]string{"gene_id", "transcript_id"},
		[][]string{{"G1", "T1"}, {"G2", "T2"}},
	))

	ds := &seqDataset{
		fakeDataset: fakeDataset{name: "gencode", tbl: table.New("gencode")},
		seqs: map[string]table.Value{
			"T1": table.String("ACGT"),
		},
	}
	require.NoError(t, s.AttachSequences(ds, "transcript_id", dataset.PolicyLongest))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, "ACGT", ann.Cell(dataset.SequenceColName, 0).String())
	assert.True(t, ann.Cell(dataset.SequenceColName, 1).IsMissing())
}

func TestStore_AttachSequences_Unsupported(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1"}, "gene_id"))

	err := s.AttachSequences(goDataset(t), "gene_id", dataset.PolicyAll)
	var unsupported *dataset.UnsupportedCapabilityError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "go", unsupported.Dataset)
}

func TestStore_AttachDiseases(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2"}, "gene_id"))

	ds := &diseaseDataset{
		fakeDataset: fakeDataset{name: "disgenet", tbl: table.New("disgenet")},
		assocs: map[string]table.Value{
			"G1": table.List("lung carcinoma", "glioma"),
		},
	}
	require.NoError(t, s.AttachDiseases(ds, "gene_id"))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, "lung carcinoma|glioma", ann.Cell(DiseaseColName, 0).String())
	assert.True(t, ann.Cell(DiseaseColName, 1).IsMissing())
}

func TestStore_AttachInteractions_Unsupported(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1"}, "gene_id"))

	err := s.AttachInteractions(goDataset(t), "gene_id")
	var unsupported *dataset.UnsupportedCapabilityError
	assert.ErrorAs(t, err, &unsupported)
}

func TestStore_AnnotateExpressions(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2", "G3"}, "gene_id"))

	expr := table.New("expr")
	require.NoError(t, expr.AddColumn("gene_id", []table.Value{
		table.String("G1"), table.String("G1"), table.String("G1"), table.String("G2"),
	}))
	require.NoError(t, expr.AddColumn("tpm", []table.Value{
		table.Number(2), table.Number(4), table.Number(12), table.Number(10),
	}))

	require.NoError(t, s.AnnotateExpressions(&fakeDataset{name: "expr", tbl: expr}, "gene_id"))

	exprs, err := s.Expressions()
	require.NoError(t, err)
	require.Equal(t, 3, exprs.NumRows(), "expression table mirrors the annotation rows")

	g1, ok := exprs.Cell("tpm", 0).Num()
	require.True(t, ok)
	assert.Equal(t, 4.0, g1, "transcript values median-aggregated per gene, robust to the outlier")
	assert.True(t, exprs.Cell("tpm", 2).IsMissing())
}

func TestStore_AnnotateExpressions_WrongKey(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1"}, "gene_id"))

	expr := table.New("expr")
	require.NoError(t, expr.AddColumn("gene_name", []table.Value{table.String("TP53")}))
	require.NoError(t, expr.AddColumn("tpm", []table.Value{table.Number(1)}))

	err := s.AnnotateExpressions(&fakeDataset{name: "expr", tbl: expr}, "gene_name")
	var schemaErr *table.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestStore_SetIndex(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2"}, "gene_id"))

	names := table.New("names")
	require.NoError(t, names.AddColumn("gene_id", []table.Value{table.String("G1")}))
	require.NoError(t, names.AddColumn("gene_name", []table.Value{table.String("TP53")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names", tbl: names}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	require.NoError(t, s.SetIndex("gene_name"))

	ann, err := s.Annotations()
	require.NoError(t, err)
	assert.Equal(t, []string{"gene_name"}, ann.Index())
	assert.Equal(t, "TP53", ann.Cell("gene_name", 0).String())
	assert.Equal(t, "G2", ann.Cell("gene_name", 1).String(), "missing name falls back to the old key")
}

func TestStore_RenameDict(t *testing.T) {
	s := New()
	require.NoError(t, s.Init([]string{"G1", "G2"}, "gene_id"))

	names := table.New("names")
	require.NoError(t, names.AddColumn("gene_id", []table.Value{table.String("G1")}))
	require.NoError(t, names.AddColumn("gene_name", []table.Value{table.String("TP53")}))
	require.NoError(t, s.Join(&fakeDataset{name: "names", tbl: names}, "gene_id", []string{"gene_name"}, table.ReduceConcat, false))

	dict, err := s.RenameDict("gene_id", "gene_name")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"G1": "TP53"}, dict, "entities without a target value omitted")
}
