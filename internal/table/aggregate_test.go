package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goTerms(t *testing.T) *Table {
	t.Helper()

	tbl := New("go_terms")
	require.NoError(t, tbl.AddColumn("gene_id", []Value{
		String("G1"), String("G1"), String("G2"), Missing(), String("G1"),
	}))
	require.NoError(t, tbl.AddColumn("go_id", []Value{
		String("GO:1"), String("GO:2"), String("GO:3"), String("GO:4"), String("GO:1"),
	}))
	require.NoError(t, tbl.AddColumn("score", []Value{
		Number(1), Number(3), Number(5), Number(7), Number(2),
	}))
	return tbl
}

func TestAggregate_ConcatUniques(t *testing.T) {
	agg, err := Aggregate(goTerms(t), "gene_id", []string{"go_id"}, ReduceConcat)
	require.NoError(t, err)

	// One row per distinct non-missing key; missing-key row dropped.
	assert.Equal(t, 2, agg.NumRows())
	assert.Equal(t, []string{"gene_id"}, agg.Index())

	// Duplicates collapsed, first-seen order preserved.
	assert.Equal(t, "GO:1|GO:2", agg.Cell("go_id", 0).String())
	assert.Equal(t, "GO:3", agg.Cell("go_id", 1).String())
}

func TestAggregate_UniqueIndex(t *testing.T) {
	agg, err := Aggregate(goTerms(t), "gene_id", []string{"go_id", "score"}, ReduceConcat)
	require.NoError(t, err)

	keys, err := agg.Column("gene_id")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, k := range keys {
		assert.False(t, seen[k.String()], "duplicate index value %s", k)
		seen[k.String()] = true
	}
	assert.Len(t, seen, 2, "index size equals distinct non-missing keys")
}

func TestAggregate_NumericReducers(t *testing.T) {
	tests := []struct {
		reducer Reducer
		g1      float64
		g2      float64
	}{
		{ReduceSum, 6, 5},
		{ReduceMean, 2, 5},
		{ReduceMedian, 2, 5},
		{ReduceFirst, 1, 5},
		{ReduceLast, 2, 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.reducer), func(t *testing.T) {
			agg, err := Aggregate(goTerms(t), "gene_id", []string{"score"}, tt.reducer)
			require.NoError(t, err)
			require.Equal(t, 2, agg.NumRows())

			g1, ok := agg.Cell("score", 0).Num()
			require.True(t, ok)
			assert.Equal(t, tt.g1, g1)

			g2, ok := agg.Cell("score", 1).Num()
			require.True(t, ok)
			assert.Equal(t, tt.g2, g2)
		})
	}
}

func TestAggregate_UnknownReducer(t *testing.T) {
	// A misspelled reducer must error, never fall back to concatenation.
	_, err := Aggregate(goTerms(t), "gene_id", []string{"score"}, Reducer("mode"))

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), "mode")
}

func TestAggregate_MedianEvenCount(t *testing.T) {
	tbl := New("expr")
	require.NoError(t, tbl.AddColumn("gene_id", []Value{
		String("G1"), String("G1"), String("G1"), String("G1"),
	}))
	require.NoError(t, tbl.AddColumn("tpm", []Value{
		Number(1), Number(9), Number(3), Number(5),
	}))

	agg, err := Aggregate(tbl, "gene_id", []string{"tpm"}, ReduceMedian)
	require.NoError(t, err)

	g1, ok := agg.Cell("tpm", 0).Num()
	require.True(t, ok)
	assert.Equal(t, 4.0, g1, "even group size averages the two middle values")
}

func TestAggregate_EmptyStringKey(t *testing.T) {
	tbl := New("xref")
	require.NoError(t, tbl.AddColumn("gene_id", []Value{String("G1"), String(""), Missing()}))
	require.NoError(t, tbl.AddColumn("go_id", []Value{String("GO:1"), String("GO:2"), String("GO:3")}))

	agg, err := Aggregate(tbl, "gene_id", []string{"go_id"}, ReduceConcat)
	require.NoError(t, err)

	// Empty-string keys are unjoinable and drop with the missing ones.
	require.Equal(t, 1, agg.NumRows())
	assert.Equal(t, "G1", agg.Cell("gene_id", 0).String())
}

func TestAggregate_ColumnNotFound(t *testing.T) {
	_, err := Aggregate(goTerms(t), "gene_id", []string{"go_id", "nope", "also_nope"}, ReduceConcat)

	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"nope", "also_nope"}, notFound.Columns)
}

func TestAggregate_KeyAmongValueColumns(t *testing.T) {
	// The key may appear in the value-column list; it is not reduced twice.
	agg, err := Aggregate(goTerms(t), "gene_id", []string{"gene_id", "go_id"}, ReduceConcat)
	require.NoError(t, err)
	assert.Equal(t, []string{"gene_id", "go_id"}, agg.Columns())
}

func TestAggregate_ListCellsFlatten(t *testing.T) {
	tbl := New("xref")
	require.NoError(t, tbl.AddColumn("gene_id", []Value{String("G1"), String("G1")}))
	require.NoError(t, tbl.AddColumn("go_id", []Value{List("GO:1", "GO:2"), List("GO:2", "GO:3")}))

	agg, err := Aggregate(tbl, "gene_id", []string{"go_id"}, ReduceConcat)
	require.NoError(t, err)
	assert.Equal(t, "GO:1|GO:2|GO:3", agg.Cell("go_id", 0).String())
}
