package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/omixdb/omix/internal/resource"
	"github.com/omixdb/omix/internal/table"
)

// Logical file names the RNAcentral dataset requires.
const (
	RNAcentralRfamAnnotations = "rnacentral_rfam_annotations.tsv"
	RNAcentralGencodeXref     = "gencode.tsv"
)

// DefaultRNAcentralRename maps RNAcentral's native column names onto the
// shared identifier spaces.
var DefaultRNAcentralRename = map[string]string{
	"external_id": SpaceTranscriptID,
	"gene_symbol": SpaceGeneName,
	"go_terms":    "go_id",
}

// RNAcentral cross-references RNAcentral identifiers with GENCODE
// transcripts and rolls up GO term and Rfam annotations per identifier.
type RNAcentral struct {
	tbl     *table.Table
	species string
	logger  *zap.Logger
}

// NewRNAcentral loads the cross-reference and annotation TSVs from res.
// Rows are restricted to the given species taxon (empty keeps all), and
// rows with neither GO terms nor Rfam families are dropped. colRename
// nil applies DefaultRNAcentralRename.
func NewRNAcentral(res *resource.Set, species string, colRename map[string]string) (*RNAcentral, error) {
	r := &RNAcentral{
		species: species,
		logger:  zap.NewNop(),
	}
	tbl, err := r.load(res)
	if err != nil {
		return nil, err
	}
	if colRename == nil {
		colRename = DefaultRNAcentralRename
	}
	if err := tbl.Rename(colRename); err != nil {
		return nil, err
	}
	r.tbl = tbl
	return r, nil
}

// SetLogger sets the logger for load diagnostics.
func (r *RNAcentral) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Name returns the dataset identity.
func (r *RNAcentral) Name() string {
	return "RNAcentral"
}

// Table returns the cross-reference table.
func (r *RNAcentral) Table() *table.Table {
	return r.tbl
}

// RenameDict maps one identifier space to another using the
// cross-reference table.
func (r *RNAcentral) RenameDict(fromSpace, toSpace string) (map[string]string, error) {
	return renameDict(r.tbl, fromSpace, toSpace)
}

func (r *RNAcentral) load(res *resource.Set) (*table.Table, error) {
	xrefFile, err := res.Open(RNAcentralGencodeXref)
	if err != nil {
		return nil, err
	}
	defer xrefFile.Close()

	xref, err := readTSV(r.Name(), xrefFile,
		[]string{"rnacentral_id", "database", "external_id", "species", "rna_type", "gene_symbol"})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", RNAcentralGencodeXref, err)
	}
	if r.species != "" {
		xref, err = filterRows(xref, func(row int) bool {
			return xref.Cell("species", row).String() == r.species
		})
		if err != nil {
			return nil, err
		}
	}

	annFile, err := res.Open(RNAcentralRfamAnnotations)
	if err != nil {
		return nil, err
	}
	defer annFile.Close()

	anns, err := readTSV(r.Name(), annFile,
		[]string{"rnacentral_id", "go_terms", "rfams"})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", RNAcentralRfamAnnotations, err)
	}

	// Annotation IDs carry a taxon suffix (URS0000..._9606); the
	// cross-reference uses the bare accession.
	ids, err := anns.Column("rnacentral_id")
	if err != nil {
		return nil, err
	}
	for i, v := range ids {
		if v.IsMissing() {
			continue
		}
		bare, _, _ := strings.Cut(v.String(), "_")
		ids[i] = table.String(bare)
	}

	// Roll up GO terms and Rfams per identifier, then pull them onto
	// the cross-reference rows.
	agg, err := table.Aggregate(anns, "rnacentral_id", []string{"go_terms", "rfams"}, table.ReduceConcat)
	if err != nil {
		return nil, err
	}
	joined, err := table.LeftJoin(xref, agg, "rnacentral_id")
	if err != nil {
		return nil, err
	}

	joined, err = filterRows(joined, func(row int) bool {
		return !joined.Cell("go_terms", row).IsMissing() || !joined.Cell("rfams", row).IsMissing()
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("loaded RNAcentral annotations",
		zap.Int("rows", joined.NumRows()),
		zap.String("species", r.species))
	return joined, nil
}

// readTSV reads header-less tab-delimited rows into a table with the
// given column names. Short rows pad with missing cells.
func readTSV(name string, rd io.Reader, columns []string) (*table.Table, error) {
	s := bufio.NewScanner(rd)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)

	cells := make([][]table.Value, len(columns))
	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for i := range columns {
			if i < len(fields) && fields[i] != "" {
				cells[i] = append(cells[i], table.String(fields[i]))
			} else {
				cells[i] = append(cells[i], table.Missing())
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan tsv: %w", err)
	}

	tbl := table.New(name)
	for i, col := range columns {
		if err := tbl.AddColumn(col, cells[i]); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// filterRows returns a copy of t keeping only rows where keep is true.
func filterRows(t *table.Table, keep func(row int) bool) (*table.Table, error) {
	var rows []int
	for i := 0; i < t.NumRows(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}

	out := table.New(t.Name())
	for _, col := range t.Columns() {
		cells := make([]table.Value, 0, len(rows))
		for _, row := range rows {
			cells = append(cells, t.Cell(col, row))
		}
		if err := out.AddColumn(col, cells); err != nil {
			return nil, err
		}
	}
	if idx := t.Index(); len(idx) > 0 {
		if err := out.SetIndex(idx...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
