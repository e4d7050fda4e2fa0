package dataset

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/omixdb/omix/internal/fasta"
	"github.com/omixdb/omix/internal/gtf"
	"github.com/omixdb/omix/internal/resource"
	"github.com/omixdb/omix/internal/table"
)

// Logical file names the GENCODE dataset requires.
const (
	GENCODEAnnotationGTF   = "annotation.gtf"
	GENCODETranscriptFASTA = "transcripts.fa"
)

// GENCODE wraps GENCODE gene models (GTF) plus transcript sequences
// (FASTA). The table holds one row per transcript feature.
type GENCODE struct {
	res        *resource.Set
	tbl        *table.Table
	replaceU2T bool
	logger     *zap.Logger
}

// NewGENCODE loads the GENCODE annotation GTF from res and applies an
// optional column rename as the final construction step.
func NewGENCODE(res *resource.Set, colRename map[string]string) (*GENCODE, error) {
	g := &GENCODE{
		res:        res,
		replaceU2T: true,
		logger:     zap.NewNop(),
	}
	tbl, err := g.load()
	if err != nil {
		return nil, err
	}
	if colRename != nil {
		if err := tbl.Rename(colRename); err != nil {
			return nil, err
		}
	}
	g.tbl = tbl
	return g, nil
}

// SetLogger sets the logger for load diagnostics.
func (g *GENCODE) SetLogger(l *zap.Logger) {
	g.logger = l
}

// SetReplaceU2T configures whether sequences are normalized from
// RNA-style (U) to DNA-style (T) symbols before aggregation.
func (g *GENCODE) SetReplaceU2T(replace bool) {
	g.replaceU2T = replace
}

// Name returns the dataset identity.
func (g *GENCODE) Name() string {
	return "GENCODE"
}

// Table returns the transcript annotation table.
func (g *GENCODE) Table() *table.Table {
	return g.tbl
}

// RenameDict maps one identifier space to another using the transcript
// table, e.g. gene_id -> gene_name.
func (g *GENCODE) RenameDict(fromSpace, toSpace string) (map[string]string, error) {
	return renameDict(g.tbl, fromSpace, toSpace)
}

// load parses transcript features from the annotation GTF.
func (g *GENCODE) load() (*table.Table, error) {
	f, err := g.res.Open(GENCODEAnnotationGTF)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		geneIDs, geneNames       []table.Value
		txIDs, txNames           []table.Value
		geneTypes, txTypes       []table.Value
		chroms, strands          []table.Value
		starts, ends             []table.Value
	)

	r := gtf.NewReader(f)
	for {
		feat, err := r.Next()
		if err != nil {
			return nil, fmt.Errorf("load GENCODE GTF: %w", err)
		}
		if feat == nil {
			break
		}
		if feat.Type != "transcript" {
			continue
		}

		geneIDs = append(geneIDs, attrValue(gtf.StripVersion(feat.Attr("gene_id"))))
		geneNames = append(geneNames, attrValue(feat.Attr("gene_name")))
		txIDs = append(txIDs, attrValue(gtf.StripVersion(feat.Attr("transcript_id"))))
		txNames = append(txNames, attrValue(feat.Attr("transcript_name")))
		geneTypes = append(geneTypes, attrValue(feat.Attr("gene_type")))
		txTypes = append(txTypes, attrValue(feat.Attr("transcript_type")))
		chroms = append(chroms, table.String(feat.Chrom))
		strands = append(strands, table.String(feat.Strand))
		starts = append(starts, table.Number(float64(feat.Start)))
		ends = append(ends, table.Number(float64(feat.End)))
	}

	tbl := table.New(g.Name())
	cols := []struct {
		name  string
		cells []table.Value
	}{
		{SpaceGeneID, geneIDs},
		{SpaceGeneName, geneNames},
		{SpaceTranscriptID, txIDs},
		{SpaceTranscriptName, txNames},
		{"gene_type", geneTypes},
		{"transcript_type", txTypes},
		{"chrom", chroms},
		{"start", starts},
		{"end", ends},
		{"strand", strands},
	}
	for _, c := range cols {
		if err := tbl.AddColumn(c.name, c.cells); err != nil {
			return nil, err
		}
	}

	g.logger.Info("loaded GENCODE annotation",
		zap.Int("transcripts", tbl.NumRows()))
	return tbl, nil
}

// Sequences reads the transcript FASTA and returns one sequence (or
// list of sequences, under PolicyAll) per identifier in the requested
// space.
func (g *GENCODE) Sequences(space string, policy SequencePolicy) (map[string]table.Value, error) {
	f, err := g.res.Open(GENCODETranscriptFASTA)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	acc := newSeqAccumulator(policy, g.replaceU2T)
	sc := fasta.NewScanner(f)
	for {
		rec, err := sc.Next()
		if err != nil {
			return nil, fmt.Errorf("load GENCODE FASTA: %w", err)
		}
		if rec == nil {
			break
		}
		key, err := headerKey(rec.Header, space)
		if err != nil {
			return nil, err
		}
		acc.add(key, rec.Seq)
	}
	return acc.result(), nil
}

// attrValue converts a GTF attribute to a cell, mapping absent
// attributes to missing.
func attrValue(s string) table.Value {
	if s == "" {
		return table.Missing()
	}
	return table.String(s)
}
