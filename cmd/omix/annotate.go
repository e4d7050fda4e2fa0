package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omixdb/omix/internal/annotation"
	"github.com/omixdb/omix/internal/dataset"
	"github.com/omixdb/omix/internal/output"
	"github.com/omixdb/omix/internal/resource"
	"github.com/omixdb/omix/internal/store"
	"github.com/omixdb/omix/internal/table"
)

func newAnnotateCmd() *cobra.Command {
	var (
		genesPath  string
		index      string
		dataDir    string
		species    string
		agg        string
		fuzzy      bool
		seqPolicy  string
		diseases   bool
		outputFile string
		duckdbPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate a list of identifiers with reference database columns",
		Example: `  # Annotate a gene list against the databases in ./databases
  omix annotate --genes genes.txt --data-dir databases

  # Key on gene symbols and attach the longest transcript sequence
  omix annotate --genes symbols.txt --index gene_name --sequences longest --data-dir databases

  # Persist the result to DuckDB for SQL queries
  omix annotate --genes genes.txt --data-dir databases --duckdb annotations.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if species == "" {
				species = viper.GetString("species")
			}
			return runAnnotate(annotateOptions{
				genesPath:  genesPath,
				index:      index,
				dataDir:    dataDir,
				species:    species,
				agg:        table.Reducer(agg),
				fuzzy:      fuzzy,
				seqPolicy:  seqPolicy,
				diseases:   diseases,
				outputFile: outputFile,
				duckdbPath: duckdbPath,
				verbose:    verbose,
			})
		},
	}

	cmd.Flags().StringVar(&genesPath, "genes", "", "File with one identifier per line (required)")
	cmd.Flags().StringVar(&index, "index", dataset.SpaceGeneID, "Identifier space of the gene list: gene_id, gene_name, transcript_id, transcript_name")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory containing reference database files (required)")
	cmd.Flags().StringVar(&species, "species", "", "NCBI taxon for RNAcentral filtering (default from config, 9606)")
	cmd.Flags().StringVar(&agg, "agg", string(table.ReduceConcat), "Aggregation: concat, first, last, sum, mean, median")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Fuzzy-match join keys (slow; small tables only)")
	cmd.Flags().StringVar(&seqPolicy, "sequences", "", "Attach sequences: shortest, longest, all")
	cmd.Flags().BoolVar(&diseases, "diseases", false, "Attach DisGeNET disease associations")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output TSV file (default: stdout)")
	cmd.Flags().StringVar(&duckdbPath, "duckdb", "", "Also persist annotations to a DuckDB database")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.MarkFlagRequired("genes")
	cmd.MarkFlagRequired("data-dir")

	return cmd
}

type annotateOptions struct {
	genesPath  string
	index      string
	dataDir    string
	species    string
	agg        table.Reducer
	fuzzy      bool
	seqPolicy  string
	diseases   bool
	outputFile string
	duckdbPath string
	verbose    bool
}

func runAnnotate(opts annotateOptions) error {
	logger := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer logger.Sync()
	}

	ids, err := readIdentifiers(opts.genesPath)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no identifiers in %s", opts.genesPath)
	}

	datasets, gencode, disgenet, err := loadDatasets(opts, logger)
	if err != nil {
		return err
	}
	if len(datasets) == 0 && disgenet == nil {
		return fmt.Errorf("no reference database files found in %s", opts.dataDir)
	}

	st := annotation.New()
	st.SetLogger(logger)
	if err := st.Init(ids, opts.index); err != nil {
		return err
	}

	for _, ds := range datasets {
		columns := joinColumns(ds, opts.index)
		if len(columns) == 0 {
			logger.Warn("dataset has no joinable columns for index",
				zap.String("dataset", ds.Name()),
				zap.String("index", opts.index))
			continue
		}
		if err := st.Join(ds, opts.index, columns, opts.agg, opts.fuzzy); err != nil {
			return fmt.Errorf("annotate with %s: %w", ds.Name(), err)
		}
	}

	if opts.seqPolicy != "" {
		if gencode == nil {
			return fmt.Errorf("--sequences requires the GENCODE transcript FASTA in %s", opts.dataDir)
		}
		policy := dataset.SequencePolicy(opts.seqPolicy)
		if err := st.AttachSequences(gencode, opts.index, policy); err != nil {
			return err
		}
	}

	if opts.diseases {
		if disgenet == nil {
			return fmt.Errorf("--diseases requires %s in %s", dataset.DisGeNETCuratedAssociations, opts.dataDir)
		}
		if err := st.AttachDiseases(disgenet, opts.index); err != nil {
			return err
		}
	}

	ann, err := st.Annotations()
	if err != nil {
		return err
	}

	if opts.duckdbPath != "" {
		db, err := store.Open(opts.duckdbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveTable("annotations", ann); err != nil {
			return err
		}
		logger.Info("saved annotations to duckdb",
			zap.String("path", opts.duckdbPath),
			zap.Int("rows", ann.NumRows()))
	}

	out := os.Stdout
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return output.NewTabWriter(out).WriteTable(ann)
}

// loadDatasets loads every reference database whose files are present
// in the data directory. Loads run concurrently; datasets are returned
// in a fixed join order.
func loadDatasets(opts annotateOptions, logger *zap.Logger) ([]dataset.Dataset, *dataset.GENCODE, *dataset.DisGeNET, error) {
	var (
		mu       sync.Mutex
		gencode  *dataset.GENCODE
		geneOnt  *dataset.GeneOntology
		rnacent  *dataset.RNAcentral
		disgenet *dataset.DisGeNET
	)

	var g errgroup.Group

	g.Go(func() error {
		res, err := resource.FromDir(opts.dataDir, dataset.GENCODEAnnotationGTF, dataset.GENCODETranscriptFASTA)
		if err != nil {
			return nil // optional database
		}
		ds, err := dataset.NewGENCODE(res, nil)
		if err != nil {
			return fmt.Errorf("load GENCODE: %w", err)
		}
		ds.SetLogger(logger)
		mu.Lock()
		gencode = ds
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := resource.FromDir(opts.dataDir, "goa_human.gaf")
		if err != nil {
			return nil
		}
		ds, err := dataset.NewGeneOntology(res, nil)
		if err != nil {
			return fmt.Errorf("load GeneOntology: %w", err)
		}
		ds.SetLogger(logger)
		mu.Lock()
		geneOnt = ds
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := resource.FromDir(opts.dataDir, dataset.RNAcentralGencodeXref, dataset.RNAcentralRfamAnnotations)
		if err != nil {
			return nil
		}
		ds, err := dataset.NewRNAcentral(res, opts.species, nil)
		if err != nil {
			return fmt.Errorf("load RNAcentral: %w", err)
		}
		ds.SetLogger(logger)
		mu.Lock()
		rnacent = ds
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		res, err := resource.FromDir(opts.dataDir, dataset.DisGeNETCuratedAssociations)
		if err != nil {
			return nil
		}
		ds, err := dataset.NewDisGeNET(res, nil)
		if err != nil {
			return fmt.Errorf("load DisGeNET: %w", err)
		}
		ds.SetLogger(logger)
		mu.Lock()
		disgenet = ds
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var datasets []dataset.Dataset
	if gencode != nil {
		datasets = append(datasets, gencode)
	}
	if geneOnt != nil {
		datasets = append(datasets, geneOnt)
	}
	if rnacent != nil {
		datasets = append(datasets, rnacent)
	}
	// DisGeNET is attach-only: its disease columns are not join targets.
	return datasets, gencode, disgenet, nil
}

// joinColumns picks the dataset columns worth joining for a given
// index, excluding the index itself.
func joinColumns(ds dataset.Dataset, index string) []string {
	if !ds.Table().HasColumn(index) {
		return nil
	}
	var columns []string
	for _, col := range ds.Table().Columns() {
		if col == index {
			continue
		}
		switch col {
		case dataset.SpaceGeneID, dataset.SpaceGeneName,
			dataset.SpaceTranscriptID, dataset.SpaceTranscriptName,
			"go_id", "rfams", "gene_type", "transcript_type", "rna_type":
			columns = append(columns, col)
		}
	}
	return columns
}

// readIdentifiers reads one identifier per line, skipping blanks and
// '#' comments.
func readIdentifiers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene list: %w", err)
	}
	defer f.Close()

	var ids []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read gene list: %w", err)
	}
	return ids, nil
}
