package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/dcc-import/internal/document"
	"github.com/inodb/dcc-import/internal/duckdb"
	"github.com/inodb/dcc-import/internal/gtf"
	"github.com/inodb/dcc-import/internal/importer"
	"github.com/inodb/dcc-import/internal/mongo"
	"github.com/inodb/dcc-import/internal/output"
)

// Sink names accepted by --sink.
const (
	sinkJSONL  = "jsonl"
	sinkTab    = "tab"
	sinkDuckDB = "duckdb"
	sinkMongo  = "mongo"
)

func newGenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genes [input.gtf[.gz]|-]",
		Short: "Import genes from an Ensembl GTF file",
		Long: `Parse an Ensembl GTF file into gene documents and write them to a sink.

Without an input argument the GTF downloaded for --assembly is used.`,
		Example: `  dcc-import genes Homo_sapiens.GRCh37.75.gtf.gz > genes.jsonl
  dcc-import genes --sink tab -o genes.tsv input.gtf
  dcc-import genes --sink duckdb --chrom 12 --chrom 17
  dcc-import genes --sink mongo --mongo-uri mongodb://localhost:27017 --mongo-drop
  zcat input.gtf.gz | dcc-import genes -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(viper.GetString("log-level"))
			if err != nil {
				return err
			}
			defer logger.Sync()

			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return runGenes(cmd.Context(), cmd.OutOrStdout(), input, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("sink", sinkJSONL, "Output sink: jsonl, tab, duckdb, mongo")
	flags.StringP("output", "o", "", "Output file for jsonl and tab sinks (default: stdout)")
	flags.String("duckdb-path", "", "DuckDB database (default: ~/.dcc-import/<assembly>/genes.duckdb)")
	flags.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	flags.String("mongo-database", "dcc-genome", "MongoDB database")
	flags.String("mongo-collection", "Gene", "MongoDB collection")
	flags.Bool("mongo-drop", false, "Drop the MongoDB collection before importing")
	flags.Int("batch-size", 0, "Genes per DuckDB append or MongoDB insert (default: sink specific)")
	flags.StringSlice("chrom", nil, "Only import genes on these chromosomes (repeatable)")
	flags.Bool("strip-version", false, "Strip version suffixes from gene and transcript ids")
	flags.Bool("normalize-chrom", false, "Strip the chr prefix from chromosome names")
	flags.Int("progress-interval", importer.DefaultProgressInterval, "Genes between progress log lines (negative disables)")
	flags.Bool("drop", false, "Remove previously imported genes from the DuckDB database")
	flags.Bool("force", false, "Import even if the DuckDB database already holds this exact file")

	bindSettings(flags, genesSettings)

	return cmd
}

// sinkHandle couples a sink with its teardown and post-import hook.
type sinkHandle struct {
	sink  importer.Sink
	done  func(importer.Stats) error
	close func() error
}

func runGenes(ctx context.Context, stdout io.Writer, input string, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	assembly := viper.GetString("assembly")
	if input == "" {
		path, ok := findGTF(assembly)
		if !ok {
			return fmt.Errorf("no input given and no downloaded GTF for %s (run: dcc-import download --assembly %s)", assembly, assembly)
		}
		input = path
	}

	src, err := gtf.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	h, skip, err := openSink(ctx, viper.GetString("sink"), input, stdout, logger)
	if err != nil {
		return err
	}
	defer h.close()
	if skip {
		return nil
	}

	logger.Info("importing genes",
		zap.String("input", input),
		zap.String("sink", viper.GetString("sink")),
		zap.Strings("chromosomes", viper.GetStringSlice("chrom")))

	stats, err := importer.Run(ctx, src, h.sink, importer.Options{
		Chromosomes: viper.GetStringSlice("chrom"),
		Document: document.Options{
			StripVersion:   viper.GetBool("strip-version"),
			NormalizeChrom: viper.GetBool("normalize-chrom"),
		},
		ProgressInterval: viper.GetInt("progress-interval"),
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	if h.done != nil {
		return h.done(stats)
	}
	return nil
}

// openSink opens the sink named by kind. skip reports that the import can be
// skipped because the target already holds input.
func openSink(ctx context.Context, kind, input string, stdout io.Writer, logger *zap.Logger) (*sinkHandle, bool, error) {
	switch kind {
	case sinkJSONL, sinkTab:
		w, closeFn, err := openOutput(viper.GetString("output"), stdout)
		if err != nil {
			return nil, false, err
		}
		if kind == sinkJSONL {
			return &sinkHandle{sink: output.NewJSONLWriter(w), close: closeFn}, false, nil
		}
		tw := output.NewTabWriter(w)
		if err := tw.WriteHeader(); err != nil {
			closeFn()
			return nil, false, fmt.Errorf("write header: %w", err)
		}
		return &sinkHandle{sink: tw, close: closeFn}, false, nil

	case sinkDuckDB:
		return openDuckDB(input, logger)

	case sinkMongo:
		w, err := mongo.Open(ctx, mongo.Config{
			URI:        viper.GetString("mongo.uri"),
			Database:   viper.GetString("mongo.database"),
			Collection: viper.GetString("mongo.collection"),
			Drop:       viper.GetBool("mongo.drop"),
			BatchSize:  viper.GetInt("batch-size"),
		})
		if err != nil {
			return nil, false, err
		}
		return &sinkHandle{
			sink: w,
			done: func(importer.Stats) error {
				logger.Info("inserted genes into MongoDB",
					zap.String("collection", viper.GetString("mongo.collection")),
					zap.Int64("genes", w.Written()))
				return nil
			},
			close: func() error { return w.Close(context.Background()) },
		}, false, nil

	default:
		return nil, false, fmt.Errorf("unknown sink %q (use jsonl, tab, duckdb or mongo)", kind)
	}
}

func openDuckDB(input string, logger *zap.Logger) (*sinkHandle, bool, error) {
	path := viper.GetString("duckdb.path")
	if path == "" {
		dir := defaultDataDir(viper.GetString("assembly"))
		if dir == "" {
			return nil, false, fmt.Errorf("cannot determine home directory, use --duckdb-path")
		}
		path = filepath.Join(dir, "genes.duckdb")
	}

	store, err := duckdb.Open(path)
	if err != nil {
		return nil, false, err
	}
	store.SetBatchSize(viper.GetInt("batch-size"))
	h := &sinkHandle{sink: store, close: store.Close}

	fp := duckdb.FileFingerprint{Path: input}
	if input != "-" {
		if fp, err = duckdb.StatFile(input); err != nil {
			store.Close()
			return nil, false, fmt.Errorf("stat input: %w", err)
		}

		if !viper.GetBool("duckdb.force") {
			unchanged, err := store.Unchanged(fp)
			if err != nil {
				store.Close()
				return nil, false, err
			}
			if unchanged {
				fields := []zap.Field{zap.String("input", input), zap.String("db", path)}
				if n, err := store.GeneCount(); err == nil {
					fields = append(fields, zap.Int("genes", n))
				} else {
					logger.Warn("counting stored genes", zap.Error(err))
				}
				logger.Info("input already imported, skipping (use --force to re-import)", fields...)
				return h, true, nil
			}
		}
	}

	// Genes appended by an import that never completed would collide with
	// this run on gene_id.
	interrupted, err := store.Interrupted()
	if err != nil {
		store.Close()
		return nil, false, err
	}
	if len(interrupted) > 0 || viper.GetBool("duckdb.drop") {
		if len(interrupted) > 0 {
			logger.Warn("clearing genes left by an interrupted import", zap.Strings("inputs", interrupted))
		}
		if err := store.ClearGenes(); err != nil {
			store.Close()
			return nil, false, err
		}
	}

	if err := store.BeginImport(fp); err != nil {
		store.Close()
		return nil, false, err
	}

	h.done = func(stats importer.Stats) error {
		if err := store.RecordImport(fp, stats.GenesWritten); err != nil {
			return err
		}
		n, err := store.GeneCount()
		if err != nil {
			return err
		}
		logger.Info("DuckDB import complete", zap.String("db", path), zap.Int("genes", n))
		return nil
	}
	return h, false, nil
}

// openOutput returns path opened for writing, or stdout when path is empty or "-".
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
