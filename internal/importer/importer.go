// Package importer runs the GTF to gene document pipeline.
package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inodb/dcc-import/internal/document"
	"github.com/inodb/dcc-import/internal/gene"
)

// DefaultProgressInterval is the number of genes between progress log lines.
const DefaultProgressInterval = 10000

// Sink receives assembled gene documents in file order.
type Sink interface {
	Write(ctx context.Context, g *document.Gene) error
	Flush(ctx context.Context) error
}

// Options configures a run.
type Options struct {
	// Chromosomes restricts output to these chromosomes. Names are compared
	// without a "chr" prefix. Empty means all chromosomes.
	Chromosomes []string
	Document    document.Options
	// ProgressInterval is the number of genes between progress logs.
	// Zero uses DefaultProgressInterval, negative disables progress logs.
	ProgressInterval int
	Logger           *zap.Logger
}

// Stats summarizes a run.
type Stats struct {
	GenesRead         int64
	GenesWritten      int64
	Transcripts       int64
	CodingTranscripts int64
	Exons             int64
	Lines             int
}

type lineCounter interface {
	LineNumber() int
}

// Run parses src, assembles each completed gene and writes it to sink.
// Parsing runs in its own goroutine so reading overlaps with writing.
// The first parse or sink error stops the run; Flush is only called when
// the whole input was consumed.
func Run(ctx context.Context, src gene.RecordSource, sink Sink, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.ProgressInterval
	if interval == 0 {
		interval = DefaultProgressInterval
	}
	keep := chromosomeFilter(opts.Chromosomes)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	genes := make(chan *gene.Gene, 64)
	var parseErr error
	go func() {
		defer close(genes)
		parseErr = gene.Parse(ctx, src, func(g *gene.Gene) error {
			select {
			case genes <- g:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var stats Stats
	p := message.NewPrinter(language.English)
	var writeErr error
	for g := range genes {
		if writeErr != nil {
			continue
		}
		stats.GenesRead++
		if !keep(g.Chromosome) {
			continue
		}

		doc := document.Assemble(g, opts.Document)
		if err := sink.Write(ctx, doc); err != nil {
			writeErr = fmt.Errorf("write gene %s: %w", doc.ID, err)
			cancel()
			continue
		}
		stats.GenesWritten++
		stats.Transcripts += int64(len(g.Transcripts))
		for i := range g.Transcripts {
			t := &g.Transcripts[i]
			if t.IsCoding() {
				stats.CodingTranscripts++
			}
			stats.Exons += int64(len(t.Exons))
		}

		if interval > 0 && stats.GenesWritten%int64(interval) == 0 {
			logger.Info(p.Sprintf("imported %d genes", stats.GenesWritten),
				zap.String("last_gene", doc.ID))
		}
	}

	if lc, ok := src.(lineCounter); ok {
		stats.Lines = lc.LineNumber()
	}

	if writeErr != nil {
		return stats, writeErr
	}
	if parseErr != nil {
		var mt *gene.MalformedTranscriptError
		if errors.As(parseErr, &mt) {
			logger.Error("malformed transcript", zap.String("transcript", mt.TranscriptID), zap.String("reason", mt.Message))
		}
		return stats, parseErr
	}

	if err := sink.Flush(ctx); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}

	logger.Info(p.Sprintf("import complete: %d genes, %d transcripts (%d coding), %d exons",
		stats.GenesWritten, stats.Transcripts, stats.CodingTranscripts, stats.Exons),
		zap.Int64("genes_read", stats.GenesRead),
		zap.Int("lines", stats.Lines))
	return stats, nil
}

func chromosomeFilter(chroms []string) func(string) bool {
	if len(chroms) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		set[document.NormalizeChrom(c)] = true
	}
	return func(chrom string) bool {
		return set[document.NormalizeChrom(chrom)]
	}
}
