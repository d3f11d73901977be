package gene

import (
	"context"
	"fmt"

	"github.com/inodb/dcc-import/internal/gtf"
)

// State is the aggregator's position in the gene/transcript hierarchy.
type State int

const (
	Idle State = iota
	InGene
	InTranscript
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InGene:
		return "in_gene"
	case InTranscript:
		return "in_transcript"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type exonBuilder struct {
	start, end int64
	cds        *CDS
	startCodon bool
	stopCodon  bool
}

type transcriptBuilder struct {
	id, name, biotype string
	start, end        int64
	exons             []exonBuilder
}

// build freezes the transcript. The start and end exons are the last exons
// holding a start and a stop codon respectively.
func (b *transcriptBuilder) build() *Transcript {
	t := &Transcript{
		ID:      b.id,
		Name:    b.name,
		Biotype: b.biotype,
		Start:   b.start,
		End:     b.end,
		Exons:   make([]Exon, len(b.exons)),
	}
	for i, eb := range b.exons {
		t.Exons[i] = Exon{Start: eb.start, End: eb.end, CDS: eb.cds}
		if eb.startCodon {
			idx := i
			t.StartExon = &idx
		}
		if eb.stopCodon {
			idx := i
			t.EndExon = &idx
		}
	}
	return t
}

type geneBuilder struct {
	id, symbol, biotype string
	chrom               string
	strand              int8
	start, end          int64
	transcripts         []Transcript
}

func (b *geneBuilder) build() *Gene {
	return &Gene{
		ID:          b.id,
		Symbol:      b.symbol,
		Biotype:     b.biotype,
		Chromosome:  b.chrom,
		Strand:      b.strand,
		Start:       b.start,
		End:         b.end,
		Transcripts: b.transcripts,
	}
}

// Aggregator turns an ordered stream of GTF records into completed genes.
// A gene is complete when the next gene record arrives or the input ends.
// Aggregator is not safe for concurrent use.
type Aggregator struct {
	state      State
	gene       *geneBuilder
	transcript *transcriptBuilder
}

// NewAggregator creates an idle aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// State returns the current state.
func (a *Aggregator) State() State {
	return a.state
}

// Push consumes one record. It returns the previous gene when rec starts a new one.
func (a *Aggregator) Push(rec *gtf.Record) (*Gene, error) {
	switch rec.Kind {
	case gtf.KindGene:
		done, err := a.closeGene()
		if err != nil {
			return nil, err
		}
		a.gene = &geneBuilder{
			id:      rec.Attr("gene_id"),
			symbol:  rec.Attr("gene_name"),
			biotype: rec.Attr("gene_biotype", "gene_type"),
			chrom:   rec.SeqName,
			strand:  rec.Strand,
			start:   rec.Start,
			end:     rec.End,
		}
		a.state = InGene
		return done, nil

	case gtf.KindTranscript:
		if a.state == Idle {
			return nil, a.contextError(rec, "no open gene")
		}
		if err := a.closeTranscript(); err != nil {
			return nil, err
		}
		a.transcript = &transcriptBuilder{
			id:      rec.Attr("transcript_id"),
			name:    rec.Attr("transcript_name"),
			biotype: rec.Attr("transcript_biotype", "transcript_type"),
			start:   rec.Start,
			end:     rec.End,
		}
		a.state = InTranscript
		return nil, nil

	case gtf.KindExon:
		if a.state != InTranscript {
			return nil, a.contextError(rec, "no open transcript")
		}
		a.transcript.exons = append(a.transcript.exons, exonBuilder{start: rec.Start, end: rec.End})
		return nil, nil

	case gtf.KindCDS, gtf.KindStartCodon, gtf.KindStopCodon:
		last, err := a.lastExon(rec)
		if err != nil {
			return nil, err
		}
		switch rec.Kind {
		case gtf.KindCDS:
			last.cds = &CDS{Start: rec.Start, End: rec.End, Frame: rec.Frame}
		case gtf.KindStartCodon:
			last.startCodon = true
		case gtf.KindStopCodon:
			last.stopCodon = true
		}
		return nil, nil
	}

	// UTRs, Selenocysteine and other feature types carry nothing the documents need.
	return nil, nil
}

// Flush closes whatever is open at end of input and returns the last gene, if any.
func (a *Aggregator) Flush() (*Gene, error) {
	return a.closeGene()
}

func (a *Aggregator) lastExon(rec *gtf.Record) (*exonBuilder, error) {
	if a.state != InTranscript {
		return nil, a.contextError(rec, "no open transcript")
	}
	n := len(a.transcript.exons)
	if n == 0 {
		return nil, a.contextError(rec, "transcript has no exon yet")
	}
	return &a.transcript.exons[n-1], nil
}

func (a *Aggregator) closeTranscript() error {
	if a.transcript == nil {
		return nil
	}
	t := a.transcript.build()
	a.transcript = nil
	a.state = InGene

	if err := ResolveCodingRegion(t, a.gene.strand); err != nil {
		return err
	}
	a.gene.transcripts = append(a.gene.transcripts, *t)
	return nil
}

func (a *Aggregator) closeGene() (*Gene, error) {
	if a.gene == nil {
		return nil, nil
	}
	if err := a.closeTranscript(); err != nil {
		return nil, err
	}
	g := a.gene.build()
	a.gene = nil
	a.state = Idle
	return g, nil
}

func (a *Aggregator) contextError(rec *gtf.Record, reason string) error {
	return &ContextError{Line: rec.Line, Kind: rec.Kind, State: a.state, Reason: reason}
}

// RecordSource is a pull-based source of GTF records.
// Next returns nil, nil at end of input.
type RecordSource interface {
	Next() (*gtf.Record, error)
}

// Parse reads src to the end and calls emit for each completed gene in file order.
// The first error from src, the aggregator or emit stops parsing.
func Parse(ctx context.Context, src RecordSource, emit func(*Gene) error) error {
	agg := NewAggregator()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if rec == nil {
			break
		}

		g, err := agg.Push(rec)
		if err != nil {
			return err
		}
		if g != nil {
			if err := emit(g); err != nil {
				return err
			}
		}
	}

	g, err := agg.Flush()
	if err != nil {
		return err
	}
	if g != nil {
		return emit(g)
	}
	return nil
}
