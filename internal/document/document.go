// Package document defines the persisted gene document schema and maps
// aggregated genes onto it.
package document

import (
	"strings"

	"github.com/inodb/dcc-import/internal/gene"
)

// Gene is the top-level document handed to sinks.
type Gene struct {
	ID          string       `json:"id" bson:"_gene_id"`
	Symbol      string       `json:"symbol" bson:"symbol"`
	Biotype     string       `json:"biotype" bson:"biotype"`
	Chromosome  string       `json:"chromosome" bson:"chromosome"`
	Strand      int          `json:"strand" bson:"strand"`
	Start       int64        `json:"start" bson:"start"`
	End         int64        `json:"end" bson:"end"`
	Transcripts []Transcript `json:"transcripts" bson:"transcripts"`
}

// Transcript is a transcript within a gene document.
// StartExon and EndExon are omitted for non-coding transcripts.
type Transcript struct {
	ID                string `json:"id" bson:"id"`
	Name              string `json:"name" bson:"name"`
	Biotype           string `json:"biotype" bson:"biotype"`
	Start             int64  `json:"start" bson:"start"`
	End               int64  `json:"end" bson:"end"`
	CodingRegionStart int64  `json:"coding_region_start" bson:"coding_region_start"`
	CodingRegionEnd   int64  `json:"coding_region_end" bson:"coding_region_end"`
	CDNACodingStart   int64  `json:"cdna_coding_start" bson:"cdna_coding_start"`
	CDNACodingEnd     int64  `json:"cdna_coding_end" bson:"cdna_coding_end"`
	StartExon         *int   `json:"start_exon,omitempty" bson:"start_exon,omitempty"`
	EndExon           *int   `json:"end_exon,omitempty" bson:"end_exon,omitempty"`
	Exons             []Exon `json:"exons" bson:"exons"`
}

// Exon is an exon within a transcript document.
type Exon struct {
	Start              int64 `json:"start" bson:"start"`
	End                int64 `json:"end" bson:"end"`
	CDNAStart          int64 `json:"cdna_start" bson:"cdna_start"`
	CDNAEnd            int64 `json:"cdna_end" bson:"cdna_end"`
	GenomicCodingStart int64 `json:"genomic_coding_start" bson:"genomic_coding_start"`
	GenomicCodingEnd   int64 `json:"genomic_coding_end" bson:"genomic_coding_end"`
	CDNACodingStart    int64 `json:"cdna_coding_start" bson:"cdna_coding_start"`
	CDNACodingEnd      int64 `json:"cdna_coding_end" bson:"cdna_coding_end"`
	CDS                *CDS  `json:"cds,omitempty" bson:"cds,omitempty"`
}

// CDS is the coding sub-record of an exon.
type CDS struct {
	Start int64 `json:"start" bson:"start"`
	End   int64 `json:"end" bson:"end"`
	Frame int   `json:"frame" bson:"frame"`
}

// Options controls identifier normalization during assembly.
type Options struct {
	// StripVersion removes Ensembl version suffixes, e.g. ENSG00000157764.13 -> ENSG00000157764.
	StripVersion bool
	// NormalizeChrom removes a "chr" prefix from the chromosome name.
	NormalizeChrom bool
}

// Assemble builds the document for a completed gene.
func Assemble(g *gene.Gene, opts Options) *Gene {
	doc := &Gene{
		ID:          opts.id(g.ID),
		Symbol:      g.Symbol,
		Biotype:     g.Biotype,
		Chromosome:  g.Chromosome,
		Strand:      int(g.Strand),
		Start:       g.Start,
		End:         g.End,
		Transcripts: make([]Transcript, len(g.Transcripts)),
	}
	if opts.NormalizeChrom {
		doc.Chromosome = NormalizeChrom(g.Chromosome)
	}

	for i := range g.Transcripts {
		doc.Transcripts[i] = assembleTranscript(&g.Transcripts[i], opts)
	}
	return doc
}

func assembleTranscript(t *gene.Transcript, opts Options) Transcript {
	doc := Transcript{
		ID:                opts.id(t.ID),
		Name:              t.Name,
		Biotype:           t.Biotype,
		Start:             t.Start,
		End:               t.End,
		CodingRegionStart: t.CodingRegionStart,
		CodingRegionEnd:   t.CodingRegionEnd,
		CDNACodingStart:   t.CDNACodingStart,
		CDNACodingEnd:     t.CDNACodingEnd,
		StartExon:         copyIndex(t.StartExon),
		EndExon:           copyIndex(t.EndExon),
		Exons:             make([]Exon, len(t.Exons)),
	}

	for i, e := range t.Exons {
		doc.Exons[i] = Exon{
			Start:              e.Start,
			End:                e.End,
			CDNAStart:          e.CDNAStart,
			CDNAEnd:            e.CDNAEnd,
			GenomicCodingStart: e.GenomicCodingStart,
			GenomicCodingEnd:   e.GenomicCodingEnd,
			CDNACodingStart:    e.CDNACodingStart,
			CDNACodingEnd:      e.CDNACodingEnd,
		}
		if e.CDS != nil {
			doc.Exons[i].CDS = &CDS{Start: e.CDS.Start, End: e.CDS.End, Frame: e.CDS.Frame}
		}
	}
	return doc
}

func copyIndex(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (o Options) id(id string) string {
	if o.StripVersion {
		return StripVersion(id)
	}
	return id
}

// StripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func StripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// NormalizeChrom normalizes chromosome names by removing "chr" prefix.
func NormalizeChrom(chrom string) string {
	return strings.TrimPrefix(chrom, "chr")
}
