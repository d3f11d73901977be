// Package gene groups GTF records into genes, transcripts and exons and
// computes coding-region coordinates.
package gene

// CDS is the coding part of an exon as given by a CDS line.
type CDS struct {
	Start int64
	End   int64
	Frame int
}

// Exon is a single exon of a closed transcript.
// Coding fields are zero for exons outside the coding region.
type Exon struct {
	Start     int64
	End       int64
	CDNAStart int64
	CDNAEnd   int64
	CDS       *CDS

	GenomicCodingStart int64
	GenomicCodingEnd   int64
	CDNACodingStart    int64
	CDNACodingEnd      int64
}

// Len returns the exon length in bases.
func (e *Exon) Len() int64 {
	return e.End - e.Start + 1
}

// Transcript is a closed transcript with its exons in file order.
// StartExon and EndExon are both nil for non-coding transcripts.
type Transcript struct {
	ID      string
	Name    string
	Biotype string
	Start   int64
	End     int64
	Exons   []Exon

	CodingRegionStart int64
	CodingRegionEnd   int64
	CDNACodingStart   int64
	CDNACodingEnd     int64
	StartExon         *int
	EndExon           *int
}

// IsCoding reports whether a coding region was resolved for the transcript.
func (t *Transcript) IsCoding() bool {
	return t.StartExon != nil && t.EndExon != nil
}

// Gene is a completed gene with its transcripts in file order.
type Gene struct {
	ID          string
	Symbol      string
	Biotype     string
	Chromosome  string
	Strand      int8
	Start       int64
	End         int64
	Transcripts []Transcript
}
