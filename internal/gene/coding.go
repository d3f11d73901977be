package gene

import "fmt"

// ResolveCodingRegion fills in cDNA coordinates for every exon and, for coding
// transcripts, the genomic and cDNA coding-region boundaries.
//
// cDNA coordinates run 1-based and contiguous over the exons in file order,
// which for minus-strand transcripts is expected to be transcription order.
// A transcript lacking either a start or a stop codon exon is non-coding: its
// coding fields stay zero and both exon indices are cleared.
func ResolveCodingRegion(t *Transcript, strand int8) error {
	var prevEnd int64
	for i := range t.Exons {
		e := &t.Exons[i]
		e.CDNAStart = prevEnd + 1
		e.CDNAEnd = e.CDNAStart + e.Len() - 1
		prevEnd = e.CDNAEnd

		e.GenomicCodingStart, e.GenomicCodingEnd = 0, 0
		e.CDNACodingStart, e.CDNACodingEnd = 0, 0
	}
	t.CodingRegionStart, t.CodingRegionEnd = 0, 0
	t.CDNACodingStart, t.CDNACodingEnd = 0, 0

	if !t.IsCoding() {
		t.StartExon, t.EndExon = nil, nil
		return nil
	}

	first, last := *t.StartExon, *t.EndExon
	if first < 0 || last >= len(t.Exons) || first > last {
		return &MalformedTranscriptError{
			TranscriptID: t.ID,
			Message:      fmt.Sprintf("start exon %d and end exon %d out of order or range (%d exons)", first, last, len(t.Exons)),
		}
	}

	for i := first; i <= last; i++ {
		e := &t.Exons[i]
		e.GenomicCodingStart, e.GenomicCodingEnd = e.Start, e.End
		e.CDNACodingStart, e.CDNACodingEnd = e.CDNAStart, e.CDNAEnd
	}

	startExon := &t.Exons[first]
	if startExon.CDS == nil {
		return &MalformedTranscriptError{
			TranscriptID: t.ID,
			Message:      fmt.Sprintf("start exon %d has no CDS", first),
		}
	}
	pos := startExon.CDS.Start
	if strand < 0 {
		t.CodingRegionEnd = pos
		startExon.GenomicCodingEnd = pos
		startExon.CDNACodingEnd = cdnaPosition(startExon, pos, strand)
	} else {
		t.CodingRegionStart = pos
		startExon.GenomicCodingStart = pos
		startExon.CDNACodingStart = cdnaPosition(startExon, pos, strand)
	}
	t.CDNACodingStart = startExon.CDNACodingStart

	// A stop codon annotated alone in the last exon leaves the coding end in
	// the exon before it.
	endIdx := last
	if t.Exons[last].CDS == nil {
		if last == first || t.Exons[last-1].CDS == nil {
			return &MalformedTranscriptError{
				TranscriptID: t.ID,
				Message:      fmt.Sprintf("neither end exon %d nor the exon before it has a CDS", last),
			}
		}
		noCDS := &t.Exons[last]
		noCDS.GenomicCodingStart, noCDS.GenomicCodingEnd = 0, 0
		noCDS.CDNACodingStart, noCDS.CDNACodingEnd = 0, 0
		endIdx = last - 1
	}

	endExon := &t.Exons[endIdx]
	pos = endExon.CDS.End
	if strand < 0 {
		t.CodingRegionStart = pos
		endExon.GenomicCodingStart = pos
	} else {
		t.CodingRegionEnd = pos
		endExon.GenomicCodingEnd = pos
	}
	endExon.CDNACodingEnd = cdnaPosition(endExon, pos, strand)
	t.CDNACodingEnd = endExon.CDNACodingEnd

	return nil
}

// cdnaPosition maps a genomic position inside e to its cDNA position.
func cdnaPosition(e *Exon, pos int64, strand int8) int64 {
	if strand < 0 {
		return e.CDNAStart + (e.End - pos)
	}
	return e.CDNAStart + (pos - e.Start)
}
