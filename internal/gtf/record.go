// Package gtf provides GTF annotation line parsing.
package gtf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the feature types the gene aggregator consumes.
type Kind int

const (
	KindOther Kind = iota
	KindGene
	KindTranscript
	KindExon
	KindCDS
	KindStartCodon
	KindStopCodon
)

var kindNames = map[string]Kind{
	"gene":        KindGene,
	"transcript":  KindTranscript,
	"exon":        KindExon,
	"CDS":         KindCDS,
	"start_codon": KindStartCodon,
	"stop_codon":  KindStopCodon,
}

// ParseKind maps a GTF feature column to its Kind.
func ParseKind(s string) Kind {
	if k, ok := kindNames[s]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	switch k {
	case KindGene:
		return "gene"
	case KindTranscript:
		return "transcript"
	case KindExon:
		return "exon"
	case KindCDS:
		return "CDS"
	case KindStartCodon:
		return "start_codon"
	case KindStopCodon:
		return "stop_codon"
	}
	return "other"
}

// Record is a single parsed GTF line.
type Record struct {
	Line       int
	SeqName    string
	Source     string
	Type       string
	Kind       Kind
	Start      int64
	End        int64
	Score      float64
	Strand     int8
	Frame      int
	Attributes map[string]string
}

// Attr returns the attribute value for the first key that is present.
func (r *Record) Attr(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.Attributes[k]; ok {
			return v
		}
	}
	return ""
}

const numColumns = 9

// ParseLine parses a single trimmed, non-comment GTF line.
// Start and end are swapped when the file has them inverted.
func ParseLine(line string, lineNum int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return nil, &MalformedLineError{
			Line:    lineNum,
			Message: fmt.Sprintf("expected %d columns, found %d", numColumns, len(fields)),
		}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, &MalformedLineError{
			Line:    lineNum,
			Message: fmt.Sprintf("invalid start: %q", fields[3]),
		}
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, &MalformedLineError{
			Line:    lineNum,
			Message: fmt.Sprintf("invalid end: %q", fields[4]),
		}
	}
	if start > end {
		start, end = end, start
	}

	score, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		score = 0
	}
	frame, err := strconv.Atoi(fields[7])
	if err != nil {
		frame = -1
	}

	attrs, err := ParseAttributes(fields[8])
	if err != nil {
		var ae *MalformedAttributeError
		if errors.As(err, &ae) {
			ae.Line = lineNum
		}
		return nil, err
	}

	return &Record{
		Line:       lineNum,
		SeqName:    fields[0],
		Source:     fields[1],
		Type:       fields[2],
		Kind:       ParseKind(fields[2]),
		Start:      start,
		End:        end,
		Score:      score,
		Strand:     ParseStrand(fields[6]),
		Frame:      frame,
		Attributes: attrs,
	}, nil
}

// ParseStrand converts a strand column to +1, -1 or 0 for anything else.
func ParseStrand(s string) int8 {
	switch s {
	case "+":
		return 1
	case "-":
		return -1
	}
	return 0
}
