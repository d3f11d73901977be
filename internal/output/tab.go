package output

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/dcc-import/internal/document"
)

// TabWriter writes one tab-delimited row per transcript, for quick inspection
// of resolved coding regions.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Gene",
			"Symbol",
			"Location",
			"Strand",
			"Transcript",
			"Transcript_name",
			"Biotype",
			"Exons",
			"Coding_region",
			"cDNA_coding",
			"Start_exon",
			"End_exon",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes the rows for a single gene. A gene without transcripts gets one row.
func (tw *TabWriter) Write(_ context.Context, g *document.Gene) error {
	location := g.Chromosome + ":" + strconv.FormatInt(g.Start, 10) + "-" + strconv.FormatInt(g.End, 10)

	strand := "."
	switch {
	case g.Strand > 0:
		strand = "+"
	case g.Strand < 0:
		strand = "-"
	}

	symbol := orDash(g.Symbol)

	if len(g.Transcripts) == 0 {
		return tw.writeRow([]string{g.ID, symbol, location, strand, "-", "-", "-", "0", "-", "-", "-", "-"})
	}

	for _, t := range g.Transcripts {
		// Coding fields
		codingRegion, cdnaCoding := "-", "-"
		startExon, endExon := "-", "-"
		if t.StartExon != nil && t.EndExon != nil {
			codingRegion = strconv.FormatInt(t.CodingRegionStart, 10) + "-" + strconv.FormatInt(t.CodingRegionEnd, 10)
			cdnaCoding = strconv.FormatInt(t.CDNACodingStart, 10) + "-" + strconv.FormatInt(t.CDNACodingEnd, 10)
			startExon = strconv.Itoa(*t.StartExon)
			endExon = strconv.Itoa(*t.EndExon)
		}

		values := []string{
			g.ID,
			symbol,
			location,
			strand,
			orDash(t.ID),
			orDash(t.Name),
			orDash(t.Biotype),
			strconv.Itoa(len(t.Exons)),
			codingRegion,
			cdnaCoding,
			startExon,
			endExon,
		}
		if err := tw.writeRow(values); err != nil {
			return err
		}
	}
	return nil
}

func (tw *TabWriter) writeRow(values []string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush(context.Context) error {
	return tw.w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
