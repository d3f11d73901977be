package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/dcc-import/internal/document"
)

// Write buffers a gene and appends the buffer once it reaches the batch size.
func (s *Store) Write(ctx context.Context, g *document.Gene) error {
	s.pending = append(s.pending, g)
	if len(s.pending) < s.batchSize {
		return nil
	}
	return s.Flush(ctx)
}

// Flush appends all buffered genes.
func (s *Store) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.WriteGenes(ctx, s.pending); err != nil {
		return err
	}
	s.pending = s.pending[:0]
	return nil
}

// WriteGenes batch-inserts genes with their transcripts and exons using the Appender API.
func (s *Store) WriteGenes(ctx context.Context, genes []*document.Gene) error {
	if len(genes) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if err := appendRows(conn, "genes", func(a *goduckdb.Appender) error {
		for _, g := range genes {
			if err := a.AppendRow(
				g.ID, g.Symbol, g.Biotype, g.Chromosome,
				int64(g.Strand), g.Start, g.End,
			); err != nil {
				return fmt.Errorf("append gene %s: %w", g.ID, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := appendRows(conn, "transcripts", func(a *goduckdb.Appender) error {
		for _, g := range genes {
			for i, t := range g.Transcripts {
				if err := a.AppendRow(
					g.ID, t.ID, int64(i), t.Name, t.Biotype, t.Start, t.End,
					t.CodingRegionStart, t.CodingRegionEnd, t.CDNACodingStart, t.CDNACodingEnd,
					nullableIndex(t.StartExon), nullableIndex(t.EndExon),
				); err != nil {
					return fmt.Errorf("append transcript %s: %w", t.ID, err)
				}
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return appendRows(conn, "exons", func(a *goduckdb.Appender) error {
		for _, g := range genes {
			for _, t := range g.Transcripts {
				for i, e := range t.Exons {
					var cdsStart, cdsEnd, cdsFrame driver.Value
					if e.CDS != nil {
						cdsStart, cdsEnd, cdsFrame = e.CDS.Start, e.CDS.End, int64(e.CDS.Frame)
					}
					if err := a.AppendRow(
						g.ID, t.ID, int64(i), e.Start, e.End, e.CDNAStart, e.CDNAEnd,
						e.GenomicCodingStart, e.GenomicCodingEnd, e.CDNACodingStart, e.CDNACodingEnd,
						cdsStart, cdsEnd, cdsFrame,
					); err != nil {
						return fmt.Errorf("append exon %d of %s: %w", i, t.ID, err)
					}
				}
			}
		}
		return nil
	})
}

func appendRows(conn *sql.Conn, table string, fill func(*goduckdb.Appender) error) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	if err := fill(appender); err != nil {
		return err
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", table, err)
	}
	return nil
}

func nullableIndex(p *int) driver.Value {
	if p == nil {
		return nil
	}
	return int64(*p)
}

// ClearGenes removes all genes, transcripts and exons along with the start
// markers of imports that never completed.
func (s *Store) ClearGenes() error {
	for _, table := range []string{"exons", "transcripts", "genes"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := s.db.Exec(`DELETE FROM imports WHERE NOT completed`); err != nil {
		return fmt.Errorf("clear import markers: %w", err)
	}
	return nil
}

// GeneCount returns the number of stored genes.
func (s *Store) GeneCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM genes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count genes: %w", err)
	}
	return n, nil
}

// SearchBySymbol returns the ids of genes with the given symbol.
func (s *Store) SearchBySymbol(symbol string) ([]string, error) {
	rows, err := s.db.Query(`SELECT gene_id FROM genes WHERE symbol=? ORDER BY gene_id`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan gene id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genes: %w", err)
	}
	return ids, nil
}

// LookupGene reassembles a stored gene document. It returns nil, nil if the
// gene is not stored.
func (s *Store) LookupGene(id string) (*document.Gene, error) {
	g := &document.Gene{ID: id, Transcripts: []document.Transcript{}}
	var strand int64
	err := s.db.QueryRow(`SELECT symbol, biotype, chromosome, strand, start_pos, end_pos
		FROM genes WHERE gene_id=?`, id).
		Scan(&g.Symbol, &g.Biotype, &g.Chromosome, &strand, &g.Start, &g.End)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	g.Strand = int(strand)

	if err := s.loadTranscripts(g); err != nil {
		return nil, err
	}
	if err := s.loadExons(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadTranscripts(g *document.Gene) error {
	rows, err := s.db.Query(`SELECT transcript_id, name, biotype, start_pos, end_pos,
		coding_region_start, coding_region_end, cdna_coding_start, cdna_coding_end,
		start_exon, end_exon
		FROM transcripts WHERE gene_id=? ORDER BY transcript_index`, g.ID)
	if err != nil {
		return fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t := document.Transcript{Exons: []document.Exon{}}
		var startExon, endExon sql.NullInt64
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Biotype, &t.Start, &t.End,
			&t.CodingRegionStart, &t.CodingRegionEnd, &t.CDNACodingStart, &t.CDNACodingEnd,
			&startExon, &endExon,
		); err != nil {
			return fmt.Errorf("scan transcript: %w", err)
		}
		t.StartExon = indexFromNull(startExon)
		t.EndExon = indexFromNull(endExon)
		g.Transcripts = append(g.Transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate transcripts: %w", err)
	}
	return nil
}

func (s *Store) loadExons(g *document.Gene) error {
	byID := make(map[string]*document.Transcript, len(g.Transcripts))
	for i := range g.Transcripts {
		byID[g.Transcripts[i].ID] = &g.Transcripts[i]
	}

	rows, err := s.db.Query(`SELECT transcript_id, start_pos, end_pos, cdna_start, cdna_end,
		genomic_coding_start, genomic_coding_end, cdna_coding_start, cdna_coding_end,
		cds_start, cds_end, cds_frame
		FROM exons WHERE gene_id=? ORDER BY transcript_id, exon_index`, g.ID)
	if err != nil {
		return fmt.Errorf("query exons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var transcriptID string
		var e document.Exon
		var cdsStart, cdsEnd, cdsFrame sql.NullInt64
		if err := rows.Scan(
			&transcriptID, &e.Start, &e.End, &e.CDNAStart, &e.CDNAEnd,
			&e.GenomicCodingStart, &e.GenomicCodingEnd, &e.CDNACodingStart, &e.CDNACodingEnd,
			&cdsStart, &cdsEnd, &cdsFrame,
		); err != nil {
			return fmt.Errorf("scan exon: %w", err)
		}
		if cdsStart.Valid && cdsEnd.Valid {
			e.CDS = &document.CDS{Start: cdsStart.Int64, End: cdsEnd.Int64, Frame: int(cdsFrame.Int64)}
		}
		if t, ok := byID[transcriptID]; ok {
			t.Exons = append(t.Exons, e)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate exons: %w", err)
	}
	return nil
}

func indexFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
