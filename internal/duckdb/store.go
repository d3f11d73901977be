// Package duckdb stores gene documents in DuckDB.
// Genes, transcripts and exons are kept in three flat tables so the
// documents can be queried with SQL and reassembled on lookup.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/dcc-import/internal/document"
)

// DefaultBatchSize is the number of genes buffered before they are appended.
const DefaultBatchSize = 1000

// Store manages a DuckDB connection holding imported genes.
type Store struct {
	db        *sql.DB
	path      string
	batchSize int
	pending   []*document.Gene
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, batchSize: DefaultBatchSize}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetBatchSize sets how many genes are buffered between appends.
func (s *Store) SetBatchSize(n int) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	s.batchSize = n
}

// Close closes the database connection. Buffered genes that were not
// flushed are discarded.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS genes (
		gene_id VARCHAR PRIMARY KEY,
		symbol VARCHAR,
		biotype VARCHAR,
		chromosome VARCHAR,
		strand BIGINT,
		start_pos BIGINT,
		end_pos BIGINT
	)`,
		`CREATE TABLE IF NOT EXISTS transcripts (
		gene_id VARCHAR,
		transcript_id VARCHAR,
		transcript_index BIGINT,
		name VARCHAR,
		biotype VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		coding_region_start BIGINT,
		coding_region_end BIGINT,
		cdna_coding_start BIGINT,
		cdna_coding_end BIGINT,
		start_exon BIGINT,
		end_exon BIGINT,
		PRIMARY KEY (gene_id, transcript_id)
	)`,
		`CREATE TABLE IF NOT EXISTS exons (
		gene_id VARCHAR,
		transcript_id VARCHAR,
		exon_index BIGINT,
		start_pos BIGINT,
		end_pos BIGINT,
		cdna_start BIGINT,
		cdna_end BIGINT,
		genomic_coding_start BIGINT,
		genomic_coding_end BIGINT,
		cdna_coding_start BIGINT,
		cdna_coding_end BIGINT,
		cds_start BIGINT,
		cds_end BIGINT,
		cds_frame BIGINT,
		PRIMARY KEY (gene_id, transcript_id, exon_index)
	)`,
		`CREATE TABLE IF NOT EXISTS imports (
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		genes BIGINT,
		imported_at TIMESTAMP,
		completed BOOLEAN
	)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
