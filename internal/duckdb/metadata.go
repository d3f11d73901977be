package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Import describes a completed import of a source file.
type Import struct {
	Source     FileFingerprint
	Genes      int64
	ImportedAt time.Time
}

// BeginImport marks an import of fp as started. The marker stays until
// RecordImport completes the import or ClearGenes removes what it wrote.
func (s *Store) BeginImport(fp FileFingerprint) error {
	_, err := s.db.Exec(`INSERT INTO imports (path, size, mod_time, genes, imported_at, completed) VALUES (?, ?, ?, 0, ?, false)`,
		fp.Path, fp.Size, fp.ModTime.UTC().Truncate(time.Microsecond), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	return nil
}

// RecordImport stores the fingerprint of a completed import and drops the
// start marker for the same path.
func (s *Store) RecordImport(fp FileFingerprint, genes int64) error {
	if _, err := s.db.Exec(`DELETE FROM imports WHERE path=? AND NOT completed`, fp.Path); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	_, err := s.db.Exec(`INSERT INTO imports (path, size, mod_time, genes, imported_at, completed) VALUES (?, ?, ?, ?, ?, true)`,
		fp.Path, fp.Size, fp.ModTime.UTC().Truncate(time.Microsecond), genes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// Interrupted returns the paths of imports that were started but never
// completed. Their genes may be partially written.
func (s *Store) Interrupted() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT path FROM imports WHERE NOT completed ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query interrupted imports: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan import path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return paths, nil
}

// LastImport returns the most recent completed import of path, or nil if there is none.
func (s *Store) LastImport(path string) (*Import, error) {
	imp := &Import{Source: FileFingerprint{Path: path}}
	err := s.db.QueryRow(`SELECT size, mod_time, genes, imported_at FROM imports
		WHERE path=? AND completed ORDER BY imported_at DESC LIMIT 1`, path).
		Scan(&imp.Source.Size, &imp.Source.ModTime, &imp.Genes, &imp.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last import: %w", err)
	}
	return imp, nil
}

// Unchanged reports whether the last completed import of fp.Path saw the same file.
func (s *Store) Unchanged(fp FileFingerprint) (bool, error) {
	last, err := s.LastImport(fp.Path)
	if err != nil || last == nil {
		return false, err
	}
	// TIMESTAMP keeps microseconds.
	return last.Source.Size == fp.Size && last.Source.ModTime.Equal(fp.ModTime.Truncate(time.Microsecond)), nil
}
