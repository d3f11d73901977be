package gtf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// fastaSentinel marks the start of an embedded FASTA section; nothing after it is annotation.
const fastaSentinel = "##fasta"

const maxLineSize = 16 * 1024 * 1024

// Reader reads GTF records one line at a time.
type Reader struct {
	scanner    *bufio.Scanner
	file       *os.File
	gzipReader *pgzip.Reader
	lineNumber int
	done       bool
}

// Open opens a GTF file for reading. Gzipped input is detected from its
// magic bytes. A path of "-" reads from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gtf file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read gtf header: %w", err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := pgzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r := NewReader(gz)
		r.file = file
		r.gzipReader = gz
		return r, nil
	}

	r := NewReader(br)
	r.file = file
	return r, nil
}

// NewReader creates a reader over already-decompressed GTF text.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns the next feature record.
// Returns nil, nil at end of input or once the FASTA section is reached.
func (r *Reader) Next() (*Record, error) {
	for !r.done && r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '#' {
			if strings.HasPrefix(line, fastaSentinel) {
				r.done = true
			}
			continue
		}
		return ParseLine(line, r.lineNumber)
	}
	if r.done {
		return nil, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan gtf: %w", err)
	}
	r.done = true
	return nil, nil
}

// LineNumber returns the number of lines consumed so far.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
