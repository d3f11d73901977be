// Package output provides gene document writers for files and stdout.
package output

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/inodb/dcc-import/internal/document"
)

// JSONLWriter writes one gene document per line as JSON.
type JSONLWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONLWriter creates a new JSON Lines writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	bw := bufio.NewWriter(w)
	return &JSONLWriter{w: bw, enc: json.NewEncoder(bw)}
}

// Write writes a single gene document.
func (jw *JSONLWriter) Write(_ context.Context, g *document.Gene) error {
	if err := jw.enc.Encode(g); err != nil {
		return fmt.Errorf("encode gene %s: %w", g.ID, err)
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (jw *JSONLWriter) Flush(context.Context) error {
	return jw.w.Flush()
}
