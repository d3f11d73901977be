package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/dcc-import/internal/document"
)

func TestJSONLWriter_OneLinePerGene(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, krasDoc()))
	require.NoError(t, w.Write(ctx, &document.Gene{ID: "ENSG00000000003", Transcripts: []document.Transcript{}}))
	require.NoError(t, w.Flush(ctx))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var got document.Gene
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, krasDoc(), &got)

	assert.Contains(t, lines[1], `"id":"ENSG00000000003"`)
	assert.Contains(t, lines[1], `"transcripts":[]`)
}

func TestJSONLWriter_BuffersUntilFlush(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)

	require.NoError(t, w.Write(context.Background(), krasDoc()))
	assert.Zero(t, buf.Len())

	require.NoError(t, w.Flush(context.Background()))
	assert.NotZero(t, buf.Len())
}
