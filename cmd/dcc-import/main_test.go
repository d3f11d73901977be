package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/dcc-import/internal/document"
	"github.com/inodb/dcc-import/internal/duckdb"
)

const sampleGTF = "../../testdata/sample.gtf"

// execute runs the CLI with a fresh viper state and an isolated home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level=error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func readJSONL(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var docs []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.NoError(t, sc.Err())
	return docs
}

func TestGenes_JSONLFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "genes.jsonl")
	_, err := execute(t, "genes", "-o", out, sampleGTF)
	require.NoError(t, err)

	docs := readJSONL(t, out)
	require.Len(t, docs, 3)
	assert.Equal(t, "ENSG00000000001", docs[0]["id"])
	assert.Equal(t, "GENEA", docs[0]["symbol"])
	assert.Len(t, docs[0]["transcripts"], 2)
}

func TestGenes_Chromosome(t *testing.T) {
	out := filepath.Join(t.TempDir(), "genes.jsonl")
	_, err := execute(t, "genes", "--chrom", "2", "-o", out, sampleGTF)
	require.NoError(t, err)

	docs := readJSONL(t, out)
	require.Len(t, docs, 1)
	assert.Equal(t, "ENSG00000000003", docs[0]["id"])
}

func TestGenes_TabStdout(t *testing.T) {
	out, err := execute(t, "genes", "--sink", "tab", sampleGTF)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "#Gene\t"))
	assert.Contains(t, out, "ENST00000000021")
}

func TestGenes_DuckDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "genes.duckdb")

	_, err := execute(t, "genes", "--sink", "duckdb", "--duckdb-path", dbPath, sampleGTF)
	require.NoError(t, err)

	// Unchanged input is skipped, so the primary keys do not collide.
	_, err = execute(t, "genes", "--sink", "duckdb", "--duckdb-path", dbPath, sampleGTF)
	require.NoError(t, err)

	_, err = execute(t, "genes", "--sink", "duckdb", "--duckdb-path", dbPath, "--force", "--drop", sampleGTF)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.GeneCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	g, err := store.LookupGene("ENSG00000000002")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, -1, g.Strand)
	require.Len(t, g.Transcripts, 1)
	assert.Equal(t, int64(8300), g.Transcripts[0].CodingRegionStart)
	assert.Equal(t, int64(8700), g.Transcripts[0].CodingRegionEnd)

	fp, err := duckdb.StatFile(sampleGTF)
	require.NoError(t, err)
	unchanged, err := store.Unchanged(fp)
	require.NoError(t, err)
	assert.True(t, unchanged)
}

func TestGenes_DuckDBAfterInterruptedImport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "genes.duckdb")

	// Leave the store as a failed run would: a started import and some of its genes.
	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	fp, err := duckdb.StatFile(sampleGTF)
	require.NoError(t, err)
	require.NoError(t, store.BeginImport(fp))
	require.NoError(t, store.WriteGenes(context.Background(), []*document.Gene{{ID: "ENSG00000000001"}}))
	require.NoError(t, store.Close())

	_, err = execute(t, "genes", "--sink", "duckdb", "--duckdb-path", dbPath, sampleGTF)
	require.NoError(t, err)

	store, err = duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.GeneCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	interrupted, err := store.Interrupted()
	require.NoError(t, err)
	assert.Empty(t, interrupted)

	g, err := store.LookupGene("ENSG00000000001")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "GENEA", g.Symbol)
}

func TestGenes_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown sink", []string{"genes", "--sink", "parquet", sampleGTF}, "unknown sink"},
		{"missing input file", []string{"genes", "does-not-exist.gtf"}, "does-not-exist.gtf"},
		{"no downloaded GTF", []string{"genes"}, "dcc-import download"},
		{"bad log level", []string{"genes", sampleGTF, "--log-level", "loud"}, "invalid log level"},
		{"too many args", []string{"genes", "a.gtf", "b.gtf"}, "accepts at most 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenes_UsesDownloadedGTF(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".dcc-import", "grch37")
	require.NoError(t, os.MkdirAll(dir, 0755))

	data, err := os.ReadFile(sampleGTF)
	require.NoError(t, err)
	// Plain text with a .gz name still parses; the reader sniffs the gzip magic.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Homo_sapiens.GRCh37.75.gtf.gz"), data, 0644))

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", home)

	out := filepath.Join(t.TempDir(), "genes.jsonl")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--log-level=error", "genes", "-o", out})
	require.NoError(t, cmd.Execute())
	assert.Len(t, readJSONL(t, out), 3)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dcc-import version dev")
}

func TestConfigSetGet(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "set", "mongo.uri", "mongodb://db:27017", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Set mongo.uri = mongodb://db:27017")

	out, err = execute(t, "config", "get", "mongo.uri", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db:27017\n", out)

	out, err = execute(t, "config", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "uri: mongodb://db:27017")
	assert.Contains(t, out, "sink: jsonl")
}

func TestConfigSet_TypedValues(t *testing.T) {
	tests := []struct {
		key, value string
		want       string
	}{
		{"sink", "DuckDB", "duckdb"},
		{"assembly", "grch38", "GRCh38"},
		{"batch-size", "250", "250"},
		{"progress-interval", "-1", "-1"},
		{"mongo.drop", "true", "true"},
		{"strip-version", "1", "true"},
		{"chrom", "1, 2,X", "[1 2 X]"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := filepath.Join(t.TempDir(), "config.yaml")
			_, err := execute(t, "config", "set", tt.key, tt.value, "--config", cfg)
			require.NoError(t, err)

			out, err := execute(t, "config", "get", tt.key, "--config", cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestConfigSet_Rejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown key", []string{"set", "mongo.password", "secret"}, "unknown key"},
		{"unknown sink", []string{"set", "sink", "bogus"}, "not one of"},
		{"unknown assembly", []string{"set", "assembly", "hg19"}, "not one of"},
		{"non-integer batch size", []string{"set", "batch-size", "many"}, "not a non-negative integer"},
		{"negative batch size", []string{"set", "batch-size", "-5"}, "not a non-negative integer"},
		{"non-integer interval", []string{"set", "progress-interval", "1e4"}, "not an integer"},
		{"non-boolean flag", []string{"set", "mongo.drop", "maybe"}, "not a boolean"},
		{"bad log level", []string{"set", "log-level", "loud"}, "not a log level"},
		{"get unknown key", []string{"get", "mongo.password"}, "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := filepath.Join(t.TempDir(), "config.yaml")
			args := append([]string{"config"}, tt.args...)
			_, err := execute(t, append(args, "--config", cfg)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			// Nothing is written for a rejected value.
			_, statErr := os.Stat(cfg)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestConfigFeedsGenes(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "config", "set", "chrom", "2", "--config", cfg)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "genes.jsonl")
	_, err = execute(t, "genes", "-o", out, "--config", cfg, sampleGTF)
	require.NoError(t, err)

	docs := readJSONL(t, out)
	require.Len(t, docs, 1)
	assert.Equal(t, "ENSG00000000003", docs[0]["id"])
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("verbose")
	assert.Error(t, err)
}
