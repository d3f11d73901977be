package gtf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brafExonLine = "7\tensembl_havana\texon\t140624366\t140624503\t.\t-\t.\t" +
	`gene_id "ENSG00000157764"; transcript_id "ENST00000288602"; exon_number "1"; gene_name "BRAF"; gene_biotype "protein_coding";`

func TestParseLine(t *testing.T) {
	rec, err := ParseLine(brafExonLine, 12)
	require.NoError(t, err)

	assert.Equal(t, 12, rec.Line)
	assert.Equal(t, "7", rec.SeqName)
	assert.Equal(t, "ensembl_havana", rec.Source)
	assert.Equal(t, "exon", rec.Type)
	assert.Equal(t, KindExon, rec.Kind)
	assert.Equal(t, int64(140624366), rec.Start)
	assert.Equal(t, int64(140624503), rec.End)
	assert.Equal(t, 0.0, rec.Score)
	assert.Equal(t, int8(-1), rec.Strand)
	assert.Equal(t, -1, rec.Frame)
	assert.Equal(t, "ENST00000288602", rec.Attributes["transcript_id"])
	assert.Equal(t, "BRAF", rec.Attr("gene_name"))
}

func TestParseLine_SwappedCoordinates(t *testing.T) {
	rec, err := ParseLine("1\tsrc\texon\t500\t100\t.\t+\t.\tgene_id \"G1\";", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.Start)
	assert.Equal(t, int64(500), rec.End)
}

func TestParseLine_ScoreAndFrame(t *testing.T) {
	rec, err := ParseLine("1\tsrc\tCDS\t1\t90\t12.5\t+\t2\tgene_id \"G1\";", 1)
	require.NoError(t, err)
	assert.Equal(t, 12.5, rec.Score)
	assert.Equal(t, 2, rec.Frame)

	rec, err = ParseLine("1\tsrc\tCDS\t1\t90\tn/a\t+\tx\tgene_id \"G1\";", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Score)
	assert.Equal(t, -1, rec.Frame)
}

func TestParseLine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "1\tsrc\texon\t100\t200"},
		{"bad start", "1\tsrc\texon\tabc\t200\t.\t+\t.\tgene_id \"G1\";"},
		{"missing end", "1\tsrc\texon\t100\t\t.\t+\t.\tgene_id \"G1\";"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line, 7)
			var le *MalformedLineError
			require.True(t, errors.As(err, &le), "expected MalformedLineError, got %v", err)
			assert.Equal(t, 7, le.Line)
		})
	}
}

func TestParseLine_MalformedAttribute(t *testing.T) {
	_, err := ParseLine("1\tsrc\texon\t100\t200\t.\t+\t.\tgene_id;", 3)
	var ae *MalformedAttributeError
	require.True(t, errors.As(err, &ae), "expected MalformedAttributeError, got %v", err)
	assert.Equal(t, 3, ae.Line)
	assert.Equal(t, "gene_id", ae.Token)
}

func TestParseStrand(t *testing.T) {
	assert.Equal(t, int8(1), ParseStrand("+"))
	assert.Equal(t, int8(-1), ParseStrand("-"))
	assert.Equal(t, int8(0), ParseStrand("."))
	assert.Equal(t, int8(0), ParseStrand("?"))
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"gene", "transcript", "exon", "CDS", "start_codon", "stop_codon"} {
		k := ParseKind(name)
		assert.NotEqual(t, KindOther, k, name)
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, KindOther, ParseKind("five_prime_utr"))
	assert.Equal(t, KindOther, ParseKind("cds"))
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:  "ensembl attributes",
			input: `gene_id "ENSG00000157764"; gene_name "BRAF"; gene_biotype "protein_coding";`,
			expected: map[string]string{
				"gene_id":      "ENSG00000157764",
				"gene_name":    "BRAF",
				"gene_biotype": "protein_coding",
			},
		},
		{
			name:  "repeated key",
			input: `gene_id "G1"; tag "CCDS"; tag "basic"`,
			expected: map[string]string{
				"gene_id": "G1",
				"tag":     "basic", // Last value wins
			},
		},
		{
			name:     "empty",
			input:    "",
			expected: map[string]string{},
		},
		{
			name:     "unquoted with tabs",
			input:    "exon_number\t3 ;  ",
			expected: map[string]string{"exon_number": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAttributes(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseAttributes_Malformed(t *testing.T) {
	for _, input := range []string{`gene_id`, `gene_name "two words"`, `a b c;`} {
		_, err := ParseAttributes(input)
		var ae *MalformedAttributeError
		assert.True(t, errors.As(err, &ae), "ParseAttributes(%q) = %v", input, err)
	}
}
