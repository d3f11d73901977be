package output

import "github.com/inodb/dcc-import/internal/document"

func idx(i int) *int { return &i }

func krasDoc() *document.Gene {
	return &document.Gene{
		ID:         "ENSG00000133703",
		Symbol:     "KRAS",
		Biotype:    "protein_coding",
		Chromosome: "12",
		Strand:     -1,
		Start:      25205246,
		End:        25250929,
		Transcripts: []document.Transcript{
			{
				ID:                "ENST00000311936",
				Name:              "KRAS-202",
				Biotype:           "protein_coding",
				Start:             25205246,
				End:               25250929,
				CodingRegionStart: 25245274,
				CodingRegionEnd:   25250751,
				CDNACodingStart:   1,
				CDNACodingEnd:     180,
				StartExon:         idx(0),
				EndExon:           idx(1),
				Exons: []document.Exon{
					{Start: 25250751, End: 25250929, CDNAStart: 1, CDNAEnd: 179, CDS: &document.CDS{Start: 25250751, End: 25250808}},
					{Start: 25245274, End: 25245395, CDNAStart: 180, CDNAEnd: 301, CDS: &document.CDS{Start: 25245274, End: 25245395, Frame: 2}},
				},
			},
			{
				ID:      "ENST00000556131",
				Name:    "KRAS-205",
				Biotype: "processed_transcript",
				Start:   25209431,
				End:     25250803,
				Exons:   []document.Exon{{Start: 25250751, End: 25250803, CDNAStart: 1, CDNAEnd: 53}},
			},
		},
	}
}
