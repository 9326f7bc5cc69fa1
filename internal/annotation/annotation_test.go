package annotation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
)

const testdataDir = "../../testdata"

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:  "basic attributes",
			input: `gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS";`,
			expected: map[string]string{
				"gene_id":       "ENSG00000133703",
				"transcript_id": "ENST00000311936",
				"gene_name":     "KRAS",
			},
		},
		{
			name:  "repeated tags joined",
			input: `gene_id "ENSG00000133703"; tag "Ensembl_canonical"; tag "MANE_Select";`,
			expected: map[string]string{
				"gene_id": "ENSG00000133703",
				"tag":     "Ensembl_canonical,MANE_Select",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseAttributes(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStripVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ENST00000311936.8", "ENST00000311936"},
		{"ENSG00000133703.14", "ENSG00000133703"},
		{"ENST00000311936", "ENST00000311936"},
		{"ENST00000244174.11_PAR_Y", "ENST00000244174_PAR_Y"},
		{"ENSG00000182378.14_PAR_Y", "ENSG00000182378_PAR_Y"},
		{"ENST00000244174_PAR_Y", "ENST00000244174_PAR_Y"},
		{"odd.name", "odd.name"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, stripVersion(tt.input), "stripVersion(%q)", tt.input)
	}
}

func TestGTFLoader_ParseGTF(t *testing.T) {
	gtfContent := `##description: Test GTF
12	HAVANA	gene	25205246	25250929	.	-	.	gene_id "ENSG00000133703.14"; gene_biotype "protein_coding"; gene_name "KRAS";
12	HAVANA	transcript	25205246	25250929	.	-	.	gene_id "ENSG00000133703.14"; transcript_id "ENST00000311936.8"; gene_biotype "protein_coding"; gene_name "KRAS"; transcript_biotype "protein_coding"; tag "basic"; tag "Ensembl_canonical";
12	HAVANA	exon	25250751	25250929	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS"; exon_number "1";
12	HAVANA	exon	25245274	25245395	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS"; exon_number "2";
12	HAVANA	CDS	25245274	25245395	.	-	2	gene_id "ENSG00000133703"; transcript_id "ENST00000311936"; gene_name "KRAS"; exon_number "2";
12	HAVANA	exon	notanumber	25245395	.	-	.	gene_id "ENSG00000133703"; transcript_id "ENST00000311936";
`

	loader := NewGTFLoader("", assembly.HG38())
	tables := &Tables{}
	require.NoError(t, loader.parseGTF(strings.NewReader(gtfContent), tables))

	require.Len(t, tables.Genes, 1)
	g := tables.Genes[0]
	assert.Equal(t, "ENSG00000133703.14", g.ID)
	assert.Equal(t, "chr12", g.Chrom, "Ensembl names normalised")
	assert.Equal(t, int64(25205245), g.Start, "converted to 0-based")
	assert.Equal(t, int64(25250929), g.End)
	assert.Equal(t, interval.Minus, g.Strand)
	assert.Equal(t, "protein_coding", g.Type)

	require.Len(t, tables.Transcripts, 1)
	tr := tables.Transcripts[0]
	assert.Equal(t, "ENST00000311936.8", tr.ID, "exon rows without a version still join")
	assert.Equal(t, "ENSG00000133703.14", tr.GeneID)
	assert.Equal(t, "KRAS", tr.GeneName)
	assert.True(t, tr.IsCanonical)
	assert.Equal(t, "protein_coding", tr.Biotype)

	require.Len(t, tr.Exons, 2, "CDS and malformed lines ignored")
	assert.Equal(t, int64(25245273), tr.Exons[0].Start, "exons sorted by start")
	assert.Equal(t, 2, tr.Exons[0].Number)
}

func TestGTFLoader_ParseGTF_PARCopies(t *testing.T) {
	gtfContent := `chrX	HAVANA	gene	155701383	155719325	.	+	.	gene_id "ENSG00000182378.14"; gene_type "protein_coding"; gene_name "PLCXD1";
chrX	HAVANA	transcript	155701383	155719325	.	+	.	gene_id "ENSG00000182378.14"; transcript_id "ENST00000244174.11"; gene_type "protein_coding"; gene_name "PLCXD1";
chrX	HAVANA	exon	155701383	155701500	.	+	.	gene_id "ENSG00000182378.14"; transcript_id "ENST00000244174.11"; gene_type "protein_coding"; exon_number "1";
chrY	HAVANA	gene	57067865	57085807	.	+	.	gene_id "ENSG00000182378.14_PAR_Y"; gene_type "protein_coding"; gene_name "PLCXD1";
chrY	HAVANA	transcript	57067865	57085807	.	+	.	gene_id "ENSG00000182378.14_PAR_Y"; transcript_id "ENST00000244174.11_PAR_Y"; gene_type "protein_coding"; gene_name "PLCXD1";
chrY	HAVANA	exon	57067865	57067982	.	+	.	gene_id "ENSG00000182378.14_PAR_Y"; transcript_id "ENST00000244174.11_PAR_Y"; gene_type "protein_coding"; exon_number "1";
`

	loader := NewGTFLoader("", assembly.HG38())
	tables := &Tables{}
	require.NoError(t, loader.parseGTF(strings.NewReader(gtfContent), tables))

	require.Len(t, tables.Genes, 2)
	require.Len(t, tables.Transcripts, 2)

	x, y := tables.Transcripts[0], tables.Transcripts[1]
	assert.Equal(t, "ENST00000244174.11", x.ID)
	assert.Equal(t, "chrX", x.Chrom)
	assert.Equal(t, int64(155701382), x.Start)
	assert.Equal(t, []Exon{{Number: 1, Start: 155701382, End: 155701500}}, x.Exons)

	assert.Equal(t, "ENST00000244174.11_PAR_Y", y.ID)
	assert.Equal(t, "ENSG00000182378.14_PAR_Y", y.GeneID)
	assert.Equal(t, "chrY", y.Chrom)
	assert.Equal(t, int64(57067864), y.Start)
	assert.Equal(t, []Exon{{Number: 1, Start: 57067864, End: 57067982}}, y.Exons)
}

func TestFileSource_Load(t *testing.T) {
	files, found := FindFiles(testdataDir)
	require.True(t, found)
	assert.Equal(t, "sample.gtf", filepath.Base(files.GTF))
	assert.Equal(t, "hg38-blacklist.v2.bed", filepath.Base(files.Blacklist))

	tables, err := NewFileSource(files, assembly.HG38()).Load()
	require.NoError(t, err)

	var geneIDs []string
	for _, g := range tables.Genes {
		geneIDs = append(geneIDs, g.ID)
	}
	assert.Equal(t, []string{"ENSG00000000001.3", "ENSG00000000002.1", "ENSG00000000003.1", "ENSG00000000004.1"}, geneIDs,
		"sorted by assembly order; contigs outside the assembly dropped")

	synth := tables.Genes[3]
	assert.Equal(t, "chrX", synth.Chrom)
	assert.Equal(t, "miRNA", synth.Type)
	assert.Equal(t, int64(99), synth.Start)
	assert.Equal(t, int64(200), synth.End)

	var txIDs []string
	for _, tr := range tables.Transcripts {
		txIDs = append(txIDs, tr.ID)
	}
	assert.Equal(t, []string{
		"ENST00000000002.1", "ENST00000000001.1", "ENST00000000003.1",
		"ENST00000000004.2", "ENST00000000005.1",
		"ENST00000000006.1", "ENST00000000007.1",
	}, txIDs)

	bl := tables.Regions[TrackBlacklist]
	require.Len(t, bl, 3)
	assert.Equal(t, Region{Chrom: "chr1", Start: 0, End: 500, Name: "High_Signal_Region"}, bl[0])
	assert.Equal(t, "chr2", bl[2].Chrom)

	types := tables.GeneTypes()
	assert.True(t, types["protein_coding"])
	assert.True(t, types["lncRNA"])
	assert.True(t, types["miRNA"])
}

func TestBEDLoader_Bed6(t *testing.T) {
	content := "#header\nchr3\t10\t20\tsiteA\t0\t-\n1\t5\t15\tsiteB\t0\t+\n"
	loader := NewBEDLoader("", assembly.HG38())
	regions, err := loader.parseBED(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, interval.Minus, regions[0].Strand)
	assert.Equal(t, "chr1", regions[1].Chrom)
	assert.Equal(t, "siteB", regions[1].Name)
}

func TestBEDLoader_Empty(t *testing.T) {
	loader := NewBEDLoader("", assembly.HG38())
	regions, err := loader.parseBED(strings.NewReader("# nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, regions)

	_, err = loader.parseBED(strings.NewReader("chr1\t10\n"))
	assert.Error(t, err)
}

func TestDefaultSource_Missing(t *testing.T) {
	_, err := DefaultSource(t.TempDir(), assembly.HG38(), nil)
	assert.Error(t, err)
}

func TestTables_Sort(t *testing.T) {
	tables := &Tables{
		Genes: []*Gene{
			{ID: "b", Chrom: "chrX", Start: 1, End: 2},
			{ID: "c", Chrom: "chr2", Start: 5, End: 9},
			{ID: "a", Chrom: "chr2", Start: 5, End: 9},
			{ID: "d", Chrom: "chr10", Start: 0, End: 1},
		},
	}
	tables.Sort(assembly.HG38())

	var ids []string
	for _, g := range tables.Genes {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids, "assembly rank, not lexical chromosome order")
}
