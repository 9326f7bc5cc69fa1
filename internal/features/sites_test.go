package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/interval"
)

func transcriptIDs(c *interval.Collection) []string {
	out := make([]string, 0, c.Len())
	for _, a := range c.Intervals() {
		out = append(out, a.Field("transcript_id"))
	}
	return out
}

func TestSitePoint(t *testing.T) {
	plus := &annotation.Transcript{Chrom: "chr1", Start: 100, End: 200, Strand: interval.Plus}
	minus := &annotation.Transcript{Chrom: "chr1", Start: 100, End: 200, Strand: interval.Minus}
	unknown := &annotation.Transcript{Chrom: "chr1", Start: 100, End: 200}

	tests := []struct {
		name     string
		t        *annotation.Transcript
		kind     siteKind
		expected [2]int64
	}{
		{"plus TSS", plus, siteStart, [2]int64{100, 101}},
		{"plus TES", plus, siteEnd, [2]int64{199, 200}},
		{"minus TSS", minus, siteStart, [2]int64{199, 200}},
		{"minus TES", minus, siteEnd, [2]int64{100, 101}},
		{"unknown TSS", unknown, siteStart, [2]int64{100, 101}},
		{"unknown TES", unknown, siteEnd, [2]int64{199, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := sitePoint(tt.t, tt.kind)
			assert.Equal(t, tt.expected, [2]int64{iv.Start, iv.End})
			assert.Equal(t, int64(1), iv.Len())
			assert.Equal(t, tt.t.Strand, iv.Strand)
		})
	}
}

func TestTSS_KeepDuplicates(t *testing.T) {
	q := newTestQuerier(t)

	c, err := q.TSS(Options{Chrom: "chr1", KeepDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chr1:1000-1001(+)",
		"chr1:1000-1001(+)",
		"chr1:2000-2001(+)",
		"chr1:19999-20000(-)",
		"chr1:19999-20000(-)",
	}, extents(c))
	assert.Equal(t, []string{
		"ENST00000000002.1",
		"ENST00000000001.1",
		"ENST00000000003.1",
		"ENST00000000004.2",
		"ENST00000000005.1",
	}, transcriptIDs(c))
}

func TestTSS_DeduplicatedByDefault(t *testing.T) {
	q := newTestQuerier(t)

	c, err := q.TSS(Options{Chrom: "chr1"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chr1:1000-1001(+)",
		"chr1:2000-2001(+)",
		"chr1:19999-20000(-)",
	}, extents(c))
	// The smallest transcript ID of each (gene, site) group is kept.
	assert.Equal(t, []string{
		"ENST00000000001.1",
		"ENST00000000003.1",
		"ENST00000000004.2",
	}, transcriptIDs(c))

	zero, err := q.TSS(Options{})
	require.NoError(t, err)
	all, err := q.TSS(Options{KeepDuplicates: true})
	require.NoError(t, err)
	assert.Less(t, zero.Len(), all.Len())
}

func TestTES_DeduplicatedByDefault(t *testing.T) {
	q := newTestQuerier(t)

	all, err := q.TES(Options{Chrom: "chr1", KeepDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 5, all.Len())

	c, err := q.TES(Options{Chrom: "chr1"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chr1:3999-4000(+)",
		"chr1:4999-5000(+)",
		"chr1:10000-10001(-)",
		"chr1:12000-12001(-)",
	}, extents(c))
	assert.Equal(t, []string{
		"ENST00000000002.1",
		"ENST00000000001.1",
		"ENST00000000004.2",
		"ENST00000000005.1",
	}, transcriptIDs(c))

	zero, err := q.TES(Options{})
	require.NoError(t, err)
	everything, err := q.TES(Options{KeepDuplicates: true})
	require.NoError(t, err)
	assert.Less(t, zero.Len(), everything.Len())
}

func TestTSS_Window(t *testing.T) {
	q := newTestQuerier(t)

	c, err := q.TSS(Options{Chrom: "chr1", Upstream: 100, Downstream: 50})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chr1:900-1051(+)",
		"chr1:1900-2051(+)",
		"chr1:19949-20100(-)",
	}, extents(c))
}

func TestTSS_GeneTypeFilter(t *testing.T) {
	q := newTestQuerier(t)

	c, err := q.TSS(Options{GeneType: "lncRNA", KeepDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ENST00000000004.2", "ENST00000000005.1"}, transcriptIDs(c))
}

func TestDedupSites_IndependentOfOrder(t *testing.T) {
	mk := func(id string) site {
		tr := &annotation.Transcript{ID: id, GeneID: "G", Chrom: "chr1", Start: 10, End: 50, Strand: interval.Plus}
		return site{point: sitePoint(tr, siteStart), transcript: tr}
	}

	forward := dedupSites([]site{mk("T1"), mk("T2"), mk("T3")})
	reverse := dedupSites([]site{mk("T3"), mk("T2"), mk("T1")})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.Equal(t, "T1", forward[0].transcript.ID)
	assert.Equal(t, "T1", reverse[0].transcript.ID)
}

func TestDedupSites_DistinctGenesKept(t *testing.T) {
	a := &annotation.Transcript{ID: "T1", GeneID: "GA", Chrom: "chr1", Start: 10, End: 50, Strand: interval.Plus}
	b := &annotation.Transcript{ID: "T2", GeneID: "GB", Chrom: "chr1", Start: 10, End: 50, Strand: interval.Plus}

	out := dedupSites([]site{
		{point: sitePoint(a, siteStart), transcript: a},
		{point: sitePoint(b, siteStart), transcript: b},
	})
	assert.Len(t, out, 2)
}
