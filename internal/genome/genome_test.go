package genome

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/features"
	"github.com/inodb/hg38genome/internal/interval"
)

const testdataDir = "../../testdata"

// countingSource counts Load calls on the wrapped source.
type countingSource struct {
	src   annotation.Source
	loads atomic.Int32
}

func (s *countingSource) Load() (*annotation.Tables, error) {
	s.loads.Add(1)
	return s.src.Load()
}

type failingSource struct{}

func (failingSource) Load() (*annotation.Tables, error) {
	return nil, errors.New("disk on fire")
}

func fixtureSource(t *testing.T) *countingSource {
	t.Helper()
	files, found := annotation.FindFiles(testdataDir)
	require.True(t, found)
	return &countingSource{src: annotation.NewFileSource(files, New().Assembly())}
}

// memReference serves a repeating sequence for any chromosome.
type memReference struct {
	pattern string
}

func (r *memReference) Length(chrom string) (int64, error) { return 1 << 40, nil }

func (r *memReference) Sequence(chrom string, start, end int64) ([]byte, error) {
	out := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, r.pattern[i%int64(len(r.pattern))])
	}
	return out, nil
}

func TestNew_ZeroArgs(t *testing.T) {
	g := New()
	defer g.Close()

	assert.Equal(t, "hg38", g.Version())
	assert.Equal(t, int64(3137161264), g.NumBases())
	assert.Equal(t, int64(28217448), g.NumCpGs())

	n, err := g.LengthOf("chrM")
	require.NoError(t, err)
	assert.Equal(t, int64(16569), n)

	main, err := g.Chromosomes("main")
	require.NoError(t, err)
	assert.Len(t, main, 25)
}

func TestGenome_LoadsTablesOnce(t *testing.T) {
	src := fixtureSource(t)
	g := New(WithTables(src), WithDataDir(t.TempDir()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := g.TSS(Options{Chrom: "chr1"})
			assert.NoError(t, err)
			assert.Equal(t, 3, c.Len())
		}()
	}
	wg.Wait()

	_, err := g.Exons(Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestGenome_Queries(t *testing.T) {
	g := New(WithTables(fixtureSource(t)))

	tests := []struct {
		name  string
		query func(Options) (*interval.Collection, error)
		opts  Options
		count int
	}{
		{"exons", g.Exons, Options{}, 13},
		{"tss deduplicated", g.TSS, Options{Chrom: "chr1"}, 3},
		{"tes deduplicated", g.TES, Options{Chrom: "chr1"}, 4},
		{"genes", g.Genes, Options{}, 4},
		{"protein coding genes", g.Genes, Options{GeneType: "protein_coding"}, 2},
		{"blacklist", g.Blacklist, Options{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.query(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.count, c.Len())
		})
	}
}

func TestGenome_NotImplementedWithoutTables(t *testing.T) {
	g := New(WithTables(failingSource{}))

	calls := map[string]func() error{
		"CpGIslands": func() error { _, err := g.CpGIslands(Options{}); return err },
		"TFBS":       func() error { _, err := g.TFBS(Options{}); return err },
		"CTCF":       func() error { _, err := g.CTCF(Options{}); return err },
		"Repeats":    func() error { _, err := g.Repeats(); return err },
		"CpGs":       func() error { _, err := g.CpGs(Options{}); return err },
		"CpGNames":   func() error { _, err := g.CpGNames(); return err },
		"ReferenceCpGsFile": func() error {
			path, err := g.ReferenceCpGsFile()
			assert.Empty(t, path)
			return err
		},
		"Query CTCF": func() error { _, err := g.Query(features.FeatureCTCF, "chr1", Config{}); return err },
		"Query cpgs": func() error { _, err := g.Query(features.FeatureCpGs, "", Config{}); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(call(), ErrNotImplemented))
		})
	}
}

func TestGenome_StubsThroughRegistryWithoutData(t *testing.T) {
	src := fixtureSource(t)
	g := New(WithTables(src))

	scopes := []struct {
		scope   Scope
		feature string
	}{
		{ScopeFeatures, features.FeatureCTCF},
		{ScopeFeatures, features.FeatureCpGIslands},
		{ScopeCpG, features.FeatureCpGs},
		{ScopeAll, features.FeatureTFBS},
	}
	for _, tt := range scopes {
		t.Run(tt.feature, func(t *testing.T) {
			d, err := g.Dispatcher(tt.scope, Config{})
			require.NoError(t, err)
			finder, err := d.Dispatch(tt.feature)
			require.NoError(t, err)
			_, err = finder.Query("chr1")
			assert.True(t, errors.Is(err, ErrNotImplemented))
		})
	}
	assert.Equal(t, int32(0), src.loads.Load())

	// An empty data directory still reports the stub, not the missing asset.
	empty := New(WithDataDir(t.TempDir()))
	_, err := empty.Query(features.FeatureCTCF, "", Config{})
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.False(t, errors.Is(err, ErrAssetMissing))

	_, err = empty.Query("tss", "", Config{})
	assert.True(t, errors.Is(err, ErrAssetMissing))
}

func TestGenome_LoadFailure(t *testing.T) {
	g := New(WithTables(failingSource{}))

	_, err := g.Exons(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	// The failure is remembered.
	_, err2 := g.TSS(Options{})
	assert.Equal(t, err, err2)
}

func TestGenome_MissingDataDir(t *testing.T) {
	g := New(WithDataDir(t.TempDir()))

	_, err := g.Exons(Options{})
	assert.True(t, errors.Is(err, ErrAssetMissing))

	_, err = g.ReferenceFile()
	assert.True(t, errors.Is(err, ErrAssetMissing))

	_, err = g.Sequence("chr1", 0, 10)
	assert.True(t, errors.Is(err, ErrSequenceUnavailable))

	_, err = g.Kmers(interval.NewCollection(), 2, 0)
	assert.True(t, errors.Is(err, ErrSequenceUnavailable))
}

func TestGenome_DataDirFiles(t *testing.T) {
	g := New(WithDataDir(testdataDir))

	c, err := g.Blacklist(Options{Chrom: "chr2"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestGenome_BinBiasNeedsNoTables(t *testing.T) {
	g := New(WithTables(failingSource{}))

	c, err := g.BinBias(BinOptions{BinSize: 10000000, Group: "autosomes"})
	require.NoError(t, err)
	assert.Equal(t, 25, c.Chrom("chr1").Len())

	_, err = g.BinBias(BinOptions{BinSize: -5})
	assert.True(t, errors.Is(err, ErrInvalidBinSize))
}

func TestGenome_Sequence(t *testing.T) {
	g := New(WithReference(&memReference{pattern: "ACGT"}))

	seq, err := g.Sequence("chr1", 2, 7)
	require.NoError(t, err)
	assert.Equal(t, "GTACG", string(seq))

	tests := []struct {
		chrom      string
		start, end int64
		want       error
	}{
		{"chr99", 0, 1, ErrUnknownChromosome},
		{"chr1", -1, 1, ErrOutOfRange},
		{"chr1", 10, 5, ErrOutOfRange},
		{"chrM", 0, 16570, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s:%d-%d", tt.chrom, tt.start, tt.end), func(t *testing.T) {
			_, err := g.Sequence(tt.chrom, tt.start, tt.end)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGenome_Kmers(t *testing.T) {
	g := New(WithTables(fixtureSource(t)), WithReference(&memReference{pattern: "AACC"}), WithWorkers(2))

	exons, err := g.Exons(Options{Chrom: "chr2"})
	require.NoError(t, err)

	table, err := g.Kmers(exons, 1, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	// Each exon is 100 bp of the repeating AACC pattern.
	assert.Equal(t, []int{50, 50, 0, 0}, table.Rows[0].Counts)
	assert.Equal(t, "1", table.Rows[0].Interval.Field("exon_number"))

	last, err := g.Kmers(exons, 2, 4)
	require.NoError(t, err)
	total := 0
	for _, n := range last.Rows[1].Counts {
		total += n
	}
	assert.Equal(t, 3, total)

	_, err = g.Kmers(exons, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidK))
	_, err = g.Kmers(exons, 2, -1)
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}

func TestGenome_Dispatcher(t *testing.T) {
	g := New(WithTables(fixtureSource(t)))

	d, err := g.Dispatcher(ScopeGeneInfo, Config{Upstream: 10})
	require.NoError(t, err)
	finder, err := d.Dispatch("gene_body")
	require.NoError(t, err)
	c, err := finder.Query("chr2")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, int64(490), c.At(0).Start)

	d, err = g.Dispatcher(ScopeFeatures, Config{})
	require.NoError(t, err)
	_, err = d.Dispatch("tss")
	assert.True(t, errors.Is(err, ErrUnknownFeature))

	_, err = g.Registry(Scope("bogus"))
	assert.True(t, errors.Is(err, ErrUnknownFeature))

	c, err = g.Query("blacklist", "chr1", Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = g.Query("CTCF", "chr1", Config{})
	assert.True(t, errors.Is(err, ErrNotImplemented))
}

func TestGenome_GeneTypes(t *testing.T) {
	g := New(WithTables(fixtureSource(t)))

	types, err := g.GeneTypes()
	require.NoError(t, err)
	assert.Equal(t, "all", types[0])
	assert.Contains(t, types, "miRNA")
}
