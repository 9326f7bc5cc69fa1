package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/hg38genome/internal/assembly"
)

func TestBins_Small(t *testing.T) {
	asm, err := assembly.Parse("chrA\t250\nchrB\t100\n")
	require.NoError(t, err)

	c, err := Bins(asm, BinOptions{BinSize: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"chrA:0-100(.)",
		"chrA:100-200(.)",
		"chrA:200-250(.)",
		"chrB:0-100(.)",
	}, extents(c))
	assert.Equal(t, "2", c.At(2).Field("bin"))
	assert.Equal(t, "0", c.At(3).Field("bin"))
}

func TestBins_HG38Main(t *testing.T) {
	asm := assembly.HG38()

	c, err := Bins(asm, BinOptions{Group: assembly.GroupMain})
	require.NoError(t, err)

	chr1 := c.Chrom("chr1")
	require.Equal(t, 2490, chr1.Len())
	last := chr1.At(chr1.Len() - 1)
	assert.Equal(t, int64(248900000), last.Start)
	assert.Equal(t, int64(248956422), last.End)
	assert.Equal(t, int64(56422), last.Len())

	main, err := asm.Chromosomes(assembly.GroupMain)
	require.NoError(t, err)
	assert.Equal(t, main, c.Chromosomes())

	// Bins tile each chromosome without gaps.
	for _, chrom := range main {
		length, err := asm.LengthOf(chrom)
		require.NoError(t, err)
		bins := c.Chrom(chrom)
		var pos int64
		for _, b := range bins.Intervals() {
			require.Equal(t, pos, b.Start, chrom)
			pos = b.End
		}
		assert.Equal(t, length, pos, chrom)
	}
}

func TestBins_Errors(t *testing.T) {
	asm := assembly.HG38()

	_, err := Bins(asm, BinOptions{BinSize: -1})
	assert.True(t, errors.Is(err, ErrInvalidBinSize))

	_, err = Bins(asm, BinOptions{Group: "nope"})
	assert.True(t, errors.Is(err, assembly.ErrUnknownGroup))
}

func TestQuerier_BinBias(t *testing.T) {
	q := newTestQuerier(t)

	c, err := q.BinBias(BinOptions{BinSize: 1000000, Group: assembly.GroupAutosomes})
	require.NoError(t, err)
	assert.Len(t, c.Chromosomes(), 22)
	assert.Equal(t, 249, c.Chrom("chr1").Len())
}
