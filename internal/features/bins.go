package features

import (
	"fmt"
	"strconv"

	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
)

// DefaultBinSize is the bin width used when BinOptions.BinSize is zero.
const DefaultBinSize = 100000

// BinOptions configures BinBias. Bins take no window padding.
type BinOptions struct {
	BinSize int64  // 0 for DefaultBinSize
	Group   string // chromosome group, "" for all
}

// Bins partitions every chromosome of a group into consecutive [start, end)
// bins of BinSize bases covering [0, length). The last bin of a chromosome
// is shorter when the length is not a multiple of BinSize.
func Bins(asm *assembly.Assembly, opts BinOptions) (*interval.Collection, error) {
	binSize := opts.BinSize
	if binSize == 0 {
		binSize = DefaultBinSize
	}
	if binSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBinSize, binSize)
	}

	chroms, err := asm.Chromosomes(opts.Group)
	if err != nil {
		return nil, err
	}

	c := interval.NewCollection()
	for _, chrom := range chroms {
		length, err := asm.LengthOf(chrom)
		if err != nil {
			return nil, err
		}
		for i, start := 0, int64(0); start < length; i, start = i+1, start+binSize {
			c.Add(interval.AnnotatedInterval{
				GenomicInterval: interval.GenomicInterval{
					Chrom: chrom,
					Start: start,
					End:   min(start+binSize, length),
				},
				Fields: map[string]string{"bin": strconv.Itoa(i)},
			})
		}
	}
	return c, nil
}

// BinBias returns the fixed-size bins used for GC-bias statistics.
func (q *Querier) BinBias(opts BinOptions) (*interval.Collection, error) {
	return Bins(q.assembly, opts)
}
