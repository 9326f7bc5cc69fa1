package genome

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/interval"
	"github.com/inodb/hg38genome/internal/kmer"
	"github.com/inodb/hg38genome/internal/reference"
)

// sequenceReader returns the sequence reader, opening the 2-bit file in the data
// directory on first use.
func (g *Genome) sequenceReader() (reference.SequenceReader, error) {
	g.refOnce.Do(func() {
		if g.ref != nil {
			return
		}
		tb, err := reference.OpenDir(g.dataDir)
		if err != nil {
			g.refErr = err
			return
		}
		g.logger.Info("opened reference", zap.String("path", tb.Path()))
		g.opened = tb
		g.ref = tb
	})
	if g.refErr != nil {
		return nil, g.refErr
	}
	return g.ref, nil
}

// Sequence returns the upper-cased reference bases of [start, end) on chrom.
func (g *Genome) Sequence(chrom string, start, end int64) ([]byte, error) {
	length, err := g.asm.LengthOf(chrom)
	if err != nil {
		return nil, err
	}
	if start < 0 || end > length || start > end {
		return nil, fmt.Errorf("%w: %s:%d-%d (length %d)", ErrOutOfRange, chrom, start, end, length)
	}
	ref, err := g.sequenceReader()
	if err != nil {
		return nil, err
	}
	return ref.Sequence(chrom, start, end)
}

// Kmers counts the k-mers of every interval of coll, or of its last lastN
// bases when lastN > 0.
func (g *Genome) Kmers(coll *interval.Collection, k int, lastN int64) (*kmer.Table, error) {
	if err := kmer.ValidateK(k); err != nil {
		return nil, err
	}
	if err := interval.ValidateWindow(0, lastN); err != nil {
		return nil, err
	}
	ref, err := g.sequenceReader()
	if err != nil {
		return nil, err
	}
	c := kmer.NewComposer(ref)
	c.SetWorkers(g.workers)
	c.SetLogger(g.logger)
	return c.Compose(coll, k, lastN)
}

// ReferenceFile returns the path of the 2-bit reference.
func (g *Genome) ReferenceFile() (string, error) {
	return reference.Resolve(g.dataDir, reference.TwoBitFile)
}

// ReferenceCpGsFile is not implemented: there is no CpG site table.
func (g *Genome) ReferenceCpGsFile() (string, error) {
	return "", fmt.Errorf("%w: reference CpGs file", ErrNotImplemented)
}
