// Package genome is the hg38 facade: assembly metadata, feature queries,
// kmer composition and reference sequence behind one value.
package genome

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/features"
	"github.com/inodb/hg38genome/internal/interval"
	"github.com/inodb/hg38genome/internal/kmer"
	"github.com/inodb/hg38genome/internal/reference"
)

// Errors surfaced by the facade. All are sentinel values from the
// underlying packages and can be matched with errors.Is.
var (
	ErrUnknownChromosome   = assembly.ErrUnknownChromosome
	ErrUnknownGroup        = assembly.ErrUnknownGroup
	ErrUnknownFeature      = features.ErrUnknownFeature
	ErrInvalidFeatureType  = features.ErrInvalidFeatureType
	ErrInvalidWindow       = interval.ErrInvalidWindow
	ErrInvalidK            = kmer.ErrInvalidK
	ErrInvalidBinSize      = features.ErrInvalidBinSize
	ErrSequenceUnavailable = reference.ErrSequenceUnavailable
	ErrNotImplemented      = features.ErrNotImplemented
	ErrOutOfRange          = reference.ErrOutOfRange
	ErrAssetMissing        = reference.ErrAssetMissing
)

// Query parameter types.
type (
	Options    = features.Options
	BinOptions = features.BinOptions
	Config     = features.Config
)

// Genome answers queries about hg38. The annotation tables are loaded on the
// first query that needs them and shared read-only afterwards; a Genome is
// safe for concurrent use.
type Genome struct {
	dataDir string
	workers int
	logger  *zap.Logger
	asm     *assembly.Assembly
	source  annotation.Source

	loadOnce sync.Once
	querier  *features.Querier
	loadErr  error

	// unbacked serves the members that have no data behind them, so they
	// fail with ErrNotImplemented without loading tables.
	unbacked *features.Querier

	refOnce sync.Once
	ref     reference.SequenceReader
	refErr  error
	opened  *reference.TwoBit
}

// Option configures a Genome.
type Option func(*Genome)

// WithDataDir sets the directory holding annotation tables and the
// reference. Defaults to ~/.hg38genome.
func WithDataDir(dir string) Option {
	return func(g *Genome) { g.dataDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Genome) { g.logger = l }
}

// WithTables sets the annotation table source, overriding the data
// directory lookup.
func WithTables(src annotation.Source) Option {
	return func(g *Genome) { g.source = src }
}

// WithReference sets the sequence reader, overriding the 2-bit file in the
// data directory.
func WithReference(r reference.SequenceReader) Option {
	return func(g *Genome) { g.ref = r }
}

// WithWorkers sets the kmer worker count. 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(g *Genome) { g.workers = n }
}

// New creates a Genome. Nothing is read from disk until a query needs it.
func New(opts ...Option) *Genome {
	asm := assembly.HG38()
	g := &Genome{
		dataDir:  reference.DefaultDir(),
		logger:   zap.NewNop(),
		asm:      asm,
		unbacked: features.NewQuerier(&annotation.Tables{}, asm),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Close releases the reference file if the Genome opened it.
func (g *Genome) Close() error {
	if g.opened != nil {
		return g.opened.Close()
	}
	return nil
}

// DataDir returns the data directory.
func (g *Genome) DataDir() string { return g.dataDir }

// Assembly returns the assembly metadata.
func (g *Genome) Assembly() *assembly.Assembly { return g.asm }

// Version returns the assembly name.
func (g *Genome) Version() string { return g.asm.Version() }

// NumBases returns the number of reference bases.
func (g *Genome) NumBases() int64 { return g.asm.NumBases() }

// NumCpGs returns the number of CpG sites in the reference.
func (g *Genome) NumCpGs() int64 { return g.asm.NumCpGs() }

// Chromosomes returns the chromosomes of a group in assembly order.
func (g *Genome) Chromosomes(group string) ([]string, error) {
	return g.asm.Chromosomes(group)
}

// LengthOf returns the length of chrom.
func (g *Genome) LengthOf(chrom string) (int64, error) {
	return g.asm.LengthOf(chrom)
}

// tables loads the annotation tables once.
func (g *Genome) tables() (*features.Querier, error) {
	g.loadOnce.Do(func() {
		src := g.source
		if src == nil {
			var err error
			src, err = annotation.DefaultSource(g.dataDir, g.asm, g.logger)
			if err != nil {
				g.loadErr = fmt.Errorf("%w: %w", ErrAssetMissing, err)
				return
			}
		}
		t, err := src.Load()
		if err != nil {
			g.loadErr = fmt.Errorf("load annotation tables: %w", err)
			return
		}
		g.querier = features.NewQuerier(t, g.asm)
		g.querier.SetLogger(g.logger)
	})
	return g.querier, g.loadErr
}

func (g *Genome) query(fn func(*features.Querier, Options) (*interval.Collection, error), opts Options) (*interval.Collection, error) {
	q, err := g.tables()
	if err != nil {
		return nil, err
	}
	return fn(q, opts)
}

// Exons returns one interval per exon of every matching transcript.
func (g *Genome) Exons(opts Options) (*interval.Collection, error) {
	return g.query((*features.Querier).Exons, opts)
}

// TSS returns transcription start sites.
func (g *Genome) TSS(opts Options) (*interval.Collection, error) {
	return g.query((*features.Querier).TSS, opts)
}

// TES returns transcription end sites.
func (g *Genome) TES(opts Options) (*interval.Collection, error) {
	return g.query((*features.Querier).TES, opts)
}

// Genes returns gene bodies.
func (g *Genome) Genes(opts Options) (*interval.Collection, error) {
	return g.query((*features.Querier).GeneBody, opts)
}

// Blacklist returns the blacklist regions.
func (g *Genome) Blacklist(opts Options) (*interval.Collection, error) {
	return g.query((*features.Querier).Blacklist, opts)
}

// BinBias returns fixed-size bins. It needs no annotation tables.
func (g *Genome) BinBias(opts BinOptions) (*interval.Collection, error) {
	return features.Bins(g.asm, opts)
}

// CpGIslands is not implemented.
func (g *Genome) CpGIslands(opts Options) (*interval.Collection, error) {
	return g.unbacked.CpGIslands(opts)
}

// TFBS is not implemented.
func (g *Genome) TFBS(opts Options) (*interval.Collection, error) {
	return g.unbacked.TFBS(opts)
}

// CTCF is not implemented.
func (g *Genome) CTCF(opts Options) (*interval.Collection, error) {
	return g.unbacked.CTCF(opts)
}

// Repeats is not implemented.
func (g *Genome) Repeats() (*interval.Collection, error) {
	return g.unbacked.Repeats()
}

// CpGs is not implemented.
func (g *Genome) CpGs(opts Options) (*interval.Collection, error) {
	return g.unbacked.CpGs(opts)
}

// CpGNames is not implemented.
func (g *Genome) CpGNames() ([]string, error) {
	return g.unbacked.CpGNames()
}

// GeneTypes returns the accepted gene type filter values.
func (g *Genome) GeneTypes() ([]string, error) {
	q, err := g.tables()
	if err != nil {
		return nil, err
	}
	return q.GeneTypes(), nil
}
