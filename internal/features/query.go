// Package features computes feature interval collections (exons, TSS, TES,
// gene bodies, blacklist, bins) from the backing annotation tables.
package features

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
)

// Errors returned by feature queries.
var (
	ErrInvalidFeatureType = errors.New("invalid feature type")
	ErrNotImplemented     = errors.New("feature not implemented")
	ErrUnknownFeature     = errors.New("unknown feature")
	ErrInvalidBinSize     = errors.New("invalid bin size")
)

// GeneTypeAll disables gene type filtering.
const GeneTypeAll = "all"

// knownGeneTypes are the GENCODE gene types accepted even when the loaded
// table has no rows of that type.
var knownGeneTypes = []string{
	"protein_coding", "lncRNA", "miRNA", "misc_RNA", "snRNA", "snoRNA",
	"rRNA", "rRNA_pseudogene", "scaRNA", "scRNA", "sRNA", "ribozyme",
	"vault_RNA", "Mt_rRNA", "Mt_tRNA", "TEC", "artifact",
	"IG_C_gene", "IG_D_gene", "IG_J_gene", "IG_V_gene",
	"IG_C_pseudogene", "IG_J_pseudogene", "IG_V_pseudogene", "IG_pseudogene",
	"TR_C_gene", "TR_D_gene", "TR_J_gene", "TR_V_gene",
	"TR_J_pseudogene", "TR_V_pseudogene",
	"processed_pseudogene", "unprocessed_pseudogene", "transcribed_processed_pseudogene",
	"transcribed_unprocessed_pseudogene", "transcribed_unitary_pseudogene",
	"translated_processed_pseudogene", "translated_unprocessed_pseudogene",
	"unitary_pseudogene", "polymorphic_pseudogene", "pseudogene",
}

// Options are the shared parameters of the gene- and region-derived queries.
type Options struct {
	Chrom      string // empty for every chromosome
	Upstream   int64
	Downstream int64
	GeneType   string // empty or "all" for no filter
	// KeepDuplicates disables collapsing transcripts of one gene that share
	// the same derived TSS/TES point. Only TSS and TES use it.
	KeepDuplicates bool
}

// Querier runs feature queries against immutable tables. It holds no
// mutable state and is safe for concurrent use.
type Querier struct {
	tables    *annotation.Tables
	assembly  *assembly.Assembly
	geneTypes map[string]bool
	logger    *zap.Logger
}

// NewQuerier creates a querier over tables, which must not be mutated
// afterwards.
func NewQuerier(tables *annotation.Tables, asm *assembly.Assembly) *Querier {
	geneTypes := tables.GeneTypes()
	for _, gt := range knownGeneTypes {
		geneTypes[gt] = true
	}
	return &Querier{
		tables:    tables,
		assembly:  asm,
		geneTypes: geneTypes,
		logger:    zap.NewNop(),
	}
}

// SetLogger sets the logger for query diagnostics.
func (q *Querier) SetLogger(l *zap.Logger) {
	q.logger = l
}

// GeneTypes returns the accepted gene type filter values, sorted.
func (q *Querier) GeneTypes() []string {
	types := make([]string, 0, len(q.geneTypes)+1)
	types = append(types, GeneTypeAll)
	for gt := range q.geneTypes {
		types = append(types, gt)
	}
	sort.Strings(types[1:])
	return types
}

// validate checks the chromosome, window and gene type of opts.
func (q *Querier) validate(opts Options) error {
	if opts.Chrom != "" {
		if _, err := q.assembly.LengthOf(opts.Chrom); err != nil {
			return err
		}
	}
	if err := interval.ValidateWindow(opts.Upstream, opts.Downstream); err != nil {
		return err
	}
	if opts.GeneType != "" && opts.GeneType != GeneTypeAll && !q.geneTypes[opts.GeneType] {
		return fmt.Errorf("%w: gene type %q", ErrInvalidFeatureType, opts.GeneType)
	}
	return nil
}

func (q *Querier) matches(opts Options, chrom, geneType string) bool {
	if opts.Chrom != "" && chrom != opts.Chrom {
		return false
	}
	if opts.GeneType != "" && opts.GeneType != GeneTypeAll && geneType != opts.GeneType {
		return false
	}
	return true
}

// add expands iv with the request window and appends it to c.
func (q *Querier) add(c *interval.Collection, opts Options, iv interval.GenomicInterval, fields map[string]string) error {
	expanded, err := interval.Expand(iv, opts.Upstream, opts.Downstream, q.assembly)
	if err != nil {
		return err
	}
	c.Add(interval.AnnotatedInterval{GenomicInterval: expanded, Fields: fields})
	return nil
}

func geneFields(id, name, geneType string) map[string]string {
	return map[string]string{
		"gene_id":   id,
		"gene_name": name,
		"gene_type": geneType,
	}
}

func transcriptFields(t *annotation.Transcript) map[string]string {
	f := geneFields(t.GeneID, t.GeneName, t.GeneType)
	f["transcript_id"] = t.ID
	return f
}

// Exons returns one interval per exon of every matching transcript.
func (q *Querier) Exons(opts Options) (*interval.Collection, error) {
	if err := q.validate(opts); err != nil {
		return nil, err
	}

	c := interval.NewCollection()
	for _, t := range q.tables.Transcripts {
		if !q.matches(opts, t.Chrom, t.GeneType) {
			continue
		}
		for _, e := range t.Exons {
			fields := transcriptFields(t)
			fields["exon_number"] = fmt.Sprint(e.Number)
			iv := interval.GenomicInterval{Chrom: t.Chrom, Start: e.Start, End: e.End, Strand: t.Strand}
			if err := q.add(c, opts, iv, fields); err != nil {
				return nil, err
			}
		}
	}
	q.logger.Debug("exons query", zap.String("chrom", opts.Chrom), zap.Int("intervals", c.Len()))
	return c, nil
}

// GeneBody returns one interval per matching gene.
func (q *Querier) GeneBody(opts Options) (*interval.Collection, error) {
	if err := q.validate(opts); err != nil {
		return nil, err
	}

	c := interval.NewCollection()
	for _, g := range q.tables.Genes {
		if !q.matches(opts, g.Chrom, g.Type) {
			continue
		}
		iv := interval.GenomicInterval{Chrom: g.Chrom, Start: g.Start, End: g.End, Strand: g.Strand}
		if err := q.add(c, opts, iv, geneFields(g.ID, g.Name, g.Type)); err != nil {
			return nil, err
		}
	}
	q.logger.Debug("gene body query", zap.String("chrom", opts.Chrom), zap.Int("intervals", c.Len()))
	return c, nil
}

// Blacklist returns the blacklist regions.
func (q *Querier) Blacklist(opts Options) (*interval.Collection, error) {
	return q.regions(annotation.TrackBlacklist, opts)
}

func (q *Querier) regions(track string, opts Options) (*interval.Collection, error) {
	opts.GeneType = ""
	if err := q.validate(opts); err != nil {
		return nil, err
	}

	c := interval.NewCollection()
	for _, r := range q.tables.Regions[track] {
		if !q.matches(opts, r.Chrom, "") {
			continue
		}
		var fields map[string]string
		if r.Name != "" {
			fields = map[string]string{"name": r.Name}
		}
		iv := interval.GenomicInterval{Chrom: r.Chrom, Start: r.Start, End: r.End, Strand: r.Strand}
		if err := q.add(c, opts, iv, fields); err != nil {
			return nil, err
		}
	}
	return c, nil
}
