package genome

import (
	"fmt"

	"github.com/inodb/hg38genome/internal/features"
	"github.com/inodb/hg38genome/internal/interval"
)

// Scope selects a feature registry.
type Scope string

// Registry scopes. Each scope resolves only its own feature names.
const (
	ScopeGeneInfo Scope = "gene_info" // exons, tss, tes, gene_body
	ScopeFeatures Scope = "features"  // CTCF, CpG_islands, blacklist
	ScopeCpG      Scope = "cpg"       // cpgs
	ScopeAll      Scope = "all"
)

// Registry returns the feature registry of scope. Building it loads
// nothing; backed features load the tables on their first query.
func (g *Genome) Registry(scope Scope) (*features.Registry, error) {
	switch scope {
	case ScopeGeneInfo:
		return features.GeneInfoRegistry(g.tables), nil
	case ScopeFeatures:
		return features.FeatureRegistry(g.tables), nil
	case ScopeCpG:
		return features.CpGRegistry(g.tables), nil
	case ScopeAll:
		return features.AllRegistry(g.tables), nil
	}
	return nil, fmt.Errorf("%w: registry scope %q", ErrUnknownFeature, scope)
}

// Dispatcher returns a dispatcher over the registry of scope, configured
// with cfg.
func (g *Genome) Dispatcher(scope Scope, cfg Config) (*features.Dispatcher, error) {
	reg, err := g.Registry(scope)
	if err != nil {
		return nil, err
	}
	return features.NewDispatcher(reg, cfg), nil
}

// Query resolves feature in the ScopeAll registry and runs it on chrom
// ("" for every chromosome).
func (g *Genome) Query(feature, chrom string, cfg Config) (*interval.Collection, error) {
	d, err := g.Dispatcher(ScopeAll, cfg)
	if err != nil {
		return nil, err
	}
	finder, err := d.Dispatch(feature)
	if err != nil {
		return nil, err
	}
	return finder.Query(chrom)
}
