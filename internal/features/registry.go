package features

import (
	"fmt"
	"sort"

	"github.com/inodb/hg38genome/internal/interval"
)

// QueryFunc computes a feature collection for the given options.
type QueryFunc func(Options) (*interval.Collection, error)

// Registry maps feature names to queries. It is built once from an explicit
// map and is read-only afterwards.
type Registry struct {
	name    string
	queries map[string]QueryFunc
}

// NewRegistry creates a registry. The map is copied.
func NewRegistry(name string, queries map[string]QueryFunc) *Registry {
	r := &Registry{name: name, queries: make(map[string]QueryFunc, len(queries))}
	for k, fn := range queries {
		r.queries[k] = fn
	}
	return r
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Lookup returns the query registered under feature.
func (r *Registry) Lookup(feature string) (QueryFunc, error) {
	fn, ok := r.queries[feature]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in %s registry (have %v)", ErrUnknownFeature, feature, r.name, r.Names())
	}
	return fn, nil
}

// Names returns the registered feature names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.queries))
	for k := range r.queries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Loader returns the querier behind a registry. Registries call it on
// each backed query, never at construction, so a registry can be built
// before any table is loaded.
type Loader func() (*Querier, error)

// Static returns a Loader for an already loaded querier.
func Static(q *Querier) Loader {
	return func() (*Querier, error) { return q, nil }
}

func backed(load Loader, fn func(*Querier, Options) (*interval.Collection, error)) QueryFunc {
	return func(opts Options) (*interval.Collection, error) {
		q, err := load()
		if err != nil {
			return nil, err
		}
		return fn(q, opts)
	}
}

// unbacked entries fail with ErrNotImplemented without calling the loader.
func unbacked(feature string) QueryFunc {
	return func(Options) (*interval.Collection, error) {
		return nil, notImplemented(feature)
	}
}

// GeneInfoRegistry holds the transcript-derived features.
func GeneInfoRegistry(load Loader) *Registry {
	return NewRegistry("gene info", map[string]QueryFunc{
		"exons":     backed(load, (*Querier).Exons),
		"tss":       backed(load, (*Querier).TSS),
		"tes":       backed(load, (*Querier).TES),
		"gene_body": backed(load, (*Querier).GeneBody),
	})
}

// FeatureRegistry holds region tracks.
func FeatureRegistry(load Loader) *Registry {
	return NewRegistry("feature", map[string]QueryFunc{
		FeatureCTCF:       unbacked(FeatureCTCF),
		FeatureCpGIslands: unbacked(FeatureCpGIslands),
		"blacklist":       backed(load, (*Querier).Blacklist),
	})
}

// CpGRegistry holds CpG site enumeration.
func CpGRegistry(Loader) *Registry {
	return NewRegistry("cpg", map[string]QueryFunc{
		FeatureCpGs: unbacked(FeatureCpGs),
	})
}

// AllRegistry holds every chromosome-keyed feature, for command line use.
func AllRegistry(load Loader) *Registry {
	return NewRegistry("all", map[string]QueryFunc{
		"exons":           backed(load, (*Querier).Exons),
		"tss":             backed(load, (*Querier).TSS),
		"tes":             backed(load, (*Querier).TES),
		"gene_body":       backed(load, (*Querier).GeneBody),
		"blacklist":       backed(load, (*Querier).Blacklist),
		FeatureCTCF:       unbacked(FeatureCTCF),
		FeatureCpGIslands: unbacked(FeatureCpGIslands),
		FeatureTFBS:       unbacked(FeatureTFBS),
		FeatureCpGs:       unbacked(FeatureCpGs),
	})
}

// Config is the padding and filter configuration bound into every Finder a
// Dispatcher hands out.
type Config struct {
	Upstream       int64
	Downstream     int64
	GeneType       string
	KeepDuplicates bool // zero value collapses duplicate TSS/TES
}

// Finder queries one feature, configured once, for any chromosome.
type Finder interface {
	// Query returns the feature collection on chrom ("" for all).
	Query(chrom string) (*interval.Collection, error)
}

// Dispatcher resolves feature names to configured Finders.
type Dispatcher struct {
	registry *Registry
	cfg      Config
}

// NewDispatcher creates a dispatcher over registry with a fixed configuration.
func NewDispatcher(registry *Registry, cfg Config) *Dispatcher {
	return &Dispatcher{registry: registry, cfg: cfg}
}

// Dispatch returns the Finder for feature. It fails with ErrUnknownFeature
// for unregistered names and ErrInvalidWindow for negative padding.
func (d *Dispatcher) Dispatch(feature string) (Finder, error) {
	fn, err := d.registry.Lookup(feature)
	if err != nil {
		return nil, err
	}
	if err := interval.ValidateWindow(d.cfg.Upstream, d.cfg.Downstream); err != nil {
		return nil, err
	}
	return &boundFinder{fn: fn, cfg: d.cfg}, nil
}

type boundFinder struct {
	fn  QueryFunc
	cfg Config
}

func (f *boundFinder) Query(chrom string) (*interval.Collection, error) {
	return f.fn(Options{
		Chrom:          chrom,
		Upstream:       f.cfg.Upstream,
		Downstream:     f.cfg.Downstream,
		GeneType:       f.cfg.GeneType,
		KeepDuplicates: f.cfg.KeepDuplicates,
	})
}
