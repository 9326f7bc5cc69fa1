package features

import (
	"fmt"

	"github.com/inodb/hg38genome/internal/interval"
)

// Tracks without a backing implementation. Their queries always fail with
// ErrNotImplemented and never return data.
const (
	FeatureCpGIslands = "CpG_islands"
	FeatureCTCF       = "CTCF"
	FeatureTFBS       = "tfbs"
	FeatureRepeats    = "repeats"
	FeatureCpGs       = "cpgs"
)

func notImplemented(feature string) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, feature)
}

// CpGIslands is not implemented.
func (q *Querier) CpGIslands(Options) (*interval.Collection, error) {
	return nil, notImplemented(FeatureCpGIslands)
}

// CTCF is not implemented.
func (q *Querier) CTCF(Options) (*interval.Collection, error) {
	return nil, notImplemented(FeatureCTCF)
}

// TFBS is not implemented.
func (q *Querier) TFBS(Options) (*interval.Collection, error) {
	return nil, notImplemented(FeatureTFBS)
}

// Repeats is not implemented.
func (q *Querier) Repeats() (*interval.Collection, error) {
	return nil, notImplemented(FeatureRepeats)
}

// CpGs is not implemented.
func (q *Querier) CpGs(Options) (*interval.Collection, error) {
	return nil, notImplemented(FeatureCpGs)
}

// CpGNames is not implemented.
func (q *Querier) CpGNames() ([]string, error) {
	return nil, notImplemented("cpg_names")
}
