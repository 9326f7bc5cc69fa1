// Package annotation loads the backing tables (genes, transcripts, exons,
// region tracks) that feature queries are computed from.
package annotation

import (
	"sort"

	"github.com/inodb/hg38genome/internal/interval"
)

// Gene is a gene body row. Coordinates are 0-based half-open.
type Gene struct {
	ID     string // GENCODE gene identifier (e.g., ENSG00000133703.14)
	Name   string // Gene symbol (e.g., KRAS)
	Type   string // Gene type (e.g., protein_coding)
	Chrom  string
	Start  int64
	End    int64
	Strand interval.Strand
}

// Transcript is a transcript row with its exons.
type Transcript struct {
	ID          string // GENCODE transcript ID, version and PAR suffix kept
	GeneID      string
	GeneName    string
	GeneType    string
	Biotype     string // Transcript type
	Chrom       string
	Start       int64
	End         int64
	Strand      interval.Strand
	IsCanonical bool
	Exons       []Exon // Sorted by genomic start
}

// Exon is a single exon within a transcript.
type Exon struct {
	Number int // Exon number in transcript order (1-based)
	Start  int64
	End    int64
}

// Region is a row of a BED-style track such as the blacklist.
type Region struct {
	Chrom  string
	Start  int64
	End    int64
	Strand interval.Strand
	Name   string
}

// Region track kinds.
const (
	TrackBlacklist = "blacklist"
)

// Tables holds every backing table. Once returned by a Source it is treated
// as immutable.
type Tables struct {
	Genes       []*Gene
	Transcripts []*Transcript
	Regions     map[string][]Region // keyed by track kind
}

// GeneTypes returns the distinct gene types present in the tables.
func (t *Tables) GeneTypes() map[string]bool {
	types := make(map[string]bool)
	for _, g := range t.Genes {
		if g.Type != "" {
			types[g.Type] = true
		}
	}
	for _, tr := range t.Transcripts {
		if tr.GeneType != "" {
			types[tr.GeneType] = true
		}
	}
	return types
}

// Ranker orders chromosomes; assembly.Assembly satisfies it.
type Ranker interface {
	Rank(chrom string) int
}

// Sort orders every table by assembly rank, start, end and identifier so
// that backing-table order is deterministic regardless of source.
func (t *Tables) Sort(r Ranker) {
	less := func(ca, cb string, sa, sb, ea, eb int64) (bool, bool) {
		if ca != cb {
			return r.Rank(ca) < r.Rank(cb), true
		}
		if sa != sb {
			return sa < sb, true
		}
		if ea != eb {
			return ea < eb, true
		}
		return false, false
	}

	sort.SliceStable(t.Genes, func(i, j int) bool {
		a, b := t.Genes[i], t.Genes[j]
		if v, ok := less(a.Chrom, b.Chrom, a.Start, b.Start, a.End, b.End); ok {
			return v
		}
		return a.ID < b.ID
	})
	sort.SliceStable(t.Transcripts, func(i, j int) bool {
		a, b := t.Transcripts[i], t.Transcripts[j]
		if v, ok := less(a.Chrom, b.Chrom, a.Start, b.Start, a.End, b.End); ok {
			return v
		}
		if a.GeneID != b.GeneID {
			return a.GeneID < b.GeneID
		}
		return a.ID < b.ID
	})
	for _, regions := range t.Regions {
		sort.SliceStable(regions, func(i, j int) bool {
			a, b := regions[i], regions[j]
			v, _ := less(a.Chrom, b.Chrom, a.Start, b.Start, a.End, b.End)
			return v
		})
	}
}

// fillMissingGenes synthesises gene rows for transcripts whose gene had no
// gene line, spanning the extent of its transcripts.
func (t *Tables) fillMissingGenes() {
	have := make(map[string]bool, len(t.Genes))
	for _, g := range t.Genes {
		have[g.ID] = true
	}

	synth := make(map[string]*Gene)
	var order []string
	for _, tr := range t.Transcripts {
		if tr.GeneID == "" || have[tr.GeneID] {
			continue
		}
		g, ok := synth[tr.GeneID]
		if !ok {
			g = &Gene{
				ID:     tr.GeneID,
				Name:   tr.GeneName,
				Type:   tr.GeneType,
				Chrom:  tr.Chrom,
				Start:  tr.Start,
				End:    tr.End,
				Strand: tr.Strand,
			}
			synth[tr.GeneID] = g
			order = append(order, tr.GeneID)
			continue
		}
		g.Start = min(g.Start, tr.Start)
		g.End = max(g.End, tr.End)
	}
	for _, id := range order {
		t.Genes = append(t.Genes, synth[id])
	}
}
