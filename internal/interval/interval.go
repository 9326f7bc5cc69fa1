// Package interval provides half-open genomic intervals, strand-aware window
// expansion and annotated interval collections.
package interval

import (
	"fmt"

	"github.com/biogo/biogo/seq"
)

// Strand is the orientation of an interval on the reference.
type Strand int8

const (
	Unknown Strand = 0
	Plus    Strand = 1
	Minus   Strand = -1
)

// ParseStrand converts a GTF/BED strand column to a Strand.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return Plus
	case "-":
		return Minus
	}
	return Unknown
}

// FromSeqStrand converts a biogo strand.
func FromSeqStrand(s seq.Strand) Strand {
	switch s {
	case seq.Plus:
		return Plus
	case seq.Minus:
		return Minus
	}
	return Unknown
}

func (s Strand) String() string {
	switch s {
	case Plus:
		return "+"
	case Minus:
		return "-"
	}
	return "."
}

// GenomicInterval is a 0-based half-open range [Start, End) on a chromosome.
type GenomicInterval struct {
	Chrom  string
	Start  int64
	End    int64
	Strand Strand
}

// Len returns the number of bases covered.
func (g GenomicInterval) Len() int64 { return g.End - g.Start }

// Overlaps reports whether two intervals share at least one base.
func (g GenomicInterval) Overlaps(o GenomicInterval) bool {
	return g.Chrom == o.Chrom && g.Start < o.End && o.Start < g.End
}

func (g GenomicInterval) String() string {
	return fmt.Sprintf("%s:%d-%d(%s)", g.Chrom, g.Start, g.End, g.Strand)
}

// AnnotatedInterval is a GenomicInterval carrying the metadata columns of
// the table it came from (gene_id, gene_type, name, ...).
type AnnotatedInterval struct {
	GenomicInterval
	Fields map[string]string
}

// Field returns a metadata value, or "" if unset.
func (a AnnotatedInterval) Field(key string) string {
	if a.Fields == nil {
		return ""
	}
	return a.Fields[key]
}
