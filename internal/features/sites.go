package features

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/interval"
)

// siteKind selects which transcript boundary a site query derives.
type siteKind int

const (
	siteStart siteKind = iota // transcription start site
	siteEnd                   // transcription end site
)

func (k siteKind) String() string {
	if k == siteEnd {
		return "tes"
	}
	return "tss"
}

// sitePoint returns the 1 bp interval at the 5' (TSS) or 3' (TES) end of a
// transcript. Plus strand (and unknown) TSS is the first base, minus strand
// TSS the last base; TES is the opposite end.
func sitePoint(t *annotation.Transcript, kind siteKind) interval.GenomicInterval {
	fivePrime := t.Strand != interval.Minus
	if kind == siteEnd {
		fivePrime = !fivePrime
	}

	iv := interval.GenomicInterval{Chrom: t.Chrom, Strand: t.Strand}
	if fivePrime {
		iv.Start, iv.End = t.Start, t.Start+1
	} else {
		iv.Start, iv.End = t.End-1, t.End
	}
	return iv
}

// TSS returns the transcription start site of every matching transcript.
func (q *Querier) TSS(opts Options) (*interval.Collection, error) {
	return q.sites(opts, siteStart)
}

// TES returns the transcription end site of every matching transcript.
func (q *Querier) TES(opts Options) (*interval.Collection, error) {
	return q.sites(opts, siteEnd)
}

type site struct {
	point      interval.GenomicInterval
	transcript *annotation.Transcript
}

func (q *Querier) sites(opts Options, kind siteKind) (*interval.Collection, error) {
	if err := q.validate(opts); err != nil {
		return nil, err
	}

	var sites []site
	for _, t := range q.tables.Transcripts {
		if !q.matches(opts, t.Chrom, t.GeneType) {
			continue
		}
		sites = append(sites, site{point: sitePoint(t, kind), transcript: t})
	}

	if !opts.KeepDuplicates {
		sites = dedupSites(sites)
	}

	c := interval.NewCollection()
	for _, s := range sites {
		if err := q.add(c, opts, s.point, transcriptFields(s.transcript)); err != nil {
			return nil, err
		}
	}
	q.logger.Debug("site query",
		zap.Stringer("kind", kind),
		zap.String("chrom", opts.Chrom),
		zap.Bool("keep_duplicates", opts.KeepDuplicates),
		zap.Int("intervals", c.Len()))
	return c, nil
}

// dedupSites keeps one site per (gene, point). The representative is the
// transcript with the smallest (gene ID, transcript ID), independent of
// table order; it takes the slot of the first occurrence of its key.
func dedupSites(sites []site) []site {
	slot := make(map[string]int, len(sites))
	out := make([]site, 0, len(sites))
	for _, s := range sites {
		key := fmt.Sprintf("%s\x00%s", s.transcript.GeneID, interval.ExtentKey(interval.AnnotatedInterval{GenomicInterval: s.point}))
		i, seen := slot[key]
		if !seen {
			slot[key] = len(out)
			out = append(out, s)
			continue
		}
		if transcriptLess(s.transcript, out[i].transcript) {
			out[i] = s
		}
	}
	return out
}

func transcriptLess(a, b *annotation.Transcript) bool {
	if a.GeneID != b.GeneID {
		return a.GeneID < b.GeneID
	}
	return a.ID < b.ID
}
