package interval

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
)

// Collection is an ordered set of annotated intervals produced by a query.
// It is owned by the caller that received it and is not safe for concurrent
// mutation.
type Collection struct {
	items []AnnotatedInterval

	// trees indexes items per chromosome for bounding queries. Built on the
	// first Overlapping call, dropped by Add.
	trees map[string]*interval.IntTree
}

// NewCollection creates a collection holding items in the given order.
func NewCollection(items ...AnnotatedInterval) *Collection {
	c := &Collection{}
	c.items = append(c.items, items...)
	return c
}

// Add appends an interval.
func (c *Collection) Add(a AnnotatedInterval) {
	c.items = append(c.items, a)
	c.trees = nil
}

// Len returns the number of intervals.
func (c *Collection) Len() int { return len(c.items) }

// At returns the i-th interval.
func (c *Collection) At(i int) AnnotatedInterval { return c.items[i] }

// Intervals returns a copy of the intervals in collection order.
func (c *Collection) Intervals() []AnnotatedInterval {
	out := make([]AnnotatedInterval, len(c.items))
	copy(out, c.items)
	return out
}

// Chromosomes returns the distinct chromosomes in first-seen order.
func (c *Collection) Chromosomes() []string {
	seen := make(map[string]bool)
	var chroms []string
	for _, a := range c.items {
		if !seen[a.Chrom] {
			seen[a.Chrom] = true
			chroms = append(chroms, a.Chrom)
		}
	}
	return chroms
}

// Chrom returns a new collection with only the intervals on chrom.
func (c *Collection) Chrom(chrom string) *Collection {
	out := &Collection{}
	for _, a := range c.items {
		if a.Chrom == chrom {
			out.items = append(out.items, a)
		}
	}
	return out
}

// Dedup returns a new collection keeping only the first interval for each
// distinct key.
func (c *Collection) Dedup(key func(AnnotatedInterval) string) *Collection {
	seen := make(map[string]bool, len(c.items))
	out := &Collection{}
	for _, a := range c.items {
		k := key(a)
		if seen[k] {
			continue
		}
		seen[k] = true
		out.items = append(out.items, a)
	}
	return out
}

// ExtentKey identifies an interval by its coordinates and strand.
func ExtentKey(a AnnotatedInterval) string {
	return fmt.Sprintf("%s\x00%d\x00%d\x00%d", a.Chrom, a.Start, a.End, a.Strand)
}

// Columns returns the sorted union of metadata keys.
func (c *Collection) Columns() []string {
	set := make(map[string]bool)
	for _, a := range c.items {
		for k := range a.Fields {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Overlapping returns the intervals on chrom sharing at least one base with
// [start, end), in collection order.
func (c *Collection) Overlapping(chrom string, start, end int64) ([]AnnotatedInterval, error) {
	if c.trees == nil {
		if err := c.buildTrees(); err != nil {
			return nil, err
		}
	}
	tree, ok := c.trees[chrom]
	if !ok || start >= end {
		return nil, nil
	}

	hits := tree.Get(query{start: int(start), end: int(end)})
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		idx = append(idx, h.(entry).idx)
	}
	sort.Ints(idx)

	out := make([]AnnotatedInterval, len(idx))
	for i, j := range idx {
		out[i] = c.items[j]
	}
	return out, nil
}

func (c *Collection) buildTrees() error {
	trees := make(map[string]*interval.IntTree)
	for i, a := range c.items {
		tree, ok := trees[a.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			trees[a.Chrom] = tree
		}
		e := entry{idx: i, start: int(a.Start), end: int(a.End)}
		if err := tree.Insert(e, true); err != nil {
			return fmt.Errorf("index %s: %w", a.GenomicInterval, err)
		}
	}
	for _, tree := range trees {
		tree.AdjustRanges()
	}
	c.trees = trees
	return nil
}

// entry is a collection item stored in an IntTree.
type entry struct {
	idx        int
	start, end int
}

func (e entry) Overlap(b interval.IntRange) bool { return b.Start < e.end && e.start < b.End }
func (e entry) ID() uintptr                      { return uintptr(e.idx) }
func (e entry) Range() interval.IntRange         { return interval.IntRange{Start: e.start, End: e.end} }

// query is a half-open search range.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool { return b.Start < q.end && q.start < b.End }
