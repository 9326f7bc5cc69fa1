package kmer

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/interval"
)

// SequenceSource returns reference bases for a half-open range.
type SequenceSource interface {
	Sequence(chrom string, start, end int64) ([]byte, error)
}

// Row is the composition of one input interval.
type Row struct {
	Interval interval.AnnotatedInterval
	Counts   []int // indexed like Table.Kmers
}

// Table holds kmer counts for a collection, one row per interval in input
// order.
type Table struct {
	K     int
	Kmers []string
	Rows  []Row
}

// Composer counts kmers over intervals using a pool of workers. Sequence
// reads happen on a single goroutine.
type Composer struct {
	source  SequenceSource
	workers int
	logger  *zap.Logger
}

// NewComposer creates a composer reading from source.
func NewComposer(source SequenceSource) *Composer {
	return &Composer{source: source, logger: zap.NewNop()}
}

// SetWorkers sets the worker count. 0 means runtime.NumCPU().
func (c *Composer) SetWorkers(n int) {
	c.workers = n
}

// SetLogger sets the logger.
func (c *Composer) SetLogger(l *zap.Logger) {
	c.logger = l
}

// workItem holds the bases of one interval ready for counting.
type workItem struct {
	seq   int
	iv    interval.AnnotatedInterval
	bases []byte
}

// workResult holds the counts for a single interval.
type workResult struct {
	seq int
	row Row
}

// Compose counts the kmers of every interval of coll. When lastN > 0 only
// the last lastN bases of each interval, in genomic orientation, are used.
// A read failure aborts the whole table.
func (c *Composer) Compose(coll *interval.Collection, k int, lastN int64) (*Table, error) {
	if err := ValidateK(k); err != nil {
		return nil, err
	}
	if lastN < 0 {
		return nil, fmt.Errorf("%w: lastN=%d", interval.ErrInvalidWindow, lastN)
	}

	workers := c.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan workItem, 2*workers)
	readErr := make(chan error, 1)
	go func() {
		defer close(items)
		readErr <- c.read(coll, lastN, items)
	}()

	results := count(items, k, workers)

	table := &Table{K: k, Kmers: Enumerate(k), Rows: make([]Row, 0, coll.Len())}
	orderedCollect(results, func(r workResult) {
		table.Rows = append(table.Rows, r.row)
	})

	if err := <-readErr; err != nil {
		return nil, err
	}
	c.logger.Debug("kmer composition",
		zap.Int("k", k),
		zap.Int64("last_n", lastN),
		zap.Int("intervals", len(table.Rows)),
		zap.Int("workers", workers))
	return table, nil
}

func (c *Composer) read(coll *interval.Collection, lastN int64, items chan<- workItem) error {
	for i, iv := range coll.Intervals() {
		start := iv.Start
		if lastN > 0 {
			start = max(iv.Start, iv.End-lastN)
		}
		bases, err := c.source.Sequence(iv.Chrom, start, iv.End)
		if err != nil {
			return fmt.Errorf("read %s:%d-%d: %w", iv.Chrom, start, iv.End, err)
		}
		items <- workItem{seq: i, iv: iv, bases: bases}
	}
	return nil
}

// count runs workers over items. Results arrive in completion order.
func count(items <-chan workItem, k, workers int) <-chan workResult {
	results := make(chan workResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- workResult{
					seq: item.seq,
					row: Row{Interval: item.iv, Counts: Count(item.bases, k)},
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence-number order,
// buffering out-of-order results until their turn. Blocks until results is
// closed.
func orderedCollect(results <-chan workResult, fn func(workResult)) {
	pending := make(map[int]workResult)
	next := 0

	for r := range results {
		pending[r.seq] = r
		for {
			rr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			fn(rr)
		}
	}
}
