// Package output provides tab-delimited formatters for interval collections,
// kmer tables and chromosome sizes.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
	"github.com/inodb/hg38genome/internal/kmer"
)

// coordColumns lead every interval row.
var coordColumns = []string{"#chrom", "start", "end", "strand"}

// TabWriter writes intervals in tab-delimited format. Coordinates are
// half-open 0-based, as in BED.
type TabWriter struct {
	w       *bufio.Writer
	columns []string // metadata columns after the coordinates
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// SetColumns sets the metadata columns written after the coordinates.
func (tw *TabWriter) SetColumns(columns []string) {
	tw.columns = columns
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	cols := append(append([]string{}, coordColumns...), tw.columns...)
	return tw.writeRow(cols)
}

// WriteInterval writes a single interval. Missing metadata is written as "-".
func (tw *TabWriter) WriteInterval(a interval.AnnotatedInterval) error {
	values := make([]string, 0, len(coordColumns)+len(tw.columns))
	values = append(values,
		a.Chrom,
		strconv.FormatInt(a.Start, 10),
		strconv.FormatInt(a.End, 10),
		a.Strand.String(),
	)
	for _, col := range tw.columns {
		v := a.Field(col)
		if v == "" {
			v = "-"
		}
		values = append(values, v)
	}
	return tw.writeRow(values)
}

// WriteCollection writes a header with the collection's metadata columns
// followed by every interval.
func (tw *TabWriter) WriteCollection(c *interval.Collection) error {
	tw.SetColumns(c.Columns())
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, a := range c.Intervals() {
		if err := tw.WriteInterval(a); err != nil {
			return err
		}
	}
	return nil
}

// WriteKmers writes one row per interval with a count column per kmer.
func (tw *TabWriter) WriteKmers(t *kmer.Table) error {
	tw.SetColumns(nil)
	header := append(append([]string{}, coordColumns...), t.Kmers...)
	if err := tw.writeRow(header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		iv := row.Interval
		values := make([]string, 0, len(coordColumns)+len(row.Counts))
		values = append(values,
			iv.Chrom,
			strconv.FormatInt(iv.Start, 10),
			strconv.FormatInt(iv.End, 10),
			iv.Strand.String(),
		)
		for _, n := range row.Counts {
			values = append(values, strconv.Itoa(n))
		}
		if err := tw.writeRow(values); err != nil {
			return err
		}
	}
	return nil
}

// WriteChromSizes writes name and length of every chromosome in group, in
// chrom.sizes format without a header.
func (tw *TabWriter) WriteChromSizes(asm *assembly.Assembly, group string) error {
	names, err := asm.Chromosomes(group)
	if err != nil {
		return err
	}
	for _, name := range names {
		length, err := asm.LengthOf(name)
		if err != nil {
			return err
		}
		if err := tw.writeRow([]string{name, strconv.FormatInt(length, 10)}); err != nil {
			return err
		}
	}
	return nil
}

func (tw *TabWriter) writeRow(values []string) error {
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
