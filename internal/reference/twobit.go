package reference

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/aebruno/twobit"
)

// SequenceReader returns reference bases for half-open 0-based ranges.
type SequenceReader interface {
	Length(chrom string) (int64, error)
	Sequence(chrom string, start, end int64) ([]byte, error)
}

// TwoBit reads sequence from a 2-bit file. The underlying reader seeks, so
// reads are serialised with a mutex.
type TwoBit struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	reader *twobit.Reader
}

// OpenTwoBit opens the 2-bit file at path. A file that cannot be opened or
// has no valid header fails with ErrSequenceUnavailable.
func OpenTwoBit(path string) (*TwoBit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open 2bit: %w", ErrSequenceUnavailable, err)
	}
	r, err := twobit.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read 2bit header %s: %w", ErrSequenceUnavailable, path, err)
	}
	return &TwoBit{path: path, file: f, reader: r}, nil
}

// OpenDir resolves the hg38 2-bit file in dir and opens it. A missing file
// fails with both ErrSequenceUnavailable and ErrAssetMissing.
func OpenDir(dir string) (*TwoBit, error) {
	path, err := Resolve(dir, TwoBitFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSequenceUnavailable, err)
	}
	return OpenTwoBit(path)
}

// Path returns the file path.
func (t *TwoBit) Path() string { return t.path }

// Close closes the underlying file.
func (t *TwoBit) Close() error {
	return t.file.Close()
}

// Names returns the sequence names in the file, sorted.
func (t *TwoBit) Names() []string {
	t.mu.Lock()
	names := t.reader.Names()
	t.mu.Unlock()
	sort.Strings(names)
	return names
}

// Length returns the length of chrom.
func (t *TwoBit) Length(chrom string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, err := t.reader.Length(chrom)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSequenceUnavailable, chrom, err)
	}
	return int64(n), nil
}

// Sequence returns the upper-cased bases of [start, end) on chrom.
func (t *TwoBit) Sequence(chrom string, start, end int64) ([]byte, error) {
	length, err := t.Length(chrom)
	if err != nil {
		return nil, err
	}
	if start < 0 || end > length || start > end {
		return nil, fmt.Errorf("%w: %s:%d-%d (length %d)", ErrOutOfRange, chrom, start, end, length)
	}
	if start == end {
		return []byte{}, nil
	}

	t.mu.Lock()
	seq, err := t.reader.ReadRange(chrom, int(start), int(end))
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("read %s:%d-%d: %w", chrom, start, end, err)
	}
	return bytes.ToUpper(seq), nil
}
