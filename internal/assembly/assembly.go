// Package assembly provides the fixed hg38 chromosome table and its groupings.
package assembly

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Errors returned by assembly lookups.
var (
	ErrUnknownChromosome = errors.New("unknown chromosome")
	ErrUnknownGroup      = errors.New("unknown chromosome group")
)

// Chromosome groups.
const (
	GroupAll       = "all"
	GroupMain      = "main"
	GroupAutosomes = "autosomes"
)

const (
	version  = "hg38"
	numBases = 3137161264
	numCpGs  = 28217448
)

//go:embed hg38.chrom.sizes
var chromSizes string

// Assembly is the read-only chromosome table of the reference assembly.
type Assembly struct {
	names   []string
	lengths map[string]int64
	index   map[string]int
	groups  map[string][]string
}

var (
	hg38     *Assembly
	hg38Once sync.Once
)

// HG38 returns the process-wide hg38 table. It is parsed once from the
// embedded chrom.sizes asset and never mutated afterwards.
func HG38() *Assembly {
	hg38Once.Do(func() {
		a, err := Parse(chromSizes)
		if err != nil {
			panic(fmt.Sprintf("assembly: embedded chrom sizes: %v", err))
		}
		hg38 = a
	})
	return hg38
}

// Parse builds an Assembly from chrom.sizes content (name<TAB>length per line).
// Line order is preserved as the order of the "all" group.
func Parse(content string) (*Assembly, error) {
	a := &Assembly{
		lengths: make(map[string]int64),
		index:   make(map[string]int),
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNum, len(fields))
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse length: %w", lineNum, err)
		}
		if length <= 0 {
			return nil, fmt.Errorf("line %d: non-positive length %d", lineNum, length)
		}
		if _, dup := a.lengths[fields[0]]; dup {
			return nil, fmt.Errorf("line %d: duplicate chromosome %s", lineNum, fields[0])
		}
		a.index[fields[0]] = len(a.names)
		a.names = append(a.names, fields[0])
		a.lengths[fields[0]] = length
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan chrom sizes: %w", err)
	}

	var main, autosomes []string
	for _, name := range a.names {
		if isMain(name) {
			main = append(main, name)
		}
		if isAutosome(name) {
			autosomes = append(autosomes, name)
		}
	}
	a.groups = map[string][]string{
		GroupAll:       a.names,
		GroupMain:      main,
		GroupAutosomes: autosomes,
	}
	return a, nil
}

// Version returns the assembly name.
func (a *Assembly) Version() string { return version }

// NumBases returns the number of bases in the reference.
func (a *Assembly) NumBases() int64 { return numBases }

// NumCpGs returns the number of CpG sites in the reference.
func (a *Assembly) NumCpGs() int64 { return numCpGs }

// LengthOf returns the length of a chromosome.
func (a *Assembly) LengthOf(chrom string) (int64, error) {
	length, ok := a.lengths[chrom]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChromosome, chrom)
	}
	return length, nil
}

// Has reports whether chrom is part of the assembly.
func (a *Assembly) Has(chrom string) bool {
	_, ok := a.lengths[chrom]
	return ok
}

// Rank returns the position of chrom in the "all" group, or -1.
func (a *Assembly) Rank(chrom string) int {
	if i, ok := a.index[chrom]; ok {
		return i
	}
	return -1
}

// Chromosomes returns the chromosome names of a group in assembly order.
// The returned slice is a copy; the cached group is never exposed.
func (a *Assembly) Chromosomes(group string) ([]string, error) {
	if group == "" {
		group = GroupAll
	}
	names, ok := a.groups[group]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

// IsMain reports whether chrom is one of chr1-22, chrX, chrY or chrM.
func (a *Assembly) IsMain(chrom string) bool {
	return a.Has(chrom) && isMain(chrom)
}

// IsAutosome reports whether chrom is one of chr1-22.
func (a *Assembly) IsAutosome(chrom string) bool {
	return a.Has(chrom) && isAutosome(chrom)
}

// Normalize maps Ensembl style names onto the UCSC names used by the table,
// e.g. "1" -> "chr1" and "MT" -> "chrM". Names already in the table, and
// names that cannot be mapped, are returned unchanged.
func (a *Assembly) Normalize(chrom string) string {
	if a.Has(chrom) {
		return chrom
	}
	name := chrom
	if !strings.HasPrefix(name, "chr") {
		name = "chr" + name
	}
	if name == "chrMT" {
		name = "chrM"
	}
	if a.Has(name) {
		return name
	}
	return chrom
}

func isAutosome(chrom string) bool {
	n, err := strconv.Atoi(strings.TrimPrefix(chrom, "chr"))
	if err != nil || !strings.HasPrefix(chrom, "chr") {
		return false
	}
	return n >= 1 && n <= 22
}

func isMain(chrom string) bool {
	switch chrom {
	case "chrX", "chrY", "chrM":
		return true
	}
	return isAutosome(chrom)
}
