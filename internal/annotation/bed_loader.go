package annotation

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/bed"
	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
)

// BEDLoader loads a region track from a BED file (3 to 6 columns).
type BEDLoader struct {
	path     string
	assembly *assembly.Assembly
	logger   *zap.Logger
}

// NewBEDLoader creates a loader for the BED file at path.
func NewBEDLoader(path string, asm *assembly.Assembly) *BEDLoader {
	return &BEDLoader{path: path, assembly: asm, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-row diagnostics.
func (l *BEDLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load reads all regions from the file.
func (l *BEDLoader) Load() ([]Region, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open BED file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseBED(reader)
}

// parseBED strips header lines, detects the column count from the first
// record and reads the records with the biogo BED reader.
func (l *BEDLoader) parseBED(reader io.Reader) ([]Region, error) {
	var body bytes.Buffer
	columns := 0

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}
		if columns == 0 {
			columns = min(len(strings.Split(line, "\t")), 6)
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan BED: %w", err)
	}
	if columns == 0 {
		return nil, nil
	}
	if columns < 3 {
		return nil, fmt.Errorf("invalid BED: expected at least 3 columns, got %d", columns)
	}

	r, err := bed.NewReader(&body, columns)
	if err != nil {
		return nil, fmt.Errorf("create BED reader: %w", err)
	}

	var regions []Region
	sc := featio.NewScanner(r)
	for sc.Next() {
		region := regionFromFeat(sc.Feat())
		region.Chrom = l.assembly.Normalize(region.Chrom)
		if !l.assembly.Has(region.Chrom) {
			l.logger.Debug("skipping BED row outside assembly", zap.String("chrom", region.Chrom))
			continue
		}
		regions = append(regions, region)
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("read BED: %w", err)
	}
	return regions, nil
}

func regionFromFeat(f any) Region {
	switch b := f.(type) {
	case *bed.Bed3:
		return Region{Chrom: b.Chrom, Start: int64(b.ChromStart), End: int64(b.ChromEnd)}
	case *bed.Bed4:
		return Region{Chrom: b.Chrom, Start: int64(b.ChromStart), End: int64(b.ChromEnd), Name: b.FeatName}
	case *bed.Bed5:
		return Region{Chrom: b.Chrom, Start: int64(b.ChromStart), End: int64(b.ChromEnd), Name: b.FeatName}
	case *bed.Bed6:
		return Region{
			Chrom:  b.Chrom,
			Start:  int64(b.ChromStart),
			End:    int64(b.ChromEnd),
			Name:   b.FeatName,
			Strand: interval.FromSeqStrand(b.FeatStrand),
		}
	}
	return Region{}
}
