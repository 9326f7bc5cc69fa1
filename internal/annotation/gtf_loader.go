package annotation

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/interval"
)

// GTFLoader loads gene, transcript and exon rows from a GENCODE/Ensembl GTF.
type GTFLoader struct {
	path     string
	assembly *assembly.Assembly
	logger   *zap.Logger
}

// NewGTFLoader creates a new GTF loader. Rows on contigs that the assembly
// does not know are skipped.
func NewGTFLoader(path string, asm *assembly.Assembly) *GTFLoader {
	return &GTFLoader{path: path, assembly: asm, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-row diagnostics.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load parses the GTF file into t.
func (l *GTFLoader) Load(t *Tables) error {
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	// Handle gzipped files
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parseGTF(reader, t)
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64 // 0-based
	end         int64 // exclusive
	strand      interval.Strand
	attributes  map[string]string
}

// parseGTF parses GTF content, appending genes and transcripts to t.
func (l *GTFLoader) parseGTF(reader io.Reader, t *Tables) error {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	transcripts := make(map[string]*Transcript)
	var order []string
	exonsByTranscript := make(map[string][]Exon)
	skipped := make(map[string]int)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := l.parseLine(line)
		if err != nil {
			l.logger.Debug("skipping malformed GTF line", zap.Int("line", lineNum), zap.Error(err))
			continue
		}
		if !l.assembly.Has(feat.chrom) {
			skipped[feat.chrom]++
			continue
		}

		geneType := feat.attributes["gene_type"]
		if geneType == "" {
			geneType = feat.attributes["gene_biotype"]
		}

		switch feat.featureType {
		case "gene":
			t.Genes = append(t.Genes, &Gene{
				ID:     feat.attributes["gene_id"],
				Name:   feat.attributes["gene_name"],
				Type:   geneType,
				Chrom:  feat.chrom,
				Start:  feat.start,
				End:    feat.end,
				Strand: feat.strand,
			})

		case "transcript":
			id := feat.attributes["transcript_id"]
			key := stripVersion(id)
			if key == "" {
				continue
			}
			biotype := feat.attributes["transcript_type"]
			if biotype == "" {
				biotype = feat.attributes["transcript_biotype"]
			}
			if _, dup := transcripts[key]; !dup {
				order = append(order, key)
			}
			transcripts[key] = &Transcript{
				ID:          id,
				GeneID:      feat.attributes["gene_id"],
				GeneName:    feat.attributes["gene_name"],
				GeneType:    geneType,
				Biotype:     biotype,
				Chrom:       feat.chrom,
				Start:       feat.start,
				End:         feat.end,
				Strand:      feat.strand,
				IsCanonical: strings.Contains(feat.attributes["tag"], "Ensembl_canonical"),
			}

		case "exon":
			key := stripVersion(feat.attributes["transcript_id"])
			if key == "" {
				continue
			}
			exonNum, _ := strconv.Atoi(feat.attributes["exon_number"])
			exonsByTranscript[key] = append(exonsByTranscript[key], Exon{
				Number: exonNum,
				Start:  feat.start,
				End:    feat.end,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan GTF: %w", err)
	}

	for chrom, n := range skipped {
		l.logger.Debug("skipped rows on contig outside assembly", zap.String("chrom", chrom), zap.Int("rows", n))
	}

	for _, key := range order {
		tr := transcripts[key]
		exons := exonsByTranscript[key]
		sort.Slice(exons, func(i, j int) bool {
			return exons[i].Start < exons[j].Start
		})
		tr.Exons = exons
		t.Transcripts = append(t.Transcripts, tr)
	}

	return nil
}

// parseLine parses a single GTF line, converting 1-based inclusive
// coordinates to 0-based half-open.
func (l *GTFLoader) parseLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}
	if start < 1 || end < start {
		return nil, fmt.Errorf("invalid range %d-%d", start, end)
	}

	return &gtfFeature{
		chrom:       l.assembly.Normalize(fields[0]),
		featureType: fields[2],
		start:       start - 1,
		end:         end,
		strand:      interval.ParseStrand(fields[6]),
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys (tag) are joined with commas.
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"")

		if prev, exists := attrs[key]; exists {
			attrs[key] = prev + "," + value
			continue
		}
		attrs[key] = value
	}

	return attrs
}

// stripVersion removes the numeric version from an Ensembl ID and keeps any
// suffix after it, so the chrY copy of a PAR transcript stays distinct.
// e.g., "ENST00000456328.2" -> "ENST00000456328",
// "ENST00000244174.11_PAR_Y" -> "ENST00000244174_PAR_Y"
func stripVersion(id string) string {
	dot := strings.LastIndex(id, ".")
	if dot == -1 {
		return id
	}
	end := dot + 1
	for end < len(id) && id[end] >= '0' && id[end] <= '9' {
		end++
	}
	if end == dot+1 {
		return id
	}
	return id[:dot] + id[end:]
}
