package annotation

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/assembly"
)

// Source loads the backing tables. Loading is expected to be slow and is
// done at most once per genome facade.
type Source interface {
	Load() (*Tables, error)
}

// File names looked up in a data directory.
const (
	StoreFileName = "annotations.duckdb"
	gtfPattern    = "*.gtf*"
	bedPattern    = "*blacklist*.bed*"
)

// Files are the raw annotation files found in a data directory.
type Files struct {
	GTF       string
	Blacklist string
}

// FindFiles looks for a GTF and a blacklist BED file in dir.
// Returns the files and whether a GTF was found.
func FindFiles(dir string) (Files, bool) {
	var files Files

	matches, err := filepath.Glob(filepath.Join(dir, gtfPattern))
	if err != nil || len(matches) == 0 {
		return files, false
	}
	files.GTF = matches[0]

	matches, err = filepath.Glob(filepath.Join(dir, bedPattern))
	if err == nil && len(matches) > 0 {
		files.Blacklist = matches[0]
	}
	return files, true
}

// FileSource loads tables from a GTF and an optional blacklist BED file.
type FileSource struct {
	files    Files
	assembly *assembly.Assembly
	logger   *zap.Logger
}

// NewFileSource creates a source reading the given files.
func NewFileSource(files Files, asm *assembly.Assembly) *FileSource {
	return &FileSource{files: files, assembly: asm, logger: zap.NewNop()}
}

// SetLogger sets the logger passed on to the file loaders.
func (s *FileSource) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Load parses the files and returns sorted tables.
func (s *FileSource) Load() (*Tables, error) {
	t := &Tables{Regions: make(map[string][]Region)}

	if s.files.GTF != "" {
		gtf := NewGTFLoader(s.files.GTF, s.assembly)
		gtf.SetLogger(s.logger)
		if err := gtf.Load(t); err != nil {
			return nil, fmt.Errorf("load GTF: %w", err)
		}
		t.fillMissingGenes()
		s.logger.Info("loaded GTF",
			zap.String("path", s.files.GTF),
			zap.Int("genes", len(t.Genes)),
			zap.Int("transcripts", len(t.Transcripts)))
	}

	if s.files.Blacklist != "" {
		bl := NewBEDLoader(s.files.Blacklist, s.assembly)
		bl.SetLogger(s.logger)
		regions, err := bl.Load()
		if err != nil {
			return nil, fmt.Errorf("load blacklist: %w", err)
		}
		t.Regions[TrackBlacklist] = regions
		s.logger.Info("loaded blacklist", zap.String("path", s.files.Blacklist), zap.Int("regions", len(regions)))
	}

	t.Sort(s.assembly)
	return t, nil
}

// DefaultSource picks the annotation source for a data directory: the
// DuckDB store when present, otherwise the raw GTF/BED files.
func DefaultSource(dir string, asm *assembly.Assembly, logger *zap.Logger) (Source, error) {
	storePath := filepath.Join(dir, StoreFileName)
	if _, err := os.Stat(storePath); err == nil {
		return &storeSource{path: storePath, assembly: asm, logger: logger}, nil
	}

	files, found := FindFiles(dir)
	if !found {
		return nil, fmt.Errorf("no annotation tables in %s (expected %s or a GTF file)", dir, StoreFileName)
	}
	src := NewFileSource(files, asm)
	src.SetLogger(logger)
	return src, nil
}

// storeSource opens the DuckDB store only for the duration of Load.
type storeSource struct {
	path     string
	assembly *assembly.Assembly
	logger   *zap.Logger
}

func (s *storeSource) Load() (*Tables, error) {
	st, err := OpenStore(s.path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	t, err := st.Load()
	if err != nil {
		return nil, err
	}
	t.Sort(s.assembly)
	s.logger.Info("loaded annotation store",
		zap.String("path", s.path),
		zap.Int("genes", len(t.Genes)),
		zap.Int("transcripts", len(t.Transcripts)))
	return t, nil
}
