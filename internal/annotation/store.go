package annotation

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/hg38genome/internal/interval"
)

// Store persists annotation tables in a DuckDB database so that the GTF
// only has to be parsed once.
type Store struct {
	db   *sqlx.DB
	path string
}

// OpenStore opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: sqlx.NewDb(db, "duckdb"), path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS genes (
			id VARCHAR,
			name VARCHAR,
			gene_type VARCHAR,
			chrom VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT
		);

		CREATE TABLE IF NOT EXISTS transcripts (
			id VARCHAR PRIMARY KEY,
			gene_id VARCHAR,
			gene_name VARCHAR,
			gene_type VARCHAR,
			biotype VARCHAR,
			chrom VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT,
			is_canonical BOOLEAN
		);

		CREATE TABLE IF NOT EXISTS exons (
			transcript_id VARCHAR,
			exon_number INTEGER,
			start BIGINT,
			end_ BIGINT
		);

		CREATE TABLE IF NOT EXISTS regions (
			track VARCHAR,
			chrom VARCHAR,
			start BIGINT,
			end_ BIGINT,
			strand TINYINT,
			name VARCHAR
		);
	`)
	return err
}

// Clear removes all rows from every table.
func (s *Store) Clear() error {
	for _, table := range []string{"genes", "transcripts", "exons", "regions"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Write inserts all tables in a single transaction.
func (s *Store) Write(t *Tables) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, g := range t.Genes {
		if _, err := tx.Exec(`INSERT INTO genes VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Type, g.Chrom, g.Start, g.End, int8(g.Strand)); err != nil {
			return fmt.Errorf("insert gene %s: %w", g.ID, err)
		}
	}

	for _, tr := range t.Transcripts {
		if _, err := tx.Exec(`INSERT INTO transcripts VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, tr.GeneID, tr.GeneName, tr.GeneType, tr.Biotype,
			tr.Chrom, tr.Start, tr.End, int8(tr.Strand), tr.IsCanonical); err != nil {
			return fmt.Errorf("insert transcript %s: %w", tr.ID, err)
		}
		for _, e := range tr.Exons {
			if _, err := tx.Exec(`INSERT INTO exons VALUES (?, ?, ?, ?)`,
				tr.ID, e.Number, e.Start, e.End); err != nil {
				return fmt.Errorf("insert exon: %w", err)
			}
		}
	}

	for track, regions := range t.Regions {
		for _, r := range regions {
			if _, err := tx.Exec(`INSERT INTO regions VALUES (?, ?, ?, ?, ?, ?)`,
				track, r.Chrom, r.Start, r.End, int8(r.Strand), r.Name); err != nil {
				return fmt.Errorf("insert region: %w", err)
			}
		}
	}

	return tx.Commit()
}

type geneRow struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Type   string `db:"gene_type"`
	Chrom  string `db:"chrom"`
	Start  int64  `db:"start"`
	End    int64  `db:"end_"`
	Strand int8   `db:"strand"`
}

type transcriptRow struct {
	ID          string `db:"id"`
	GeneID      string `db:"gene_id"`
	GeneName    string `db:"gene_name"`
	GeneType    string `db:"gene_type"`
	Biotype     string `db:"biotype"`
	Chrom       string `db:"chrom"`
	Start       int64  `db:"start"`
	End         int64  `db:"end_"`
	Strand      int8   `db:"strand"`
	IsCanonical bool   `db:"is_canonical"`
}

type exonRow struct {
	TranscriptID string `db:"transcript_id"`
	Number       int    `db:"exon_number"`
	Start        int64  `db:"start"`
	End          int64  `db:"end_"`
}

type regionRow struct {
	Track  string `db:"track"`
	Chrom  string `db:"chrom"`
	Start  int64  `db:"start"`
	End    int64  `db:"end_"`
	Strand int8   `db:"strand"`
	Name   string `db:"name"`
}

var (
	geneQuery = sq.Select("id", "name", "gene_type", "chrom", "start", "end_", "strand").
			From("genes").OrderBy("chrom", "start", "id")
	transcriptQuery = sq.Select("id", "gene_id", "gene_name", "gene_type", "biotype",
		"chrom", "start", "end_", "strand", "is_canonical").
		From("transcripts").OrderBy("chrom", "start", "gene_id", "id")
	exonQuery = sq.Select("transcript_id", "exon_number", "start", "end_").
			From("exons").OrderBy("transcript_id", "start")
	regionQuery = sq.Select("track", "chrom", "start", "end_", "strand", "name").
			From("regions").OrderBy("track", "chrom", "start")
)

// selectRows runs a squirrel builder and scans the rows into dest.
func (s *Store) selectRows(dest any, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return s.db.Select(dest, query, args...)
}

// Load reads every table. The caller sorts by assembly order.
func (s *Store) Load() (*Tables, error) {
	var genes []geneRow
	if err := s.selectRows(&genes, geneQuery); err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	var transcripts []transcriptRow
	if err := s.selectRows(&transcripts, transcriptQuery); err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	var exons []exonRow
	if err := s.selectRows(&exons, exonQuery); err != nil {
		return nil, fmt.Errorf("query exons: %w", err)
	}
	var regions []regionRow
	if err := s.selectRows(&regions, regionQuery); err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}

	t := &Tables{Regions: make(map[string][]Region)}
	for _, g := range genes {
		t.Genes = append(t.Genes, &Gene{
			ID: g.ID, Name: g.Name, Type: g.Type,
			Chrom: g.Chrom, Start: g.Start, End: g.End,
			Strand: interval.Strand(g.Strand),
		})
	}

	exonsByTranscript := make(map[string][]Exon)
	for _, e := range exons {
		exonsByTranscript[e.TranscriptID] = append(exonsByTranscript[e.TranscriptID],
			Exon{Number: e.Number, Start: e.Start, End: e.End})
	}
	for _, r := range transcripts {
		t.Transcripts = append(t.Transcripts, &Transcript{
			ID: r.ID, GeneID: r.GeneID, GeneName: r.GeneName, GeneType: r.GeneType,
			Biotype: r.Biotype, Chrom: r.Chrom, Start: r.Start, End: r.End,
			Strand: interval.Strand(r.Strand), IsCanonical: r.IsCanonical,
			Exons: exonsByTranscript[r.ID],
		})
	}

	for _, r := range regions {
		t.Regions[r.Track] = append(t.Regions[r.Track], Region{
			Chrom: r.Chrom, Start: r.Start, End: r.End,
			Strand: interval.Strand(r.Strand), Name: r.Name,
		})
	}
	return t, nil
}

// Counts returns the number of rows per table.
func (s *Store) Counts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"genes", "transcripts", "exons", "regions"} {
		var n int
		query, _, err := sq.Select("COUNT(*)").From(table).ToSql()
		if err != nil {
			return nil, err
		}
		if err := s.db.Get(&n, query); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
