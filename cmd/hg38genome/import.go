package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/assembly"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		gtfPath       string
		blacklistPath string
		outputPath    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import GTF and blacklist BED files into a DuckDB store",
		Long: fmt.Sprintf(`Parse a GENCODE GTF and an optional blacklist BED file and write the
annotation tables to a DuckDB database. Queries read the store instead of
re-parsing the text files when %s exists in the data directory.

Without --gtf, the data directory is searched for *.gtf* and *blacklist*.bed*.`, annotation.StoreFileName),
		Example: `  hg38genome import
  hg38genome import --gtf gencode.v46.annotation.gtf.gz --blacklist hg38-blacklist.v2.bed.gz`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			dir := dataDir()

			files := annotation.Files{GTF: gtfPath, Blacklist: blacklistPath}
			if files.GTF == "" {
				found, ok := annotation.FindFiles(dir)
				if !ok {
					return usageError{fmt.Errorf("no GTF file in %s; pass --gtf", dir)}
				}
				files = found
				if blacklistPath != "" {
					files.Blacklist = blacklistPath
				}
			}
			if outputPath == "" {
				outputPath = filepath.Join(dir, annotation.StoreFileName)
			}

			fmt.Fprintf(out, "Importing annotation tables...\n")
			fmt.Fprintf(out, "  GTF:       %s\n", files.GTF)
			if files.Blacklist != "" {
				fmt.Fprintf(out, "  Blacklist: %s\n", files.Blacklist)
			}
			fmt.Fprintf(out, "  Output:    %s\n", outputPath)

			src := annotation.NewFileSource(files, assembly.HG38())
			src.SetLogger(a.logger)
			tables, err := src.Load()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return fmt.Errorf("cannot create directory: %w", err)
			}
			if _, err := os.Stat(outputPath); err == nil {
				if err := os.Remove(outputPath); err != nil {
					return fmt.Errorf("removing existing store: %w", err)
				}
			}

			store, err := annotation.OpenStore(outputPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Write(tables); err != nil {
				return err
			}
			counts, err := store.Counts()
			if err != nil {
				return err
			}
			a.logger.Info("import complete", zap.String("path", outputPath), zap.Any("counts", counts))

			fmt.Fprintf(out, "\nImport complete!\n")
			for _, table := range []string{"genes", "transcripts", "exons", "regions"} {
				fmt.Fprintf(out, "  %-12s %d\n", table+":", counts[table])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "GENCODE GTF file (.gtf or .gtf.gz)")
	cmd.Flags().StringVar(&blacklistPath, "blacklist", "", "Blacklist BED file (.bed or .bed.gz)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output DuckDB file (default: <data-dir>/"+annotation.StoreFileName+")")
	return cmd
}
