package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/hg38genome/internal/annotation"
	"github.com/inodb/hg38genome/internal/assembly"
	"github.com/inodb/hg38genome/internal/features"
	"github.com/inodb/hg38genome/internal/genome"
	"github.com/inodb/hg38genome/internal/interval"
	"github.com/inodb/hg38genome/internal/output"
)

func newChromsCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "chroms",
		Short: "Print chromosome sizes",
		Example: `  hg38genome chroms                   # all 456 contigs
  hg38genome chroms --group main      # chr1-22, chrX, chrY, chrM
  hg38genome chroms --group autosomes`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := output.NewTabWriter(cmd.OutOrStdout())
			if err := w.WriteChromSizes(assembly.HG38(), group); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&group, "group", assembly.GroupAll, "Chromosome group: all, main or autosomes")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		chrom          string
		upstream       int64
		downstream     int64
		geneType       string
		keepDuplicates bool
	)

	cmd := &cobra.Command{
		Use:   "query <feature>",
		Short: "Query a feature interval collection",
		Long: `Query a feature interval collection and print it as tab-delimited
half-open 0-based intervals.

Features: exons, tss, tes, gene_body, blacklist, CTCF, CpG_islands, tfbs, cpgs.
Upstream and downstream padding follow the strand of each interval.`,
		Example: `  hg38genome query tss --chrom chr1 --upstream 1000 --downstream 1000
  hg38genome query exons --gene-type lncRNA
  hg38genome query blacklist`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.newGenome()
			defer g.Close()

			if chrom != "" {
				chrom = g.Assembly().Normalize(chrom)
			}
			c, err := g.Query(args[0], chrom, genome.Config{
				Upstream:       upstream,
				Downstream:     downstream,
				GeneType:       geneType,
				KeepDuplicates: keepDuplicates,
			})
			if err != nil {
				return err
			}

			w := output.NewTabWriter(cmd.OutOrStdout())
			if err := w.WriteCollection(c); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&chrom, "chrom", "", "Restrict to one chromosome (default: all)")
	cmd.Flags().Int64Var(&upstream, "upstream", 0, "Bases of upstream padding")
	cmd.Flags().Int64Var(&downstream, "downstream", 0, "Bases of downstream padding")
	cmd.Flags().StringVar(&geneType, "gene-type", features.GeneTypeAll, "Gene type filter, e.g. protein_coding")
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false, "Keep TSS/TES of transcripts sharing a site")
	return cmd
}

func newBinsCmd(a *app) *cobra.Command {
	var (
		binSize int64
		group   string
	)

	cmd := &cobra.Command{
		Use:   "bins",
		Short: "Print fixed-size genome bins",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.newGenome()
			c, err := g.BinBias(genome.BinOptions{BinSize: binSize, Group: group})
			if err != nil {
				return err
			}
			w := output.NewTabWriter(cmd.OutOrStdout())
			if err := w.WriteCollection(c); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().Int64Var(&binSize, "bin-size", features.DefaultBinSize, "Bin width in bases")
	cmd.Flags().StringVar(&group, "group", assembly.GroupAll, "Chromosome group: all, main or autosomes")
	return cmd
}

func newSequenceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "sequence <chrom> <start> <end>",
		Short:   "Print reference bases of a half-open 0-based range",
		Example: `  hg38genome sequence chr1 1000000 1000100`,
		Args:    usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return usageError{fmt.Errorf("invalid start %q: %w", args[1], err)}
			}
			end, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return usageError{fmt.Errorf("invalid end %q: %w", args[2], err)}
			}

			g := a.newGenome()
			defer g.Close()

			chrom := g.Assembly().Normalize(args[0])
			seq, err := g.Sequence(chrom, start, end)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), ">%s:%d-%d\n%s\n", chrom, start, end, seq)
			return err
		},
	}
}

func newKmersCmd(a *app) *cobra.Command {
	var (
		bedPath string
		k       int
		lastN   int64
		workers int
	)

	cmd := &cobra.Command{
		Use:   "kmers",
		Short: "Count k-mers of BED intervals",
		Long: `Count the k-mers of every interval of a BED file against the 2-bit
reference. Windows containing N are skipped. With --last-n only the last
N bases (in genomic orientation) of each interval are counted.`,
		Example: `  hg38genome kmers --bed peaks.bed -k 3
  hg38genome kmers --bed peaks.bed -k 2 --last-n 50`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bedPath == "" {
				return usageError{fmt.Errorf("--bed is required")}
			}

			g := genome.New(
				genome.WithDataDir(dataDir()),
				genome.WithLogger(a.logger),
				genome.WithWorkers(workers),
			)
			defer g.Close()

			loader := annotation.NewBEDLoader(bedPath, g.Assembly())
			loader.SetLogger(a.logger)
			regions, err := loader.Load()
			if err != nil {
				return err
			}

			table, err := g.Kmers(regionCollection(regions), k, lastN)
			if err != nil {
				return err
			}
			w := output.NewTabWriter(cmd.OutOrStdout())
			if err := w.WriteKmers(table); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bedPath, "bed", "", "BED file of intervals (required)")
	cmd.Flags().IntVarP(&k, "k", "k", 2, "k-mer length")
	cmd.Flags().Int64Var(&lastN, "last-n", 0, "Only count the last N bases of each interval (0 for all)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = all CPUs)")
	return cmd
}

// regionCollection converts BED regions into an interval collection,
// keeping the region name.
func regionCollection(regions []annotation.Region) *interval.Collection {
	c := interval.NewCollection()
	for _, r := range regions {
		var fields map[string]string
		if r.Name != "" {
			fields = map[string]string{"name": r.Name}
		}
		c.Add(interval.AnnotatedInterval{
			GenomicInterval: interval.GenomicInterval{Chrom: r.Chrom, Start: r.Start, End: r.End, Strand: r.Strand},
			Fields:          fields,
		})
	}
	return c
}
