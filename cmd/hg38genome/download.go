package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/reference"
)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		yes  bool
		mode string
		url  string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the hg38 2-bit reference from UCSC",
		Long: fmt.Sprintf(`Download %s (%s) from UCSC into the data directory.

The sequence, kmers and related commands need this file. You are asked to
confirm before the download starts unless --yes is given.`, reference.TwoBitFile, reference.ApproxSize),
		Example: `  hg38genome download
  hg38genome download --yes --mode https
  hg38genome download --data-dir /data/hg38`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			destDir := dataDir()
			dest := filepath.Join(destDir, reference.TwoBitFile)

			if info, err := os.Stat(dest); err == nil {
				fmt.Fprintf(out, "%s already exists (%s), skipping\n", dest, reference.FormatSize(info.Size()))
				return nil
			}

			if url == "" {
				if mode == "" {
					mode = viper.GetString(keyDownloadMode)
				}
				var err error
				if url, err = reference.URL(mode, reference.Assembly); err != nil {
					return usageError{err}
				}
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), out,
					fmt.Sprintf("Would you like to download %s (%s). [Yes/No] ", reference.TwoBitFile, reference.ApproxSize))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Download cancelled.")
					return nil
				}
			}

			if err := os.MkdirAll(destDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", destDir, err)
			}

			fmt.Fprintf(out, "Downloading %s...\n", url)
			a.logger.Info("downloading reference", zap.String("url", url), zap.String("dest", dest))
			n, err := reference.Download(cmd.Context(), url, dest, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n    Done: %s\n", reference.FormatSize(n))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().StringVar(&mode, "mode", "", "Protocol: http or https (default from config, http)")
	cmd.Flags().StringVar(&url, "url", "", "Download from this URL instead of UCSC")
	cmd.Flags().MarkHidden("url")
	return cmd
}

// confirm asks prompt and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "YES", "Y":
		return true, nil
	}
	return false, nil
}
