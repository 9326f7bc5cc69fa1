// Package main provides the hg38genome command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/hg38genome/internal/genome"
	"github.com/inodb/hg38genome/internal/reference"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config keys.
const (
	keyDataDir      = "data_dir"
	keyLogLevel     = "log.level"
	keyDownloadMode = "download.mode"
	configName      = ".hg38genome"
	envPrefix       = "HG38GENOME"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks argument errors that exit with ExitUsage.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command")
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// app carries state shared by subcommands after flag parsing.
type app struct {
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "hg38genome",
		Short: "hg38 reference genome metadata and annotation queries",
		Long: `Query hg38 assembly metadata, derived annotation intervals (exons, TSS,
TES, gene bodies, blacklist regions, GC-bias bins) and k-mer composition.

Annotation tables and the 2-bit reference are read from the data directory
(default ~/.hg38genome). Config is stored in ~/.hg38genome.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd); err != nil {
				return err
			}
			logger, err := newLogger(viper.GetString(keyLogLevel))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.logger.Sync()
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err}
	})
	cmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.hg38genome)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	viper.BindPFlag(keyDataDir, cmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag(keyLogLevel, cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newChromsCmd())
	cmd.AddCommand(newQueryCmd(a))
	cmd.AddCommand(newBinsCmd(a))
	cmd.AddCommand(newSequenceCmd(a))
	cmd.AddCommand(newKmersCmd(a))
	cmd.AddCommand(newDownloadCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// initConfig reads ~/.hg38genome.yaml and HG38GENOME_* environment
// variables. A missing config file is not an error.
func initConfig(cmd *cobra.Command) error {
	viper.SetDefault(keyLogLevel, "warn")
	viper.SetDefault(keyDownloadMode, reference.DefaultMode)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.ConfigFileUsed() != "" {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// dataDir returns the configured data directory.
func dataDir() string {
	if dir := viper.GetString(keyDataDir); dir != "" {
		return dir
	}
	return reference.DefaultDir()
}

// defaultConfigFile returns ~/.hg38genome.yaml.
func defaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func (a *app) newGenome() *genome.Genome {
	return genome.New(
		genome.WithDataDir(dataDir()),
		genome.WithLogger(a.logger),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hg38genome version %s (%s) built %s\n", version, commit, date)
		},
	}
}
