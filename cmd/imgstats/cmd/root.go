package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/imgstats/internal/config"
	"github.com/MeKo-Tech/imgstats/internal/version"
)

// app is the state shared by one command tree: the viper instance the
// global flags are bound to, the loaded configuration and the logger.
type app struct {
	v       *viper.Viper
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the imgstats command tree. Every call returns an
// independent tree, so tests can execute commands side by side.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.loader = config.NewLoaderWithViper(a.v)

	rootCmd := &cobra.Command{
		Use:   "imgstats",
		Short: "Statistics and resampling for annotated image datasets",
		Long: `imgstats streams annotated image records (classification, object detection
and instance segmentation) from JSON-lines manifests and reports statistics
about them, or resamples them to correct label imbalance.

Reports are written as text, csv or json to stdout or a file; logs go to
stderr.

Examples:
  imgstats label-dist data/ --format csv
  imgstats area-histogram train.jsonl --format json --num-bins 10 --normalized
  imgstats pixel-count masks.jsonl --labels weed,crop --format csv --per-image -o 'out/{name_noext}.csv'
  imgstats contour-areas masks.jsonl --min-area 4
  imgstats balance-labels-ic train.jsonl -c corrections.yaml --seed 42 -o balanced.jsonl`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/imgstats, /etc/imgstats)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("metrics-file", "", "write run metrics in the Prometheus text format to this file")
	flags.String("progress", config.ProgressNone, "progress reporting on stderr (none, console, log)")
	flags.BoolP("recursive", "r", false, "search directory arguments recursively")
	flags.StringSlice("include", nil, "manifest patterns to include in directories (default *.jsonl, *.ndjson)")
	flags.StringSlice("exclude", nil, "manifest patterns to exclude in directories")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	for key, name := range map[string]string{
		"verbose":         "verbose",
		"log_level":       "log-level",
		"metrics_file":    "metrics-file",
		"progress":        "progress",
		"input.recursive": "recursive",
		"input.include":   "include",
		"input.exclude":   "exclude",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newLabelDistCommand(a),
		newAreaHistogramCommand(a),
		newPixelCountCommand(a),
		newContourAreasCommand(a),
		newBalanceCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure. SIGINT and
// SIGTERM cancel the run between two records.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	// Verbose wins over the log level.
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	// Stdout carries reports and manifests, so logs go to stderr.
	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(a.logger)

	if used := a.loader.GetConfigFileUsed(); used != "" {
		a.logger.Debug("configuration loaded", "file", used)
	}
	return nil
}
