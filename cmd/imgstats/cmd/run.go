package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/imgstats/internal/config"
	"github.com/MeKo-Tech/imgstats/internal/dataset"
	"github.com/MeKo-Tech/imgstats/internal/pipeline"
	"github.com/MeKo-Tech/imgstats/internal/report"
	"github.com/MeKo-Tech/imgstats/internal/writer"
)

// ErrNoManifests is returned when the arguments name no manifest at all.
var ErrNoManifests = errors.New("no manifests found")

// reportWriter is a statistics writer whose stdout can be redirected.
type reportWriter interface {
	pipeline.Writer
	SetStdout(w io.Writer)
}

// openSource reads stdin when no argument (or "-") is given, otherwise the
// manifests named by args, expanding directories.
func (a *app) openSource(cmd *cobra.Command, args []string) (pipeline.Source, func() error, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		a.logger.Debug("reading manifest from stdin")
		return dataset.NewReader(cmd.InOrStdin(), ".", a.logger), func() error { return nil }, nil
	}

	in := a.cfg.Input
	files, err := dataset.Discover(args, in.Recursive, in.Include, in.Exclude)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, ErrNoManifests
	}
	a.logger.Debug("discovered manifests", "count", len(files))
	src := dataset.OpenAll(files, a.logger)
	return src, src.Close, nil
}

func (a *app) newRunner(cmd *cobra.Command, command string) *pipeline.Runner {
	r := &pipeline.Runner{Logger: a.logger}
	if a.cfg.MetricsFile != "" {
		r.Metrics = pipeline.NewMetrics(command)
	}
	switch a.cfg.Progress {
	case config.ProgressConsole:
		console := pipeline.NewConsoleProgress(cmd.ErrOrStderr(), command+": ")
		if a.cfg.Verbose {
			multi := pipeline.NewMultiProgress(console)
			multi.Add(pipeline.NewLogProgress(a.logger, slog.LevelDebug))
			r.Progress = multi
		} else {
			r.Progress = console
		}
	case config.ProgressLog:
		r.Progress = pipeline.NewLogProgress(a.logger, slog.LevelInfo)
	}
	return r
}

// runReport streams the input through a statistics writer.
func (a *app) runReport(cmd *cobra.Command, args []string, command string, w reportWriter) (err error) {
	w.SetStdout(cmd.OutOrStdout())

	src, closeSrc, err := a.openSource(cmd, args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSrc(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	r := a.newRunner(cmd, command)
	summary, runErr := r.Run(cmd.Context(), src, w)
	return a.finish(r, command, summary, runErr)
}

// finish logs the summary and writes the metrics file, also after a failed run.
func (a *app) finish(r *pipeline.Runner, command string, s pipeline.Summary, runErr error) error {
	if runErr == nil {
		a.logger.Info("run completed",
			"command", command,
			"records", s.Read,
			"elapsed", s.Elapsed.Round(time.Millisecond),
		)
	}
	if a.cfg.MetricsFile != "" {
		if err := r.Metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", command, runErr)
	}
	return nil
}

// addOutputFlags registers --format and --output on a report command.
func addOutputFlags(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringP("format", "f", defaultFormat, "report format (text, csv, json)")
	cmd.Flags().StringP("output", "o", "", "report file; may contain {name} and {name_noext} (default stdout)")
}

// applyOutputFlags lets changed flags override the configured output. The
// flag default fills in a format the configuration leaves empty.
func applyOutputFlags(cmd *cobra.Command, out *writer.Output) {
	if cmd.Flags().Changed("format") || out.Format == "" {
		format, _ := cmd.Flags().GetString("format")
		out.Format = report.Format(format)
	}
	if cmd.Flags().Changed("output") {
		out.File, _ = cmd.Flags().GetString("output")
	}
}
