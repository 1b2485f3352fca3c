package config

import (
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/balance"
	"github.com/MeKo-Tech/imgstats/internal/report"
	"github.com/MeKo-Tech/imgstats/internal/stats"
	"github.com/MeKo-Tech/imgstats/internal/writer"
)

// Progress reporter names.
const (
	ProgressNone    = "none"
	ProgressConsole = "console"
	ProgressLog     = "log"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Progress: ProgressNone,
		Input: InputConfig{
			Recursive: false,
		},
		LabelDist: LabelDistConfig{
			LabelKey: annotation.DefaultLabelKey,
		},
		AreaHistogram: AreaHistogramConfig{
			LabelKey: annotation.DefaultLabelKey,
			NumBins:  stats.DefaultNumBins,
			AllLabel: stats.DefaultAllLabel,
		},
		ContourAreas: ContourAreasConfig{
			Format: string(report.FormatCSV),
		},
		Balance: BalanceConfig{
			DefaultProbability: balance.DefaultProbability,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validProgress := []string{ProgressNone, ProgressConsole, ProgressLog}
	if c.Progress != "" && !slices.Contains(validProgress, c.Progress) {
		return fmt.Errorf("invalid progress reporter: %s (must be one of: %s)", c.Progress, strings.Join(validProgress, ", "))
	}

	if err := validateFormat(c.Output.Format, "output.format"); err != nil {
		return err
	}
	if err := validateFormat(c.ContourAreas.Format, "contour_areas.format"); err != nil {
		return err
	}

	if c.AreaHistogram.NumBins <= 0 {
		return fmt.Errorf("invalid area_histogram.num_bins: %d (must be positive)", c.AreaHistogram.NumBins)
	}
	if c.AreaHistogram.AllLabel == "" {
		return fmt.Errorf("invalid area_histogram.all_label: must not be empty")
	}

	if lo, hi := c.ContourAreas.MinArea, c.ContourAreas.MaxArea; lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("invalid contour_areas bounds: min_area %g exceeds max_area %g", *lo, *hi)
	}

	p := c.Balance.DefaultProbability
	if math.IsNaN(p) || p < 0.0 || p > 1.0 {
		return fmt.Errorf("invalid balance.default_probability: %.2f (must be between 0.0 and 1.0)", p)
	}

	return nil
}

// validateFormat accepts an empty format; writers reject it later when
// a report is actually requested.
func validateFormat(format, name string) error {
	if format == "" {
		return nil
	}
	if _, err := report.ParseFormat(format); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

func (c *Config) output(format string) writer.Output {
	return writer.Output{File: c.Output.File, Format: report.Format(format)}
}

// ToLabelDistOptions converts the config to label-dist writer options.
func (c *Config) ToLabelDistOptions() writer.LabelDistOptions {
	return writer.LabelDistOptions{
		Output:      c.output(c.Output.Format),
		LabelKey:    c.LabelDist.LabelKey,
		Percentages: c.LabelDist.Percentages,
	}
}

// ToAreaHistogramOptions converts the config to area-histogram writer options.
func (c *Config) ToAreaHistogramOptions() writer.AreaHistogramOptions {
	return writer.AreaHistogramOptions{
		Output:     c.output(c.Output.Format),
		LabelKey:   c.AreaHistogram.LabelKey,
		NumBins:    c.AreaHistogram.NumBins,
		Normalized: c.AreaHistogram.Normalized,
		ForceBBox:  c.AreaHistogram.ForceBBox,
		AllLabel:   c.AreaHistogram.AllLabel,
	}
}

// ToPixelCountOptions converts the config to pixel-count writer options.
func (c *Config) ToPixelCountOptions() writer.PixelCountOptions {
	return writer.PixelCountOptions{
		Output:       c.output(c.Output.Format),
		Labels:       c.PixelCount.Labels,
		PerImage:     c.PixelCount.PerImage,
		SuppressPath: c.PixelCount.SuppressPath,
	}
}

// ToContourAreasOptions converts the config to contour-areas writer
// options. The shared output format wins over the command default.
func (c *Config) ToContourAreasOptions() writer.ContourAreasOptions {
	format := c.Output.Format
	if format == "" {
		format = c.ContourAreas.Format
	}
	return writer.ContourAreasOptions{
		Output:  c.output(format),
		Invert:  c.ContourAreas.Invert,
		MinArea: c.ContourAreas.MinArea,
		MaxArea: c.ContourAreas.MaxArea,
	}
}

// ToBalanceOptions converts the config to balancer options.
func (c *Config) ToBalanceOptions() balance.Options {
	p := c.Balance.DefaultProbability
	return balance.Options{
		CorrectionFile:     c.Balance.CorrectionFile,
		Seed:               c.Balance.Seed,
		DefaultProbability: &p,
	}
}

// WriteDefaultConfig writes the default configuration as YAML to path.
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
