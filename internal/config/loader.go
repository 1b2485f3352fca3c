package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "imgstats"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "IMGSTATS"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader over the global viper instance, which is the
// one cobra flags are bound to.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader over v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from the first config file found in the search
// paths, environment variables and defaults. A missing config file is fine.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// setupEnvironmentVariables configures environment variable handling:
// IMGSTATS_AREA_HISTOGRAM_NUM_BINS maps to area_histogram.num_bins.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Keys without a default are unknown to AutomaticEnv.
	for _, key := range []string{"contour_areas.min_area", "contour_areas.max_area", "balance.seed"} {
		_ = l.v.BindEnv(key)
	}
}

// setDefaults sets default values for all configuration options. Optional
// pointer values (seed, area bounds) have no default so they stay nil.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("metrics_file", defaults.MetricsFile)
	l.v.SetDefault("progress", defaults.Progress)

	l.v.SetDefault("input.recursive", defaults.Input.Recursive)
	l.v.SetDefault("input.include", defaults.Input.Include)
	l.v.SetDefault("input.exclude", defaults.Input.Exclude)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)

	l.v.SetDefault("label_dist.label_key", defaults.LabelDist.LabelKey)
	l.v.SetDefault("label_dist.percentages", defaults.LabelDist.Percentages)

	l.v.SetDefault("area_histogram.label_key", defaults.AreaHistogram.LabelKey)
	l.v.SetDefault("area_histogram.num_bins", defaults.AreaHistogram.NumBins)
	l.v.SetDefault("area_histogram.normalized", defaults.AreaHistogram.Normalized)
	l.v.SetDefault("area_histogram.force_bbox", defaults.AreaHistogram.ForceBBox)
	l.v.SetDefault("area_histogram.all_label", defaults.AreaHistogram.AllLabel)

	l.v.SetDefault("pixel_count.labels", defaults.PixelCount.Labels)
	l.v.SetDefault("pixel_count.per_image", defaults.PixelCount.PerImage)
	l.v.SetDefault("pixel_count.suppress_path", defaults.PixelCount.SuppressPath)

	l.v.SetDefault("contour_areas.format", defaults.ContourAreas.Format)
	l.v.SetDefault("contour_areas.invert", defaults.ContourAreas.Invert)

	l.v.SetDefault("balance.correction_file", defaults.Balance.CorrectionFile)
	l.v.SetDefault("balance.default_probability", defaults.Balance.DefaultProbability)
	l.v.SetDefault("balance.output", defaults.Balance.Output)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	paths = append(paths, filepath.Join("/etc", ConfigFileName))

	return paths
}
