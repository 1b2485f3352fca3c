//nolint:lll
package config

// Config represents the complete configuration for imgstats.
// It includes settings for all commands (label-dist, area-histogram,
// pixel-count, contour-areas, balance-labels-ic) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose     bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
	Progress    string `mapstructure:"progress" yaml:"progress" json:"progress"`

	// Input discovery
	Input InputConfig `mapstructure:"input" yaml:"input" json:"input"`

	// Report output shared by the statistics commands
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Per-command settings
	LabelDist     LabelDistConfig     `mapstructure:"label_dist" yaml:"label_dist" json:"label_dist"`
	AreaHistogram AreaHistogramConfig `mapstructure:"area_histogram" yaml:"area_histogram" json:"area_histogram"`
	PixelCount    PixelCountConfig    `mapstructure:"pixel_count" yaml:"pixel_count" json:"pixel_count"`
	ContourAreas  ContourAreasConfig  `mapstructure:"contour_areas" yaml:"contour_areas" json:"contour_areas"`
	Balance       BalanceConfig       `mapstructure:"balance" yaml:"balance" json:"balance"`
}

// InputConfig controls how manifests are discovered from directory arguments.
type InputConfig struct {
	Recursive bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include   []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// OutputConfig selects where and how a report is written. An empty file
// means stdout; an empty format is rejected when the writer initialises.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// LabelDistConfig contains label distribution settings.
type LabelDistConfig struct {
	LabelKey    string `mapstructure:"label_key" yaml:"label_key" json:"label_key"`
	Percentages bool   `mapstructure:"percentages" yaml:"percentages" json:"percentages"`
}

// AreaHistogramConfig contains area histogram settings.
type AreaHistogramConfig struct {
	LabelKey   string `mapstructure:"label_key" yaml:"label_key" json:"label_key"`
	NumBins    int    `mapstructure:"num_bins" yaml:"num_bins" json:"num_bins"`
	Normalized bool   `mapstructure:"normalized" yaml:"normalized" json:"normalized"`
	ForceBBox  bool   `mapstructure:"force_bbox" yaml:"force_bbox" json:"force_bbox"`
	AllLabel   string `mapstructure:"all_label" yaml:"all_label" json:"all_label"`
}

// PixelCountConfig contains pixel count settings.
type PixelCountConfig struct {
	Labels       []string `mapstructure:"labels" yaml:"labels" json:"labels"`
	PerImage     bool     `mapstructure:"per_image" yaml:"per_image" json:"per_image"`
	SuppressPath bool     `mapstructure:"suppress_path" yaml:"suppress_path" json:"suppress_path"`
}

// ContourAreasConfig contains region extraction settings. Absent bounds
// leave that side of the area filter open.
type ContourAreasConfig struct {
	Format  string   `mapstructure:"format" yaml:"format" json:"format"`
	Invert  bool     `mapstructure:"invert" yaml:"invert" json:"invert"`
	MinArea *float64 `mapstructure:"min_area" yaml:"min_area,omitempty" json:"min_area,omitempty"`
	MaxArea *float64 `mapstructure:"max_area" yaml:"max_area,omitempty" json:"max_area,omitempty"`
}

// BalanceConfig contains label balancer settings.
type BalanceConfig struct {
	CorrectionFile     string  `mapstructure:"correction_file" yaml:"correction_file" json:"correction_file"`
	Seed               *int64  `mapstructure:"seed" yaml:"seed,omitempty" json:"seed,omitempty"`
	DefaultProbability float64 `mapstructure:"default_probability" yaml:"default_probability" json:"default_probability"`
	// Output is the manifest the kept records are written to; empty means stdout.
	Output string `mapstructure:"output" yaml:"output" json:"output"`
}
