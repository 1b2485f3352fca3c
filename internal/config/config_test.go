package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/report"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "label", cfg.LabelDist.LabelKey)
	assert.Equal(t, 20, cfg.AreaHistogram.NumBins)
	assert.Equal(t, "ALL", cfg.AreaHistogram.AllLabel)
	assert.Equal(t, "csv", cfg.ContourAreas.Format)
	assert.InDelta(t, 1.0, cfg.Balance.DefaultProbability, 0)
	assert.Empty(t, cfg.Output.Format, "statistics commands require an explicit format")
}

func TestValidate(t *testing.T) {
	lo, hi := 10.0, 5.0
	tests := map[string]func(*Config){
		"log level":      func(c *Config) { c.LogLevel = "trace" },
		"progress":       func(c *Config) { c.Progress = "bar" },
		"output format":  func(c *Config) { c.Output.Format = "xml" },
		"contour format": func(c *Config) { c.ContourAreas.Format = "yaml" },
		"bins":           func(c *Config) { c.AreaHistogram.NumBins = 0 },
		"all label":      func(c *Config) { c.AreaHistogram.AllLabel = "" },
		"area bounds":    func(c *Config) { c.ContourAreas.MinArea, c.ContourAreas.MaxArea = &lo, &hi },
		"probability":    func(c *Config) { c.Balance.DefaultProbability = 1.5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.File = "out/{name}.csv"
	cfg.PixelCount.Labels = []string{"weed"}
	cfg.PixelCount.PerImage = true

	pc := cfg.ToPixelCountOptions()
	assert.Equal(t, "out/{name}.csv", pc.File)
	assert.Equal(t, report.Format(""), pc.Format)
	assert.Equal(t, []string{"weed"}, pc.Labels)
	assert.True(t, pc.PerImage)

	assert.Equal(t, report.FormatCSV, cfg.ToContourAreasOptions().Format)
	cfg.Output.Format = "json"
	assert.Equal(t, report.FormatJSON, cfg.ToContourAreasOptions().Format)
	assert.Equal(t, report.FormatJSON, cfg.ToLabelDistOptions().Format)

	h := cfg.ToAreaHistogramOptions()
	assert.Equal(t, 20, h.NumBins)
	assert.Equal(t, "ALL", h.AllLabel)

	seed := int64(3)
	cfg.Balance.Seed = &seed
	cfg.Balance.DefaultProbability = 0.5
	b := cfg.ToBalanceOptions()
	require.NotNil(t, b.DefaultProbability)
	assert.InDelta(t, 0.5, *b.DefaultProbability, 0)
	assert.Equal(t, &seed, b.Seed)
}

func TestWriteDefaultConfig_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgstats.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	want := DefaultConfig()
	assert.Equal(t, want.LogLevel, cfg.LogLevel)
	assert.Equal(t, want.AreaHistogram, cfg.AreaHistogram)
	assert.Equal(t, want.LabelDist, cfg.LabelDist)
	assert.Equal(t, want.ContourAreas, cfg.ContourAreas)
	assert.Equal(t, want.Balance, cfg.Balance)

	assert.Error(t, WriteDefaultConfig(filepath.Join(t.TempDir(), "missing", "x.yaml")))
}
