package balance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProbability is returned for values that are not a usable
// probability.
var ErrInvalidProbability = errors.New("invalid probability")

// CorrectionTable maps a label to its probability of being kept.
type CorrectionTable map[string]float64

// Labels returns the labels of the table, sorted.
func (t CorrectionTable) Labels() []string {
	labels := make([]string, 0, len(t))
	for l := range t {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// LoadCorrectionTable reads a flat label → probability object from a JSON
// file, or from YAML for .yaml/.yml files. Probabilities may be numbers or
// numeric strings. Entries that do not parse are skipped with a warning; a
// file that cannot be read or is not an object is an error.
func LoadCorrectionTable(path string, logger *slog.Logger) (CorrectionTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: correction file path is user supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read correction file: %w", err)
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse correction file %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse correction file %s: %w", path, err)
		}
	}

	table := make(CorrectionTable, len(raw))
	for label, v := range raw {
		p, err := parseProbability(v)
		if err != nil {
			logger.Warn("failed to parse probability", "label", label, "value", fmt.Sprint(v), "error", err)
			continue
		}
		if p < 0 || p > 1 {
			logger.Warn("probability outside [0,1]", "label", label, "probability", p)
		}
		table[label] = p
	}
	return table, nil
}

func parseProbability(v any) (float64, error) {
	var p float64
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidProbability, x)
		}
		p = f
	case float64:
		p = x
	case int:
		p = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidProbability, x)
		}
		p = f
	default:
		return 0, fmt.Errorf("%w: unsupported value %v", ErrInvalidProbability, v)
	}
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%w: NaN", ErrInvalidProbability)
	}
	return p, nil
}
