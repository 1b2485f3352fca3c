package stats

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/imgstats/internal/report"
)

const (
	// DefaultAllLabel is the display name of the merged bucket.
	DefaultAllLabel = "ALL"
	// DefaultNumBins is the default number of histogram bins.
	DefaultNumBins = 20

	// mergeKey is the internal key of the merged bucket; never a real label.
	mergeKey = ""

	barWidth = 40
)

var (
	// ErrInvalidBins is returned for a non-positive bin count.
	ErrInvalidBins = errors.New("number of bins must be positive")
	// ErrNonFiniteValue is returned when NaN or ±Inf is added to a histogram.
	ErrNonFiniteValue = errors.New("non-finite histogram value")
)

// Bin is one equal-width histogram bin. From is inclusive; To is exclusive
// except for the last bin.
type Bin struct {
	Index int
	From  float64
	To    float64
	Count int
}

// HistogramBucket is the histogram of one label.
type HistogramBucket struct {
	Label string
	Bins  []Bin
}

// AreaHistogram collects area values per label plus a merged bucket over all
// labelled values. Values recorded under the empty label only go to the
// merged bucket.
type AreaHistogram struct {
	allLabel string
	logger   *slog.Logger
	values   map[string][]float64
}

// NewAreaHistogram creates a histogram whose merged bucket is displayed as
// allLabel (DefaultAllLabel when empty).
func NewAreaHistogram(allLabel string, logger *slog.Logger) *AreaHistogram {
	if allLabel == "" {
		allLabel = DefaultAllLabel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AreaHistogram{allLabel: allLabel, logger: logger, values: make(map[string][]float64)}
}

// AddValue records v for label and for the merged bucket. Non-positive
// values are kept but logged.
func (h *AreaHistogram) AddValue(label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w (%s): %v", ErrNonFiniteValue, label, v)
	}
	if v <= 0 {
		h.logger.Warn("invalid area", "label", label, "value", v)
	}
	if label != mergeKey {
		h.values[mergeKey] = append(h.values[mergeKey], v)
	}
	h.values[label] = append(h.values[label], v)
	return nil
}

// Count returns the number of values recorded for label.
func (h *AreaHistogram) Count(label string) int {
	return len(h.values[label])
}

// Labels returns the real labels seen so far, sorted.
func (h *AreaHistogram) Labels() []string {
	labels := make([]string, 0, len(h.values))
	for l := range h.values {
		if l != mergeKey {
			labels = append(labels, l)
		}
	}
	slices.Sort(labels)
	return labels
}

// MergeLabel wraps base in underscores until it no longer collides with any
// of labels.
func MergeLabel(labels []string, base string) string {
	result := base
	for slices.Contains(labels, result) {
		result = "_" + result + "_"
	}
	return result
}

// Render bins every label into numBins equal-width bins over that label's
// own value range. The merged bucket comes first, then the real labels in
// ascending order. Each label is scaled independently, so bin i of two
// labels generally covers different ranges.
func (h *AreaHistogram) Render(numBins int) ([]HistogramBucket, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBins, numBins)
	}
	if len(h.values) == 0 {
		return nil, nil
	}

	labels := h.Labels()
	keys := append([]string{mergeKey}, labels...)
	mergeName := MergeLabel(labels, h.allLabel)

	out := make([]HistogramBucket, 0, len(keys))
	for _, k := range keys {
		name := k
		if k == mergeKey {
			name = mergeName
		}
		out = append(out, HistogramBucket{Label: name, Bins: binValues(h.values[k], numBins)})
	}
	return out, nil
}

// binValues computes numBins equal-width bins over [min, max] of values.
// A degenerate range is widened by 0.5 on each side. The maximum value falls
// into the last bin.
func binValues(values []float64, numBins int) []Bin {
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = floats.Min(values), floats.Max(values)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, numBins+1), lo, hi)
	edges[0], edges[numBins] = lo, hi

	counts := make([]float64, numBins)
	if len(values) > 0 {
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		dividers := slices.Clone(edges)
		// stat.Histogram treats the last divider as exclusive
		dividers[numBins] = math.Nextafter(hi, math.Inf(1))
		counts = stat.Histogram(counts, dividers, sorted, nil)
	}

	bins := make([]Bin, numBins)
	for i := range bins {
		bins[i] = Bin{Index: i, From: edges[i], To: edges[i+1], Count: int(counts[i])}
	}
	return bins
}

// Document renders the histograms with one row per label and bin. JSON
// nests the bins under their label and the text form draws a horizontal bar
// chart per label.
func (h *AreaHistogram) Document(numBins int) (*report.Document, error) {
	buckets, err := h.Render(numBins)
	if err != nil {
		return nil, err
	}

	var rows [][]any
	nested := make([]report.Record, len(buckets))
	for i, b := range buckets {
		bins := make([]report.Record, len(b.Bins))
		for j, bin := range b.Bins {
			rows = append(rows, []any{b.Label, bin.Index, bin.From, bin.To, bin.Count})
			bins[j] = report.Record{
				{Key: "bin", Value: bin.Index},
				{Key: "from", Value: bin.From},
				{Key: "to", Value: bin.To},
				{Key: "count", Value: bin.Count},
			}
		}
		nested[i] = report.Record{{Key: "label", Value: b.Label}, {Key: "bins", Value: bins}}
	}

	return &report.Document{
		Kind: "area-histogram",
		Columns: []report.Column{
			{Name: "label"}, {Name: "bin"}, {Name: "from"}, {Name: "to"}, {Name: "count"},
		},
		Rows: rows,
		Text: func(w io.Writer) error { return writeBarCharts(w, buckets) },
		JSON: nested,
	}, nil
}

func writeBarCharts(w io.Writer, buckets []HistogramBucket) error {
	var b strings.Builder
	for _, bucket := range buckets {
		b.WriteString(bucket.Label)
		b.WriteString(":\n\n")

		maxCount := 0
		fromW, toW := 0, 0
		for _, bin := range bucket.Bins {
			maxCount = max(maxCount, bin.Count)
			fromW = max(fromW, len(formatEdge(bin.From)))
			toW = max(toW, len(formatEdge(bin.To)))
		}
		for _, bin := range bucket.Bins {
			n := 0
			if maxCount > 0 {
				n = int(math.Round(float64(bin.Count) / float64(maxCount) * barWidth))
			}
			fmt.Fprintf(&b, "  %*s - %-*s | %s %d\n",
				fromW, formatEdge(bin.From), toW, formatEdge(bin.To), strings.Repeat("█", n), bin.Count)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatEdge(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
