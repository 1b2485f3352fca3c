// Package stats holds the accumulators behind the statistics commands.
//
// Each accumulator is created once per stream, updated once per record and
// turned into a report.Document at the end of the stream. None of them are
// safe for concurrent use.
package stats

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/MeKo-Tech/imgstats/internal/report"
)

// ErrZeroArea is returned when a percentage would be computed over an empty
// total.
var ErrZeroArea = errors.New("percentage over zero total")

// LabelCount is one entry of a label distribution.
type LabelCount struct {
	Label string
	Count int
}

// LabelCounter counts label occurrences.
type LabelCounter struct {
	counts map[string]int
}

// NewLabelCounter returns an empty counter.
func NewLabelCounter() *LabelCounter {
	return &LabelCounter{counts: make(map[string]int)}
}

// Add increments the count of label.
func (c *LabelCounter) Add(label string) {
	c.counts[label]++
}

func (c *LabelCounter) total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot returns the counts sorted ascending by label.
func (c *LabelCounter) Snapshot() []LabelCount {
	labels := make([]string, 0, len(c.counts))
	for l := range c.counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	out := make([]LabelCount, len(labels))
	for i, l := range labels {
		out[i] = LabelCount{Label: l, Count: c.counts[l]}
	}
	return out
}

// Percentages returns the share of every label in snapshot order. The total
// is taken over the full snapshot.
func (c *LabelCounter) Percentages() ([]float64, error) {
	snap := c.Snapshot()
	if len(snap) == 0 {
		return nil, nil
	}
	total := c.total()
	if total == 0 {
		return nil, fmt.Errorf("label distribution: %w", ErrZeroArea)
	}
	out := make([]float64, len(snap))
	for i, lc := range snap {
		out[i] = float64(lc.Count) / float64(total) * 100.0
	}
	return out, nil
}

// Document renders the distribution, as counts or as percentages.
func (c *LabelCounter) Document(percentages bool) (*report.Document, error) {
	snap := c.Snapshot()
	valueCol := report.Column{Name: "Count", Key: "count"}
	var pct []float64
	if percentages {
		valueCol = report.Column{Name: "Percent", Key: "percent"}
		var err error
		if pct, err = c.Percentages(); err != nil {
			return nil, err
		}
	}

	rows := make([][]any, len(snap))
	for i, lc := range snap {
		if percentages {
			rows[i] = []any{lc.Label, pct[i]}
		} else {
			rows[i] = []any{lc.Label, lc.Count}
		}
	}

	return &report.Document{
		Kind:    "label-dist",
		Columns: []report.Column{{Name: "Label", Key: "label"}, valueCol},
		Rows:    rows,
		Text: func(w io.Writer) error {
			for _, row := range rows {
				var err error
				if percentages {
					_, err = fmt.Fprintf(w, "%s: %f\n", row[0], row[1])
				} else {
					_, err = fmt.Fprintf(w, "%s: %d\n", row[0], row[1])
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}, nil
}
