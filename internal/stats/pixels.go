package stats

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/report"
)

// ErrNoLabels is returned when a pixel counter is created without labels.
var ErrNoLabels = errors.New("no labels specified")

// PixelCount is the coverage of one label in one image.
type PixelCount struct {
	Label      string
	Count      int
	Percentage float64
}

// ImagePixels holds the coverage of every requested label in one image.
type ImagePixels struct {
	Path   string
	Name   string
	Width  int
	Height int
	Labels []PixelCount
}

// PixelCounter records per-image pixel coverage for a fixed label list.
type PixelCounter struct {
	labels       []string
	suppressPath bool
	images       []ImagePixels
}

// NewPixelCounter creates a counter for labels, reported in the given order.
func NewPixelCounter(labels []string, suppressPath bool) (*PixelCounter, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return &PixelCounter{labels: append([]string(nil), labels...), suppressPath: suppressPath}, nil
}

// CountLabel returns the number of non-zero cells of mask and their share of
// a width×height image. A nil mask counts as empty.
func CountLabel(mask *annotation.Mask, width, height int) (int, float64, error) {
	total := width * height
	if total <= 0 {
		return 0, 0, fmt.Errorf("%w: image is %dx%d", ErrZeroArea, width, height)
	}
	count := mask.CountNonZero()
	return count, float64(count) / float64(total) * 100.0, nil
}

// Add records the coverage of every requested label in img. Labels without a
// layer report zero.
func (c *PixelCounter) Add(img *annotation.Image) error {
	if img.Segmentation == nil {
		return fmt.Errorf("%s: %w: no segmentation layers", img.Name, annotation.ErrInvalidImage)
	}
	entry := ImagePixels{
		Path:   img.SourcePath,
		Name:   img.Name,
		Width:  img.Width,
		Height: img.Height,
		Labels: make([]PixelCount, len(c.labels)),
	}
	for i, label := range c.labels {
		count, pct, err := CountLabel(img.Segmentation.Layers[label], img.Width, img.Height)
		if err != nil {
			return fmt.Errorf("%s: %w", img.Name, err)
		}
		entry.Labels[i] = PixelCount{Label: label, Count: count, Percentage: pct}
	}
	c.images = append(c.images, entry)
	return nil
}

// Reset drops all recorded images.
func (c *PixelCounter) Reset() { c.images = nil }

// Document renders one row per image with a count and a percentage column
// per label.
func (c *PixelCounter) Document() *report.Document {
	var cols []report.Column
	if !c.suppressPath {
		cols = append(cols, report.Column{Name: "path"})
	}
	cols = append(cols, report.Column{Name: "name"}, report.Column{Name: "width"}, report.Column{Name: "height"})
	for _, l := range c.labels {
		cols = append(cols, report.Column{Name: l + " - count"}, report.Column{Name: l + " - %"})
	}

	rows := make([][]any, len(c.images))
	for i, img := range c.images {
		row := make([]any, 0, len(cols))
		if !c.suppressPath {
			row = append(row, img.Path)
		}
		row = append(row, img.Name, img.Width, img.Height)
		for _, pc := range img.Labels {
			row = append(row, pc.Count, pc.Percentage)
		}
		rows[i] = row
	}

	images := c.images
	suppressPath := c.suppressPath
	return &report.Document{
		Kind:    "pixel-count",
		Columns: cols,
		Rows:    rows,
		Text: func(w io.Writer) error {
			var b strings.Builder
			indent := "  "
			if suppressPath {
				indent = ""
			}
			for _, img := range images {
				if !suppressPath {
					fmt.Fprintf(&b, "%s\n", img.Path)
				}
				fmt.Fprintf(&b, "%sname: %s\n", indent, img.Name)
				fmt.Fprintf(&b, "%swidth: %d\n", indent, img.Width)
				fmt.Fprintf(&b, "%sheight: %d\n", indent, img.Height)
				fmt.Fprintf(&b, "%slabels:\n", indent)
				for _, pc := range img.Labels {
					fmt.Fprintf(&b, "%s  %s: %d (%f%%)\n", indent, pc.Label, pc.Count, pc.Percentage)
				}
				b.WriteString("\n")
			}
			_, err := io.WriteString(w, b.String())
			return err
		},
	}
}
