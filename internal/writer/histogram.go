package writer

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/stats"
)

// AreaHistogramOptions configures the area histogram writer.
type AreaHistogramOptions struct {
	Output
	LabelKey string
	NumBins  int
	// Normalized divides every area by the image area.
	Normalized bool
	// ForceBBox uses the bounding box even when a polygon is present.
	ForceBBox bool
	AllLabel  string
}

// AreaHistogram bins object and layer areas per label.
type AreaHistogram struct {
	base
	opts AreaHistogramOptions
	hist *stats.AreaHistogram
}

// NewAreaHistogram creates an area histogram writer.
func NewAreaHistogram(opts AreaHistogramOptions, logger *slog.Logger) *AreaHistogram {
	if opts.LabelKey == "" {
		opts.LabelKey = annotation.DefaultLabelKey
	}
	if opts.NumBins == 0 {
		opts.NumBins = stats.DefaultNumBins
	}
	if opts.AllLabel == "" {
		opts.AllLabel = stats.DefaultAllLabel
	}
	return &AreaHistogram{base: newBase(opts.Output, logger), opts: opts}
}

// Initialize validates the options and resets the collected values.
func (w *AreaHistogram) Initialize() error {
	if err := w.checkOutput(); err != nil {
		return err
	}
	if w.opts.NumBins < 0 {
		return fmt.Errorf("%w: %d", stats.ErrInvalidBins, w.opts.NumBins)
	}
	w.hist = stats.NewAreaHistogram(w.opts.AllLabel, w.logger)
	return nil
}

// Write records the object areas of a detection record or the layer areas
// of a segmentation record.
func (w *AreaHistogram) Write(img *annotation.Image) error {
	imgArea := float64(img.Area())
	switch img.Kind {
	case annotation.KindDetection:
		for _, obj := range img.Detection.Objects {
			label, _ := obj.Label(w.opts.LabelKey)
			if err := w.add(label, annotation.AreaOf(obj, !w.opts.ForceBBox), imgArea); err != nil {
				return fmt.Errorf("%s: %w", img.Name, err)
			}
		}
	case annotation.KindSegmentation:
		for _, label := range img.Segmentation.Labels() {
			area := float64(img.Segmentation.Layers[label].CountNonZero())
			if err := w.add(label, area, imgArea); err != nil {
				return fmt.Errorf("%s: %w", img.Name, err)
			}
		}
	case annotation.KindClassification:
		w.skip(img, "classification records carry no areas")
	default:
		w.skip(img, "unsupported annotation kind")
	}
	return nil
}

func (w *AreaHistogram) add(label string, area, imgArea float64) error {
	if w.opts.Normalized {
		area /= imgArea
	}
	return w.hist.AddValue(label, area)
}

// Finalize renders the histograms.
func (w *AreaHistogram) Finalize() error {
	doc, err := w.hist.Document(w.opts.NumBins)
	if err != nil {
		return err
	}
	return w.emit(doc, nil)
}
