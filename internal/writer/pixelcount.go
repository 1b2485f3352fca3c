package writer

import (
	"log/slog"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/stats"
)

// PixelCountOptions configures the pixel count writer.
type PixelCountOptions struct {
	Output
	Labels []string
	// PerImage renders a report after every record instead of once at the end.
	PerImage     bool
	SuppressPath bool
}

// PixelCount reports per-image pixel coverage of segmentation layers.
type PixelCount struct {
	base
	opts    PixelCountOptions
	counter *stats.PixelCounter
	last    *annotation.Image
}

// NewPixelCount creates a pixel count writer.
func NewPixelCount(opts PixelCountOptions, logger *slog.Logger) *PixelCount {
	return &PixelCount{base: newBase(opts.Output, logger), opts: opts}
}

// Initialize validates the options and resets the counts.
func (w *PixelCount) Initialize() error {
	if err := w.checkOutput(); err != nil {
		return err
	}
	counter, err := stats.NewPixelCounter(w.opts.Labels, w.opts.SuppressPath)
	if err != nil {
		return err
	}
	w.counter = counter
	w.last = nil
	return nil
}

// Write counts the requested layers of a segmentation record. In per-image
// mode the report is rendered and the counts reset right away.
func (w *PixelCount) Write(img *annotation.Image) error {
	switch img.Kind {
	case annotation.KindSegmentation:
		if err := w.counter.Add(img); err != nil {
			return err
		}
		w.last = img
	case annotation.KindClassification, annotation.KindDetection:
		w.skip(img, "pixel counts require segmentation layers")
		return nil
	default:
		w.skip(img, "unsupported annotation kind")
		return nil
	}

	if !w.opts.PerImage {
		return nil
	}
	defer w.counter.Reset()
	return w.emit(w.counter.Document(), img)
}

// Finalize renders the accumulated counts unless they were already written
// per image.
func (w *PixelCount) Finalize() error {
	if w.opts.PerImage {
		return nil
	}
	return w.emit(w.counter.Document(), w.last)
}
