package writer

import (
	"log/slog"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/components"
	"github.com/MeKo-Tech/imgstats/internal/stats"
)

// ContourAreasOptions configures the contour area writer.
type ContourAreasOptions struct {
	Output
	Invert  bool
	MinArea *float64
	MaxArea *float64
}

// ContourAreas extracts connected regions from the binary mask and the
// segmentation layers of every record.
type ContourAreas struct {
	base
	opts      ContourAreasOptions
	collector *stats.ContourCollector
}

// NewContourAreas creates a contour area writer.
func NewContourAreas(opts ContourAreasOptions, logger *slog.Logger) *ContourAreas {
	return &ContourAreas{base: newBase(opts.Output, logger), opts: opts}
}

// Initialize validates the output and resets the collected regions.
func (w *ContourAreas) Initialize() error {
	if err := w.checkOutput(); err != nil {
		return err
	}
	w.collector = stats.NewContourCollector()
	return nil
}

// Write extracts regions from the record's masks.
func (w *ContourAreas) Write(img *annotation.Image) error {
	extract := components.Options{Invert: w.opts.Invert, MinArea: w.opts.MinArea, MaxArea: w.opts.MaxArea}

	switch img.Kind {
	case annotation.KindClassification, annotation.KindDetection:
		if img.Binary == nil {
			w.skip(img, "no binary mask")
			return nil
		}
		w.collector.Add(img.Name, stats.SourceImage, components.Extract(img.Binary, extract))
	case annotation.KindSegmentation:
		if img.Binary != nil {
			w.collector.Add(img.Name, stats.SourceImage, components.Extract(img.Binary, extract))
		}
		for _, label := range img.Segmentation.Labels() {
			w.collector.Add(img.Name, label, components.Extract(img.Segmentation.Layers[label], extract))
		}
	default:
		w.skip(img, "unsupported annotation kind")
	}
	return nil
}

// Finalize renders one row per region.
func (w *ContourAreas) Finalize() error {
	return w.emit(w.collector.Document(), nil)
}
