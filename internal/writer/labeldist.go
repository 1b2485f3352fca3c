package writer

import (
	"log/slog"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/stats"
)

// LabelDistOptions configures the label distribution writer.
type LabelDistOptions struct {
	Output
	LabelKey    string
	Percentages bool
}

// LabelDist counts labels across classification, detection and
// segmentation records.
type LabelDist struct {
	base
	opts    LabelDistOptions
	counter *stats.LabelCounter
}

// NewLabelDist creates a label distribution writer.
func NewLabelDist(opts LabelDistOptions, logger *slog.Logger) *LabelDist {
	if opts.LabelKey == "" {
		opts.LabelKey = annotation.DefaultLabelKey
	}
	return &LabelDist{base: newBase(opts.Output, logger), opts: opts}
}

// Initialize validates the output and resets the counts.
func (w *LabelDist) Initialize() error {
	if err := w.checkOutput(); err != nil {
		return err
	}
	w.counter = stats.NewLabelCounter()
	return nil
}

// Write counts the labels of img.
func (w *LabelDist) Write(img *annotation.Image) error {
	switch img.Kind {
	case annotation.KindClassification:
		if img.Classification == nil || !img.Classification.HasLabel {
			w.skip(img, "no label")
			return nil
		}
		w.counter.Add(img.Classification.Label)
	case annotation.KindDetection:
		for _, obj := range img.Detection.Objects {
			if label, ok := obj.Label(w.opts.LabelKey); ok {
				w.counter.Add(label)
			}
		}
	case annotation.KindSegmentation:
		for _, label := range img.Segmentation.Labels() {
			w.counter.Add(label)
		}
	default:
		w.skip(img, "unsupported annotation kind")
	}
	return nil
}

// Finalize renders the distribution.
func (w *LabelDist) Finalize() error {
	doc, err := w.counter.Document(w.opts.Percentages)
	if err != nil {
		return err
	}
	return w.emit(doc, nil)
}
