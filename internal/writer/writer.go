// Package writer contains the stream hooks behind the statistics commands.
// A writer is initialised once, fed every record of a stream in order and
// finalised once, at which point it renders its report.
package writer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/report"
	"github.com/MeKo-Tech/imgstats/internal/stats"
)

var (
	// ErrNoOutputFormat is returned from Initialize when no format was selected.
	ErrNoOutputFormat = errors.New("no output format specified")
	// ErrNoLabels is returned from the pixel count writer without labels.
	ErrNoLabels = stats.ErrNoLabels
)

// Output selects the report destination and format.
type Output struct {
	// File is the output path; empty means stdout. It may contain the
	// {name} and {name_noext} placeholders.
	File   string
	Format report.Format
}

// base carries what every writer shares: logging, the emitter and the
// output selection.
type base struct {
	logger  *slog.Logger
	emitter *report.Emitter
	output  Output
}

func newBase(output Output, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{logger: logger, emitter: report.NewEmitter(logger), output: output}
}

// SetStdout redirects stdout reports to w.
func (b *base) SetStdout(w io.Writer) {
	b.emitter.Stdout = w
}

func (b *base) checkOutput() error {
	if b.output.Format == "" {
		return ErrNoOutputFormat
	}
	return nil
}

// emit renders doc to the output, expanding placeholders against img.
func (b *base) emit(doc *report.Document, img *annotation.Image) error {
	dest := report.File(ExpandPlaceholders(b.output.File, img))
	if err := b.emitter.Emit(doc, b.output.Format, dest); err != nil {
		return fmt.Errorf("failed to write %s report to %s: %w", doc.Kind, dest, err)
	}
	return nil
}

func (b *base) skip(img *annotation.Image, reason string) {
	b.logger.Warn("skipping record", "image", img.Name, "kind", img.Kind.String(), "reason", reason)
}

// ExpandPlaceholders replaces {name} with the image name and {name_noext}
// with the name without its extension. Without an image the path is
// returned unchanged.
func ExpandPlaceholders(path string, img *annotation.Image) string {
	if img == nil || !strings.Contains(path, "{") {
		return path
	}
	noExt := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	return strings.NewReplacer("{name}", img.Name, "{name_noext}", noExt).Replace(path)
}
