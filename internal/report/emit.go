package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Destination is where a report goes. The zero value means stdout.
type Destination struct {
	Path string
}

// Stdout returns the stdout destination.
func Stdout() Destination { return Destination{} }

// File returns a file destination; an empty path means stdout.
func File(path string) Destination { return Destination{Path: path} }

// IsStdout reports whether the destination is stdout.
func (d Destination) IsStdout() bool { return d.Path == "" }

func (d Destination) String() string {
	if d.IsStdout() {
		return "stdout"
	}
	return d.Path
}

// Emitter writes documents to their destination.
type Emitter struct {
	// Stdout receives reports for the stdout destination; nil means os.Stdout.
	Stdout io.Writer
	Logger *slog.Logger
}

// NewEmitter returns an emitter writing to os.Stdout.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{Stdout: os.Stdout, Logger: logger}
}

// Emit renders doc to dest. A file destination is created once, written in
// full and closed on every return path; a partially written file is left
// in place when rendering fails.
func (e *Emitter) Emit(doc *Document, format Format, dest Destination) (err error) {
	if dest.IsStdout() {
		out := e.Stdout
		if out == nil {
			out = os.Stdout
		}
		return Render(out, doc, format)
	}

	if !format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
	e.logger().Info("writing report", "kind", doc.Kind, "format", string(format), "path", dest.Path)
	f, err := os.Create(dest.Path) //nolint:gosec // G304: output path is user supplied
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Render(bw, doc, format); err != nil {
		_ = bw.Flush()
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func (e *Emitter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
