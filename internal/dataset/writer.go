package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// Writer appends records to a manifest, one JSON object per line.
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	count  int
}

// Create creates (or truncates) the manifest at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path) //nolint:gosec // G304: output path is user supplied
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// NewWriter writes a manifest to w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write appends img.
func (w *Writer) Write(img *annotation.Image) error {
	e, err := NewEntry(img)
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", img.Name, err)
	}
	data = append(data, '\n')
	if _, err := w.bw.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.count }

// Close flushes buffered records and closes the file, if Create opened one.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}
