package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// maxLineSize bounds a single manifest line.
const maxLineSize = 16 * 1024 * 1024

// Reader yields the records of one manifest in file order.
type Reader struct {
	name    string
	baseDir string
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	logger  *slog.Logger
}

// Open opens a manifest file. Mask paths resolve relative to its directory.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // G304: manifest path is user supplied
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	r := NewReader(f, filepath.Dir(path), logger)
	r.name = path
	r.closer = f
	return r, nil
}

// NewReader reads a manifest from rd, resolving mask paths against baseDir.
func NewReader(rd io.Reader, baseDir string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{name: "manifest", baseDir: baseDir, scanner: sc, logger: logger}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (*annotation.Image, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", r.name, r.line, err)
		}
		img, err := e.Image(r.baseDir)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", r.name, r.line, err)
		}
		r.logger.Debug("read record", "manifest", r.name, "line", r.line, "image", img.Name, "kind", img.Kind.String())
		return img, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.name, err)
	}
	return nil, io.EOF
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// MultiReader reads several manifests one after the other.
type MultiReader struct {
	paths   []string
	logger  *slog.Logger
	current *Reader
}

// OpenAll returns a reader over the manifests at paths, in order. Files are
// opened lazily.
func OpenAll(paths []string, logger *slog.Logger) *MultiReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiReader{paths: paths, logger: logger}
}

// Next returns the next record across all manifests, or io.EOF.
func (m *MultiReader) Next() (*annotation.Image, error) {
	for {
		if m.current == nil {
			if len(m.paths) == 0 {
				return nil, io.EOF
			}
			r, err := Open(m.paths[0], m.logger)
			if err != nil {
				return nil, err
			}
			m.logger.Info("reading manifest", "path", m.paths[0])
			m.paths = m.paths[1:]
			m.current = r
		}
		img, err := m.current.Next()
		if errors.Is(err, io.EOF) {
			if cerr := m.current.Close(); cerr != nil {
				return nil, cerr
			}
			m.current = nil
			continue
		}
		return img, err
	}
}

// Close closes the manifest currently being read.
func (m *MultiReader) Close() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}
