// Package dataset reads and writes JSON-lines manifests of annotated images.
//
// Every non-empty line of a manifest is one record:
//
//	{"name":"a.png","path":"img/a.png","width":640,"height":480,"kind":"ic","label":"cat"}
//	{"name":"b.png","width":640,"height":480,"kind":"od","objects":[{"x":1,"y":2,"width":30,"height":40,"metadata":{"label":"dog"}}]}
//	{"name":"c.png","width":640,"height":480,"kind":"is","layers":{"weed":"masks/c-weed.png"},"binary":"masks/c.png"}
//
// Mask paths are resolved relative to the manifest. Lines starting with '#'
// are comments.
package dataset

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

var (
	// ErrUnsupportedRecord is returned when a record cannot be written back.
	ErrUnsupportedRecord = errors.New("record cannot be written to a manifest")
	// ErrDuplicateLayer is returned when two layer keys of a record
	// normalise to the same label.
	ErrDuplicateLayer = errors.New("duplicate layer label")
)

// Entry is the manifest form of one record.
type Entry struct {
	Name    string            `json:"name"`
	Path    string            `json:"path,omitempty"`
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Kind    string            `json:"kind"`
	Label   *string           `json:"label,omitempty"`
	Objects []ObjectEntry     `json:"objects,omitempty"`
	Layers  map[string]string `json:"layers,omitempty"`
	Binary  string            `json:"binary,omitempty"`
}

// ObjectEntry is the manifest form of one detected object.
type ObjectEntry struct {
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Polygon  [][2]float64      `json:"polygon,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Image converts the entry, loading masks relative to baseDir.
func (e *Entry) Image(baseDir string) (*annotation.Image, error) {
	kind, err := annotation.ParseKind(e.Kind)
	if err != nil {
		return nil, err
	}
	img := &annotation.Image{
		Name:       e.Name,
		SourcePath: e.Path,
		Width:      e.Width,
		Height:     e.Height,
		Kind:       kind,
	}
	if img.Name == "" && e.Path != "" {
		img.Name = filepath.Base(e.Path)
	}

	switch kind {
	case annotation.KindClassification:
		img.Classification = &annotation.Classification{}
		if e.Label != nil {
			img.Classification = annotation.NewLabel(normalizeLabel(*e.Label))
		}
	case annotation.KindDetection:
		img.Detection = &annotation.Detection{Objects: make([]annotation.Object, len(e.Objects))}
		for i, o := range e.Objects {
			img.Detection.Objects[i] = o.object()
		}
	case annotation.KindSegmentation:
		img.Segmentation = &annotation.Segmentation{Layers: make(map[string]*annotation.Mask, len(e.Layers))}
		img.LayerFiles = make(map[string]string, len(e.Layers))
		for key, file := range e.Layers {
			label := normalizeLabel(key)
			if _, ok := img.LayerFiles[label]; ok {
				return nil, fmt.Errorf("%s: layer %q: %w %q", img.Name, key, ErrDuplicateLayer, label)
			}
			path := resolve(baseDir, file)
			m, err := LoadMask(path)
			if err != nil {
				return nil, fmt.Errorf("%s: layer %q: %w", img.Name, key, err)
			}
			img.Segmentation.Layers[label] = m
			img.LayerFiles[label] = path
		}
	}

	if e.Binary != "" {
		path := resolve(baseDir, e.Binary)
		m, err := LoadMask(path)
		if err != nil {
			return nil, fmt.Errorf("%s: binary mask: %w", img.Name, err)
		}
		img.Binary = m
		img.BinaryFile = path
	}

	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

func (o ObjectEntry) object() annotation.Object {
	obj := annotation.Object{
		Rect: annotation.Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height},
	}
	if len(o.Polygon) > 0 {
		obj.Polygon = make(annotation.Polygon, len(o.Polygon))
		for i, p := range o.Polygon {
			obj.Polygon[i] = annotation.Point{X: p[0], Y: p[1]}
		}
	}
	if o.Metadata != nil {
		obj.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			obj.Metadata[k] = normalizeLabel(v)
		}
	}
	return obj
}

// NewEntry converts an image back to its manifest form. Masks are referenced
// by the absolute paths of the files they were loaded from; masks without a
// file are rejected.
func NewEntry(img *annotation.Image) (*Entry, error) {
	e := &Entry{
		Name:   img.Name,
		Path:   img.SourcePath,
		Width:  img.Width,
		Height: img.Height,
		Kind:   img.Kind.String(),
	}

	switch img.Kind {
	case annotation.KindClassification:
		if img.Classification != nil && img.Classification.HasLabel {
			label := img.Classification.Label
			e.Label = &label
		}
	case annotation.KindDetection:
		for _, obj := range img.Detection.Objects {
			oe := ObjectEntry{
				X: obj.Rect.X, Y: obj.Rect.Y, Width: obj.Rect.Width, Height: obj.Rect.Height,
				Metadata: obj.Metadata,
			}
			for _, p := range obj.Polygon {
				oe.Polygon = append(oe.Polygon, [2]float64{p.X, p.Y})
			}
			e.Objects = append(e.Objects, oe)
		}
	case annotation.KindSegmentation:
		e.Layers = make(map[string]string, len(img.Segmentation.Layers))
		for _, label := range img.Segmentation.Labels() {
			file, ok := img.LayerFiles[label]
			if !ok {
				return nil, fmt.Errorf("%w: %s layer %q has no source file", ErrUnsupportedRecord, img.Name, label)
			}
			e.Layers[label] = absPath(file)
		}
	default:
		return nil, fmt.Errorf("%w: %s has kind %s", ErrUnsupportedRecord, img.Name, img.Kind)
	}

	if img.Binary != nil {
		if img.BinaryFile == "" {
			return nil, fmt.Errorf("%w: %s binary mask has no source file", ErrUnsupportedRecord, img.Name)
		}
		e.Binary = absPath(img.BinaryFile)
	}
	return e, nil
}

func normalizeLabel(s string) string {
	return norm.NFC.String(s)
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
