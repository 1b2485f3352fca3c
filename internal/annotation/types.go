// Package annotation holds the in-memory image records that the statistics
// writers and the label balancer consume. A record carries exactly one
// annotation payload, selected by its Kind.
package annotation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultLabelKey is the metadata key that holds the label of a detected object.
const DefaultLabelKey = "label"

// Kind discriminates the annotation payload of an Image.
type Kind int

const (
	// KindClassification marks single-label image classification records.
	KindClassification Kind = iota + 1
	// KindDetection marks object detection records (rectangles/polygons).
	KindDetection
	// KindSegmentation marks records with per-label pixel masks.
	KindSegmentation
)

var (
	// ErrUnknownKind is returned when a kind name cannot be parsed.
	ErrUnknownKind = errors.New("unknown annotation kind")
	// ErrInvalidImage is returned for records that violate the data model.
	ErrInvalidImage = errors.New("invalid image record")
)

// String returns the short name of the kind as used in manifests.
func (k Kind) String() string {
	switch k {
	case KindClassification:
		return "ic"
	case KindDetection:
		return "od"
	case KindSegmentation:
		return "is"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the short manifest names as well as the long forms.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ic", "classification", "image-classification":
		return KindClassification, nil
	case "od", "detection", "object-detection":
		return KindDetection, nil
	case "is", "segmentation", "image-segmentation":
		return KindSegmentation, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Image is one annotated image record.
type Image struct {
	Name       string
	SourcePath string
	Width      int
	Height     int
	Kind       Kind

	Classification *Classification
	Detection      *Detection
	Segmentation   *Segmentation

	// Binary is an optional single-channel mask of the image itself.
	Binary *Mask

	// BinaryFile and LayerFiles name the files the masks were loaded from,
	// when they came from disk.
	BinaryFile string
	LayerFiles map[string]string
}

// Area returns width*height of the image in pixels.
func (img *Image) Area() int {
	return img.Width * img.Height
}

// Validate checks the dimensions and that the payload matches the kind.
func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %s has non-positive size %dx%d", ErrInvalidImage, img.Name, img.Width, img.Height)
	}
	switch img.Kind {
	case KindClassification:
		if img.Classification == nil {
			return fmt.Errorf("%w: %s has no classification payload", ErrInvalidImage, img.Name)
		}
	case KindDetection:
		if img.Detection == nil {
			return fmt.Errorf("%w: %s has no detection payload", ErrInvalidImage, img.Name)
		}
	case KindSegmentation:
		if img.Segmentation == nil {
			return fmt.Errorf("%w: %s has no segmentation payload", ErrInvalidImage, img.Name)
		}
		for label, m := range img.Segmentation.Layers {
			if m == nil || m.Width != img.Width || m.Height != img.Height {
				return fmt.Errorf("%w: %s layer %q does not match image size", ErrInvalidImage, img.Name, label)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, img.Kind)
	}
	if img.Binary != nil && (img.Binary.Width != img.Width || img.Binary.Height != img.Height) {
		return fmt.Errorf("%w: %s binary mask does not match image size", ErrInvalidImage, img.Name)
	}
	return nil
}

// Classification is the payload of a classification record.
type Classification struct {
	Label    string
	HasLabel bool
}

// NewLabel returns a labeled classification payload.
func NewLabel(label string) *Classification {
	return &Classification{Label: label, HasLabel: true}
}

// Detection is the payload of an object detection record.
type Detection struct {
	Objects []Object
}

// Object is a single detected object in absolute pixel coordinates.
type Object struct {
	Rect     Rect
	Polygon  Polygon
	Metadata map[string]string
}

// HasPolygon reports whether the object carries a polygon.
func (o Object) HasPolygon() bool {
	return len(o.Polygon) > 0
}

// Label returns the metadata value stored under key.
func (o Object) Label(key string) (string, bool) {
	label, ok := o.Metadata[key]
	return label, ok
}

// Segmentation is the payload of a segmentation record: one mask per label.
type Segmentation struct {
	Layers map[string]*Mask
}

// Labels returns the layer labels in ascending order.
func (s *Segmentation) Labels() []string {
	labels := make([]string, 0, len(s.Layers))
	for label := range s.Layers {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
