package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Record is one manifest line. Keys follow the manifest format: name, path,
// width, height, kind, label, objects, layers, binary.
type Record map[string]any

// ClassRecord is a classification record; an empty label leaves it unlabeled.
func ClassRecord(name, label string) Record {
	r := Record{"name": name, "path": "images/" + name, "width": 8, "height": 8, "kind": "ic"}
	if label != "" {
		r["label"] = label
	}
	return r
}

// Object is a detected object of a detection record.
func Object(label string, x, y, w, h float64, polygon ...[2]float64) map[string]any {
	o := map[string]any{"x": x, "y": y, "width": w, "height": h}
	if label != "" {
		o["metadata"] = map[string]string{"label": label}
	}
	if len(polygon) > 0 {
		o["polygon"] = polygon
	}
	return o
}

// DetRecord is a detection record of a width×height image.
func DetRecord(name string, width, height int, objects ...map[string]any) Record {
	return Record{"name": name, "width": width, "height": height, "kind": "od", "objects": objects}
}

// WriteManifest writes records as a JSON-lines manifest at dir/name and
// returns its path.
func WriteManifest(t *testing.T, dir, name string, records ...Record) string {
	t.Helper()
	require.NoError(t, EnsureDir(dir))
	lines := make([]string, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		lines[i] = string(data)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

// WeedCropDataset writes a one-record segmentation dataset to dir: a
// 100×100 image with a "weed" layer of 100 pixels and a "crop" layer of
// 1000 pixels. It returns the manifest path.
func WeedCropDataset(t *testing.T, dir string) string {
	t.Helper()
	SaveMask(t, RectMask(100, 100, 0, 0, 10, 10), filepath.Join(dir, "masks", "field-weed.png"))
	SaveMask(t, RectMask(100, 100, 20, 20, 50, 20), filepath.Join(dir, "masks", "field-crop.png"))
	return WriteManifest(t, dir, "field.jsonl", Record{
		"name":   "field.png",
		"path":   "images/field.png",
		"width":  100,
		"height": 100,
		"kind":   "is",
		"layers": map[string]string{"weed": "masks/field-weed.png", "crop": "masks/field-crop.png"},
	})
}

// SquaresDataset writes a one-record dataset to dir whose binary mask holds
// two disjoint 3×3 squares. It returns the manifest path.
func SquaresDataset(t *testing.T, dir string) string {
	t.Helper()
	SaveMask(t, SquaresMask(12, 8, Square{1, 1, 3}, Square{7, 4, 3}), filepath.Join(dir, "masks", "squares.png"))
	return WriteManifest(t, dir, "squares.jsonl", Record{
		"name":   "squares.png",
		"width":  12,
		"height": 8,
		"kind":   "ic",
		"label":  "squares",
		"binary": "masks/squares.png",
	})
}
