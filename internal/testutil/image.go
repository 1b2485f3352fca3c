package testutil

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// Square is a filled axis-aligned block of a mask.
type Square struct {
	X, Y, Size int
}

// SquaresMask returns a width×height mask with every square set to 255.
func SquaresMask(width, height int, squares ...Square) *annotation.Mask {
	m := annotation.NewMask(width, height)
	for _, s := range squares {
		m.FillRect(s.X, s.Y, s.Size, s.Size, 255)
	}
	return m
}

// RectMask returns a width×height mask with one w×h block set to 255.
func RectMask(width, height, x, y, w, h int) *annotation.Mask {
	m := annotation.NewMask(width, height)
	m.FillRect(x, y, w, h, 255)
	return m
}

// GrayImage converts a mask to an 8-bit gray image.
func GrayImage(m *annotation.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			img.SetGray(x, y, color.Gray{Y: m.At(x, y)})
		}
	}
	return img
}

// ColorImage paints the "on" cells of a mask in fg over a black background,
// as colour annotation tools export them.
func ColorImage(m *annotation.Mask, fg color.Color) *image.NRGBA {
	img := imaging.New(m.Width, m.Height, color.Black)
	for y := range m.Height {
		for x := range m.Width {
			if m.At(x, y) != 0 {
				img.Set(x, y, fg)
			}
		}
	}
	return img
}

// SaveImage saves img to path, creating parent directories. The encoder
// follows the extension.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)
	require.NoError(t, imaging.Save(img, path), "Failed to save image %s", path)
}

// SaveMask saves m as a gray image at path.
func SaveMask(t *testing.T, m *annotation.Mask, path string) {
	t.Helper()
	SaveImage(t, GrayImage(m), path)
}
