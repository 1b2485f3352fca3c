package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

// LoadMask decodes an image file into a single-channel mask. Colour images
// are converted to grayscale; any non-zero gray value is "on".
func LoadMask(path string) (*annotation.Mask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mask: %w", err)
	}
	return MaskFromImage(img), nil
}

// MaskFromImage converts img to a mask of the same size.
func MaskFromImage(img image.Image) *annotation.Mask {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	m := annotation.NewMask(b.Dx(), b.Dy())
	for y := range m.Height {
		row := gray.Pix[y*gray.Stride:]
		for x := range m.Width {
			m.Pix[y*m.Width+x] = row[x*4]
		}
	}
	return m
}

// MaskImage returns m as an 8-bit gray image.
func MaskImage(m *annotation.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		copy(img.Pix[y*img.Stride:], m.Pix[y*m.Width:(y+1)*m.Width])
	}
	return img
}

// SaveMask encodes m to path, creating missing parent directories. The
// format follows the file extension.
func SaveMask(m *annotation.Mask, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create mask directory: %w", err)
	}
	if err := imaging.Save(MaskImage(m), path); err != nil {
		return fmt.Errorf("failed to save mask: %w", err)
	}
	return nil
}
