package annotation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolygonArea(t *testing.T) {
	square := Polygon{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	assert.InDelta(t, 16.0, square.Area(), 1e-9)

	// clockwise winding gives the same area
	cw := Polygon{{0, 0}, {0, 4}, {4, 4}, {4, 0}}
	assert.InDelta(t, 16.0, cw.Area(), 1e-9)

	triangle := Polygon{{0, 0}, {10, 0}, {0, 5}}
	assert.InDelta(t, 25.0, triangle.Area(), 1e-9)

	assert.Zero(t, Polygon{{1, 1}, {2, 2}}.Area())
	assert.Zero(t, Polygon(nil).Area())
}

func TestAreaOf(t *testing.T) {
	obj := Object{
		Rect:    Rect{X: 0, Y: 0, Width: 10, Height: 10},
		Polygon: Polygon{{0, 0}, {10, 0}, {0, 10}},
	}

	tests := []struct {
		name          string
		obj           Object
		preferPolygon bool
		want          float64
	}{
		{"polygon preferred", obj, true, 50},
		{"bbox forced", obj, false, 100},
		{"no polygon falls back to rect", Object{Rect: obj.Rect}, true, 100},
		{"degenerate rect is returned as-is", Object{Rect: Rect{Width: -2, Height: 3}}, true, -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AreaOf(tt.obj, tt.preferPolygon), 1e-9)
		})
	}
}

func TestRectPolygonAgree(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("axis-aligned polygon area equals rect area", prop.ForAll(
		func(x, y, w, h float64) bool {
			poly := Polygon{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
			rect := Rect{X: x, Y: y, Width: w, Height: h}
			diff := poly.Area() - rect.Area()
			return diff < 1e-6 && diff > -1e-6
		},
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(0, 200),
		gen.Float64Range(0, 200),
	))

	properties.TestingRun(t)
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"ic", "IC", "classification"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, KindClassification, k)
	}
	k, err := ParseKind("od")
	require.NoError(t, err)
	assert.Equal(t, KindDetection, k)
	k, err = ParseKind("image-segmentation")
	require.NoError(t, err)
	assert.Equal(t, KindSegmentation, k)

	_, err = ParseKind("video")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestImageValidate(t *testing.T) {
	ok := &Image{Name: "a", Width: 2, Height: 2, Kind: KindClassification, Classification: NewLabel("cat")}
	require.NoError(t, ok.Validate())

	zero := &Image{Name: "z", Width: 0, Height: 2, Kind: KindClassification, Classification: NewLabel("cat")}
	require.ErrorIs(t, zero.Validate(), ErrInvalidImage)

	missing := &Image{Name: "m", Width: 2, Height: 2, Kind: KindDetection}
	require.ErrorIs(t, missing.Validate(), ErrInvalidImage)

	badLayer := &Image{
		Name: "s", Width: 2, Height: 2, Kind: KindSegmentation,
		Segmentation: &Segmentation{Layers: map[string]*Mask{"weed": NewMask(3, 3)}},
	}
	require.ErrorIs(t, badLayer.Validate(), ErrInvalidImage)

	unknown := &Image{Name: "u", Width: 2, Height: 2}
	require.ErrorIs(t, unknown.Validate(), ErrUnknownKind)
}

func TestMaskCountNonZero(t *testing.T) {
	m := NewMask(5, 4)
	assert.Zero(t, m.CountNonZero())
	m.FillRect(1, 1, 2, 2, 255)
	m.Set(4, 3, 1)
	assert.Equal(t, 5, m.CountNonZero())
	assert.Equal(t, uint8(255), m.At(2, 2))

	// clipping
	m.FillRect(3, 2, 10, 10, 7)
	assert.Equal(t, uint8(7), m.At(4, 3))

	var nilMask *Mask
	assert.Zero(t, nilMask.CountNonZero())
}

func TestSegmentationLabelsSorted(t *testing.T) {
	s := &Segmentation{Layers: map[string]*Mask{"weed": nil, "crop": nil, "bare": nil}}
	assert.Equal(t, []string{"bare", "crop", "weed"}, s.Labels())
}
