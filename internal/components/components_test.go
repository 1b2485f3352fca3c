package components

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/imgstats/internal/annotation"
)

func ptr(v float64) *float64 { return &v }

// maskFromRows builds a mask from strings where '#' is 255 and anything else 0.
func maskFromRows(rows ...string) *annotation.Mask {
	m := annotation.NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				m.Set(x, y, 255)
			}
		}
	}
	return m
}

func TestExtract_TwoSquares(t *testing.T) {
	m := annotation.NewMask(12, 8)
	m.FillRect(1, 1, 3, 3, 255)
	m.FillRect(7, 4, 3, 3, 255)

	regions := Extract(m, Options{})

	want := []Region{
		{Area: 9, X: 1, Y: 1, Width: 3, Height: 3},
		{Area: 9, X: 7, Y: 4, Width: 3, Height: 3},
	}
	if diff := cmp.Diff(want, regions); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_DiagonalPixelsAreConnected(t *testing.T) {
	m := maskFromRows(
		"#....",
		".#...",
		"..#..",
		".....",
		"....#",
	)
	regions := Extract(m, Options{})
	require.Len(t, regions, 2)
	assert.Equal(t, Region{Area: 3, X: 0, Y: 0, Width: 3, Height: 3}, regions[0])
	assert.Equal(t, Region{Area: 1, X: 4, Y: 4, Width: 1, Height: 1}, regions[1])
}

func TestExtract_RasterDiscoveryOrder(t *testing.T) {
	// the component whose first pixel comes first in raster order is listed first,
	// even when another component reaches further up-left overall
	m := maskFromRows(
		"...##",
		"....#",
		"#...#",
		"#....",
	)
	regions := Extract(m, Options{})
	require.Len(t, regions, 2)
	assert.Equal(t, 3, regions[0].X)
	assert.Equal(t, 0, regions[1].X)
	assert.Equal(t, 2, regions[1].Y)
}

func TestExtract_Invert(t *testing.T) {
	m := annotation.NewMask(5, 5)
	m.FillRect(0, 0, 5, 5, 255)
	m.Set(2, 2, 0)
	m.Set(0, 4, 0)

	assert.Len(t, Extract(m, Options{}), 1)

	regions := Extract(m, Options{Invert: true})
	require.Len(t, regions, 2)
	assert.Equal(t, Region{Area: 1, X: 2, Y: 2, Width: 1, Height: 1}, regions[0])
	assert.Equal(t, Region{Area: 1, X: 0, Y: 4, Width: 1, Height: 1}, regions[1])

	// the input is left untouched
	assert.Equal(t, uint8(255), m.At(1, 1))
	assert.Equal(t, uint8(0), m.At(2, 2))
}

func TestExtract_AreaFilterIsInclusive(t *testing.T) {
	m := annotation.NewMask(20, 5)
	m.FillRect(0, 0, 1, 1, 255)  // area 1
	m.FillRect(3, 0, 2, 2, 255)  // area 4
	m.FillRect(8, 0, 3, 3, 255)  // area 9
	m.FillRect(13, 0, 4, 4, 255) // area 16

	areas := func(rs []Region) []float64 {
		out := make([]float64, len(rs))
		for i, r := range rs {
			out[i] = r.Area
		}
		return out
	}

	assert.Equal(t, []float64{1, 4, 9, 16}, areas(Extract(m, Options{})))
	assert.Equal(t, []float64{4, 9, 16}, areas(Extract(m, Options{MinArea: ptr(4)})))
	assert.Equal(t, []float64{1, 4, 9}, areas(Extract(m, Options{MaxArea: ptr(9)})))
	assert.Equal(t, []float64{4, 9}, areas(Extract(m, Options{MinArea: ptr(4), MaxArea: ptr(9)})))
	assert.Empty(t, Extract(m, Options{MinArea: ptr(17)}))
}

func TestExtract_EmptyAndNil(t *testing.T) {
	assert.Nil(t, Extract(nil, Options{}))
	assert.Empty(t, Extract(annotation.NewMask(4, 4), Options{}))

	// an all-foreground mask is one region, not background
	full := annotation.NewMask(3, 2)
	full.FillRect(0, 0, 3, 2, 1)
	regions := Extract(full, Options{})
	require.Len(t, regions, 1)
	assert.InDelta(t, 6.0, regions[0].Area, 0)
}

func genMask(w, h int) gopter.Gen {
	pixel := gen.UInt8Range(0, 1).Map(func(v uint8) uint8 { return v * 255 })
	return gen.SliceOfN(w*h, pixel).Map(func(pix []uint8) *annotation.Mask {
		return &annotation.Mask{Width: w, Height: h, Pix: pix}
	})
}

func TestExtract_AreasCoverForeground(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("unfiltered region areas sum to the foreground pixel count", prop.ForAll(
		func(m *annotation.Mask, invert bool) bool {
			total := 0.0
			for _, r := range Extract(m, Options{Invert: invert}) {
				total += r.Area
			}
			return int(total) == foregroundCount(m, invert)
		},
		genMask(9, 7),
		gen.Bool(),
	))

	properties.Property("filtered region areas never exceed the foreground pixel count", prop.ForAll(
		func(m *annotation.Mask, minArea float64) bool {
			total := 0.0
			for _, r := range Extract(m, Options{MinArea: &minArea}) {
				if r.Area < minArea {
					return false
				}
				total += r.Area
			}
			return int(total) <= foregroundCount(m, false)
		},
		genMask(8, 8),
		gen.Float64Range(0, 10),
	))

	properties.Property("bounding boxes lie inside the mask", prop.ForAll(
		func(m *annotation.Mask) bool {
			for _, r := range Extract(m, Options{}) {
				if r.X < 0 || r.Y < 0 || r.X+r.Width > m.Width || r.Y+r.Height > m.Height {
					return false
				}
				if float64(r.Width*r.Height) < r.Area {
					return false
				}
			}
			return true
		},
		genMask(10, 6),
	))

	properties.Property("extraction is deterministic", prop.ForAll(
		func(m *annotation.Mask) bool {
			return cmp.Equal(Extract(m, Options{}), Extract(m, Options{}))
		},
		genMask(7, 7),
	))

	properties.TestingRun(t)
}
