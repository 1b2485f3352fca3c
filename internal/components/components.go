// Package components labels 8-connected foreground regions in binary masks
// and reports their pixel area and bounding box.
package components

import (
	"github.com/MeKo-Tech/imgstats/internal/annotation"
	"github.com/MeKo-Tech/imgstats/internal/mempool"
)

// Region is one connected component of a mask.
type Region struct {
	Area   float64 `json:"area"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Options controls polarity and area filtering of an extraction.
// Nil bounds are not applied.
type Options struct {
	Invert  bool
	MinArea *float64
	MaxArea *float64
}

// Keep reports whether a region of the given area passes the area filter.
// Both bounds are inclusive.
func (o Options) Keep(area float64) bool {
	if o.MinArea != nil && area < *o.MinArea {
		return false
	}
	if o.MaxArea != nil && area > *o.MaxArea {
		return false
	}
	return true
}

// compStats accumulates the pixel count and extent of a component.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

func (c compStats) region() Region {
	return Region{
		Area:   float64(c.count),
		X:      c.minX,
		Y:      c.minY,
		Width:  c.maxX - c.minX + 1,
		Height: c.maxY - c.minY + 1,
	}
}

// 8-connectivity: diagonal neighbours join regions.
var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Extract returns the foreground regions of mask that pass the area filter,
// in raster-scan discovery order. A pixel is foreground when its value is
// non-zero after the optional 0/255 inversion; the zero-valued background is
// never reported. The mask is not modified.
func Extract(mask *annotation.Mask, opts Options) []Region {
	if mask == nil || mask.Width <= 0 || mask.Height <= 0 {
		return nil
	}
	comps := label(mask, foregroundXor(opts.Invert))

	regions := make([]Region, 0, len(comps))
	for _, c := range comps {
		if !opts.Keep(float64(c.count)) {
			continue
		}
		regions = append(regions, c.region())
	}
	return regions
}

// foregroundCount returns the number of pixels Extract treats as foreground.
func foregroundCount(mask *annotation.Mask, invert bool) int {
	if mask == nil {
		return 0
	}
	xor := foregroundXor(invert)
	n := 0
	for _, v := range mask.Pix {
		if v^xor != 0 {
			n++
		}
	}
	return n
}

func foregroundXor(invert bool) uint8 {
	if invert {
		return 255
	}
	return 0
}

// label runs a BFS flood fill from every unvisited foreground pixel in
// raster order, so component ids follow discovery order.
func label(mask *annotation.Mask, xor uint8) []compStats {
	w, h := mask.Width, mask.Height
	visited := mempool.GetBool(w * h)
	defer mempool.PutBool(visited)
	// every pixel is enqueued at most once over the whole pass
	queue := mempool.GetInt32(w * h)
	defer mempool.PutInt32(queue)

	var comps []compStats
	for y := range h {
		for x := range w {
			idx := y*w + x
			if visited[idx] || mask.Pix[idx]^xor == 0 {
				continue
			}
			comps = append(comps, performComponentBFS(mask, xor, visited, queue, x, y))
		}
	}
	return comps
}

// performComponentBFS floods the component containing (startX, startY).
func performComponentBFS(mask *annotation.Mask, xor uint8, visited []bool, queue []int32, startX, startY int) compStats {
	w := mask.Width
	st := compStats{minX: startX, minY: startY, maxX: startX, maxY: startY}

	head, tail := 0, 0
	start := startY*w + startX
	visited[start] = true
	queue[tail] = int32(start)
	tail++

	for head < tail {
		ci := int(queue[head])
		head++
		cx, cy := ci%w, ci/w
		updateComponentStats(&st, cx, cy)
		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if !isValidNeighbor(mask, xor, visited, nx, ny) {
				continue
			}
			ni := ny*w + nx
			visited[ni] = true
			queue[tail] = int32(ni)
			tail++
		}
	}
	return st
}

func updateComponentStats(st *compStats, cx, cy int) {
	st.count++
	st.minX = min(st.minX, cx)
	st.minY = min(st.minY, cy)
	st.maxX = max(st.maxX, cx)
	st.maxY = max(st.maxY, cy)
}

// isValidNeighbor checks bounds, polarity and whether the pixel was already taken.
func isValidNeighbor(mask *annotation.Mask, xor uint8, visited []bool, nx, ny int) bool {
	if nx < 0 || nx >= mask.Width || ny < 0 || ny >= mask.Height {
		return false
	}
	ni := ny*mask.Width + nx
	return !visited[ni] && mask.Pix[ni]^xor != 0
}
