package annotation

import "math"

// Point is a polygon vertex in absolute pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Area returns Width*Height. Degenerate rectangles are not corrected.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Polygon is an ordered, non-self-intersecting ring of vertices.
type Polygon []Point

// Area returns the enclosed area using the shoelace formula.
// Fewer than three vertices enclose nothing.
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := range n {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(sum) / 2
}

// AreaOf returns the pixel area of a detected object. With preferPolygon the
// polygon area is used when a polygon is present, otherwise the rectangle.
// Zero or negative results are returned as-is; callers decide how to report them.
func AreaOf(obj Object, preferPolygon bool) float64 {
	if preferPolygon && obj.HasPolygon() {
		return obj.Polygon.Area()
	}
	return obj.Rect.Area()
}
