package geometry

import "math"

// BoundingBox is an axis-aligned box around a set of points.
//
// Width and Height are max-min extents, so a box around pixel centres of an
// N-pixel-wide region has Width N-1.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectRatio returns Width/Height. ok is false when Height is zero.
func (b BoundingBox) AspectRatio() (ratio float64, ok bool) {
	if b.Height == 0 {
		return 0, false
	}
	return b.Width / b.Height, true
}

// Moments holds the zeroth and first raw moments of a filled polygon.
type Moments struct {
	M00 float64 `json:"m00"`
	M10 float64 `json:"m10"`
	M01 float64 `json:"m01"`
}

// Summary collects the derived measurements of a closed curve.
type Summary struct {
	Perimeter   float64     `json:"perimeter"`
	Area        float64     `json:"area"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Centroid    Point       `json:"centroid"`
}

// Perimeter returns the closed arc length of pts, including the segment from
// the last point back to the first.
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		total += pts[i].Distance(pts[(i+1)%n])
	}
	return total
}

// Area returns the enclosed area of pts using the shoelace formula. The
// result is independent of winding direction.
func Area(pts []Point) float64 {
	return math.Abs(signedArea(pts))
}

func signedArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Bounds returns the axis-aligned bounding box of pts. An empty input yields
// the zero box.
func Bounds(pts []Point) BoundingBox {
	if len(pts) == 0 {
		return BoundingBox{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ComputeMoments returns the raw moments m00, m10 and m01 of the region
// enclosed by pts, evaluated over the filled polygon with Green's theorem.
//
// The sign follows the winding direction; Centroid divides it out.
func ComputeMoments(pts []Point) Moments {
	n := len(pts)
	if n < 3 {
		return Moments{}
	}
	var m Moments
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		cross := a.X*b.Y - b.X*a.Y
		m.M00 += cross
		m.M10 += (a.X + b.X) * cross
		m.M01 += (a.Y + b.Y) * cross
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	return m
}

// Centroid returns the centre of mass of the filled region enclosed by pts.
// A region with zero area has its centroid at (0, 0).
func Centroid(pts []Point) Point {
	m := ComputeMoments(pts)
	if m.M00 == 0 {
		return Point{}
	}
	return Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}
}

// Circularity returns 4π·area/perimeter², which is 1.0 for a perfect circle.
// A zero perimeter yields 0.
func Circularity(area, perimeter float64) float64 {
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// Summarize computes every measurement of pts in one call.
func Summarize(pts []Point) Summary {
	return Summary{
		Perimeter:   Perimeter(pts),
		Area:        Area(pts),
		BoundingBox: Bounds(pts),
		Centroid:    Centroid(pts),
	}
}

// Circularity returns the circularity of the summarised curve.
func (s Summary) Circularity() float64 {
	return Circularity(s.Area, s.Perimeter)
}
