package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDegenerateCurve is returned by NewCurve when fewer than three distinct
// points remain after removing consecutive duplicates.
var ErrDegenerateCurve = errors.New("curve has fewer than 3 distinct points")

// Point is a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt builds a Point from integer pixel coordinates.
func Pt(x, y int) Point {
	return Point{X: float64(x), Y: float64(y)}
}

// FromImagePoint converts an image.Point into a Point.
func FromImagePoint(p image.Point) Point {
	return Pt(p.X, p.Y)
}

// ImagePoint rounds p to the nearest integer pixel.
func (p Point) ImagePoint() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Curve is an ordered closed loop of points. The first and last points are
// implicitly connected.
type Curve []Point

// Polygon is the simplified, vertex-reduced form of a Curve.
type Polygon []Point

// NewCurve copies pts into a Curve, dropping consecutive duplicates
// (including a trailing point equal to the first).
//
// Returns ErrDegenerateCurve when fewer than three distinct points remain.
func NewCurve(pts []Point) (Curve, error) {
	c := make(Curve, 0, len(pts))
	for _, p := range pts {
		if len(c) > 0 && c[len(c)-1] == p {
			continue
		}
		c = append(c, p)
	}
	for len(c) > 1 && c[len(c)-1] == c[0] {
		c = c[:len(c)-1]
	}
	if DistinctCount(c) < 3 {
		return nil, ErrDegenerateCurve
	}
	return c, nil
}

// DistinctCount returns the number of distinct points in pts.
func DistinctCount(pts []Point) int {
	seen := make(map[Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Rotate returns a copy of pts whose first element is pts[start]. The closed
// loop is unchanged; only the starting index moves.
func Rotate(pts []Point, start int) []Point {
	n := len(pts)
	if n == 0 {
		return nil
	}
	start = ((start % n) + n) % n
	out := make([]Point, 0, n)
	out = append(out, pts[start:]...)
	out = append(out, pts[:start]...)
	return out
}

// Len returns the number of vertices.
func (p Polygon) Len() int { return len(p) }

// Curve returns p as a closed Curve.
func (p Polygon) Curve() Curve {
	return Curve(append([]Point(nil), p...))
}
