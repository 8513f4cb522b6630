package geometry

import (
	"math"
	"sort"
)

// DefaultSimplifyFraction is the share of a curve's perimeter used as the
// Douglas-Peucker tolerance.
const DefaultSimplifyFraction = 0.04

// SimplifyFraction simplifies pts with a tolerance of fraction × Perimeter(pts).
func SimplifyFraction(pts []Point, fraction float64) Polygon {
	return Simplify(pts, fraction*Perimeter(pts))
}

// Simplify reduces the closed curve pts to a polygon using Douglas-Peucker
// splitting. Every discarded point lies within epsilon of the chord that
// replaced it.
//
// # Closed-Curve Handling
//
// The loop is cut at the two points farthest apart (its diameter), which are
// always kept. Each of the two arcs between them is then split recursively:
// the point farthest from the arc's chord is kept when its distance exceeds
// epsilon, otherwise the arc collapses to its endpoints. Ties go to the first
// point along the arc.
//
// The diameter is chosen by coordinates alone, so the same loop traced from a
// different starting index simplifies to the same vertex set. Kept vertices
// are returned in input order, which makes Simplify idempotent: simplifying
// its own output with the same epsilon returns that output unchanged.
func Simplify(pts []Point, epsilon float64) Polygon {
	n := len(pts)
	if n < 3 {
		return Polygon(append([]Point(nil), pts...))
	}
	if epsilon < 0 {
		epsilon = 0
	}

	a, b, ok := farthestPair(pts)
	if !ok {
		return Polygon(append([]Point(nil), pts...))
	}
	i, j := indexOf(pts, a), indexOf(pts, b)

	keep := make([]bool, n)
	keep[i], keep[j] = true, true
	s := simplifier{pts: pts, keep: keep, epsilon: epsilon}
	s.split(i, j)
	s.split(j, i)

	out := make(Polygon, 0, 8)
	for k, p := range pts {
		if keep[k] {
			out = append(out, p)
		}
	}
	return out
}

type simplifier struct {
	pts     []Point
	keep    []bool
	epsilon float64
}

// split handles the cyclic arc running forward from index start to index end.
func (s *simplifier) split(start, end int) {
	n := len(s.pts)
	span := (end - start + n) % n
	if span < 2 {
		return
	}
	a, b := s.pts[start], s.pts[end]
	best, bestIdx := -1.0, -1
	for k := 1; k < span; k++ {
		idx := (start + k) % n
		if d := chordDistance(s.pts[idx], a, b); d > best {
			best, bestIdx = d, idx
		}
	}
	if best > s.epsilon {
		s.keep[bestIdx] = true
		s.split(start, bestIdx)
		s.split(bestIdx, end)
	}
}

// chordDistance is the perpendicular distance from p to the line through a
// and b, or the distance to a when a and b coincide.
func chordDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p.Distance(a)
	}
	return math.Abs(dx*(p.Y-a.Y)-dy*(p.X-a.X)) / length
}

func indexOf(pts []Point, p Point) int {
	for i, q := range pts {
		if q == p {
			return i
		}
	}
	return -1
}

func lessXY(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// farthestPair returns the two points of pts with the greatest separation,
// searched over the convex hull. Among equal distances the pair whose points
// sort first by (X, Y) wins. The returned a sorts before b.
func farthestPair(pts []Point) (a, b Point, ok bool) {
	hull := ConvexHull(pts)
	if len(hull) < 2 {
		return Point{}, Point{}, false
	}
	best := -1.0
	for i := 0; i < len(hull); i++ {
		for j := i + 1; j < len(hull); j++ {
			p, q := hull[i], hull[j]
			if lessXY(q, p) {
				p, q = q, p
			}
			dx, dy := p.X-q.X, p.Y-q.Y
			d := dx*dx + dy*dy
			switch {
			case d > best:
			case d == best && (lessXY(p, a) || (p == a && lessXY(q, b))):
			default:
				continue
			}
			best, a, b = d, p, q
		}
	}
	return a, b, true
}

// ConvexHull returns the convex hull of pts using Andrew's monotone chain,
// starting from the point with the smallest X, then Y. Collinear boundary
// points are omitted.
func ConvexHull(pts []Point) []Point {
	uniq := make([]Point, 0, len(pts))
	seen := make(map[Point]struct{}, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	sort.Slice(uniq, func(i, j int) bool { return lessXY(uniq[i], uniq[j]) })
	if len(uniq) <= 2 {
		return uniq
	}

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	lower := make([]Point, 0, len(uniq))
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, len(uniq))
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}
