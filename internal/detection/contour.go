package detection

import (
	"image"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Moore neighbourhood in clockwise order (image coordinates, Y down),
// starting east.
var (
	neighbourDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	neighbourDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

const dirWest = 4

// TraceContours returns the outer boundary of every 8-connected foreground
// component in m, in the raster order of each component's first pixel.
//
// Holes are not traced. Straight runs along the boundary are compressed to
// their end points, and components whose boundary has fewer than three
// distinct points (single pixels, one-pixel lines) are skipped.
//
// Returns ErrInvalidMask when m has no pixels.
func TraceContours(m Mask) ([]geometry.Curve, error) {
	if err := validateMask(m); err != nil {
		return nil, err
	}
	w, h := m.Width(), m.Height()
	labels := labelComponents(m, w, h)

	curves := make([]geometry.Curve, 0)
	seen := make(map[int]bool)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := labels[y*w+x]
			if id == 0 || seen[id] {
				continue
			}
			seen[id] = true

			boundary := compressRuns(traceBoundary(labels, w, h, id, image.Pt(x, y)))
			pts := make([]geometry.Point, len(boundary))
			for i, p := range boundary {
				pts[i] = geometry.FromImagePoint(p)
			}
			c, err := geometry.NewCurve(pts)
			if err != nil {
				continue
			}
			curves = append(curves, c)
		}
	}
	return curves, nil
}

// labelComponents assigns a positive id to every 8-connected foreground
// component. Background pixels keep id 0.
func labelComponents(m Mask, w, h int) []int {
	labels := make([]int, w*h)
	next := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) && labels[y*w+x] == 0 {
				next++
				floodFill(m, labels, w, h, image.Pt(x, y), next)
			}
		}
	}
	return labels
}

// floodFill performs an iterative flood fill from start, writing id into
// labels for every reachable foreground pixel.
//
// Uses an explicit stack rather than recursion so large regions cannot
// overflow the goroutine stack.
func floodFill(m Mask, labels []int, w, h int, start image.Point, id int) {
	stack := []image.Point{start}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if labels[p.Y*w+p.X] != 0 || !m.At(p.X, p.Y) {
			continue
		}
		labels[p.Y*w+p.X] = id

		for d := 0; d < 8; d++ {
			stack = append(stack, image.Pt(p.X+neighbourDX[d], p.Y+neighbourDY[d]))
		}
	}
}

// traceBoundary walks the outer boundary of component id clockwise with
// Moore-neighbour tracing, starting at its first raster pixel.
//
// Since start is the top-most, left-most pixel of the component, its west
// neighbour is background and serves as the initial backtrack. Tracing
// stops when the walk is back at start and about to repeat its first move
// (Jacob's stopping criterion), which handles components that pass through
// the start pixel more than once.
func traceBoundary(labels []int, w, h, id int, start image.Point) []image.Point {
	inside := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == id
	}

	pts := []image.Point{start}
	cur := start
	back := dirWest
	var firstMove *image.Point

	maxSteps := 4*w*h + 8
	for step := 0; step < maxSteps; step++ {
		var next image.Point
		found := false
		prev := back
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if inside(cur.X+neighbourDX[d], cur.Y+neighbourDY[d]) {
				next = image.Pt(cur.X+neighbourDX[d], cur.Y+neighbourDY[d])
				prev = (back + k - 1) % 8
				found = true
				break
			}
		}
		if !found {
			// isolated pixel
			return pts
		}

		if cur == start {
			if firstMove == nil {
				fm := next
				firstMove = &fm
			} else if next == *firstMove {
				break
			}
		}

		// The last background cell examined becomes the backtrack for the
		// next pixel, expressed relative to that pixel.
		bx, by := cur.X+neighbourDX[prev], cur.Y+neighbourDY[prev]
		back = directionOf(bx-next.X, by-next.Y)
		cur = next
		pts = append(pts, cur)
	}

	if len(pts) > 1 && pts[len(pts)-1] == pts[0] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func directionOf(dx, dy int) int {
	for d := 0; d < 8; d++ {
		if neighbourDX[d] == dx && neighbourDY[d] == dy {
			return d
		}
	}
	return dirWest
}

// compressRuns removes boundary points that lie strictly between two
// neighbours moving in the same direction, leaving only the points where
// the chain changes direction.
func compressRuns(pts []image.Point) []image.Point {
	for len(pts) > 2 {
		n := len(pts)
		out := make([]image.Point, 0, n)
		for i := 0; i < n; i++ {
			a, b, c := pts[(i-1+n)%n], pts[i], pts[(i+1)%n]
			v1 := b.Sub(a)
			v2 := c.Sub(b)
			cross := v1.X*v2.Y - v1.Y*v2.X
			dot := v1.X*v2.X + v1.Y*v2.Y
			if cross == 0 && dot > 0 {
				continue
			}
			out = append(out, b)
		}
		if len(out) == n {
			break
		}
		pts = out
	}
	return pts
}
