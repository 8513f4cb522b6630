package detection

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return d
}

func analyze(t *testing.T, d *Detector, m Mask) *Analysis {
	t.Helper()
	a, err := d.Analyze(m)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return a
}

// regularPolygonMask fills a regular n-gon of circumradius r centred in a
// square image, with its first vertex pointing up.
func regularPolygonMask(n int, r float64) *BinaryMask {
	size := int(2*r) + 20
	c := float64(size) / 2
	vx := make([]float64, n)
	vy := make([]float64, n)
	for i := 0; i < n; i++ {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		vx[i] = c + r*math.Cos(a)
		vy[i] = c + r*math.Sin(a)
	}
	return maskOf(size, size, func(x, y int) bool {
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			if (vx[j]-vx[i])*(float64(y)-vy[i])-(vy[j]-vy[i])*(float64(x)-vx[i]) < 0 {
				return false
			}
		}
		return true
	})
}

func sortedPolygon(p geometry.Polygon) []geometry.Point {
	out := append([]geometry.Point(nil), p...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func TestNewDetector_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimplifyFraction = -0.1
	if _, err := NewDetector(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewDetector err = %v, want ErrInvalidConfig", err)
	}
}

func TestAnalyze_FilledSquare(t *testing.T) {
	d := newTestDetector(t)

	for _, n := range []int{12, 25, 40, 77} {
		t.Run(fmt.Sprintf("side %d", n), func(t *testing.T) {
			a := analyze(t, d, rectMask(n+40, n+40, 20, 20, 20+n, 20+n))
			if a.Outcome != Classified {
				t.Fatalf("Outcome = %v (%s), want classified", a.Outcome, a.Message)
			}
			if a.Label() != Square {
				t.Errorf("Label = %v, want Square", a.Label())
			}
			if a.VertexCount != 4 {
				t.Errorf("VertexCount = %d, want 4", a.VertexCount)
			}
			if a.AspectRatio < 0.95 || a.AspectRatio > 1.05 {
				t.Errorf("AspectRatio = %v, want within [0.95, 1.05]", a.AspectRatio)
			}
			if a.Result.Description != Square.Description() {
				t.Errorf("Description = %q", a.Result.Description)
			}
			if a.Message != MessageClassified {
				t.Errorf("Message = %q", a.Message)
			}
		})
	}
}

func TestAnalyze_Rectangle(t *testing.T) {
	d := newTestDetector(t)
	a := analyze(t, d, rectMask(160, 100, 20, 20, 120, 70))

	if a.Label() != Rectangle {
		t.Fatalf("Label = %v, want Rectangle", a.Label())
	}
	if a.VertexCount != 4 {
		t.Errorf("VertexCount = %d, want 4", a.VertexCount)
	}
	if a.AspectRatio < 1.9 || a.AspectRatio > 2.1 {
		t.Errorf("AspectRatio = %v, want about 2", a.AspectRatio)
	}
	if a.Summary == nil {
		t.Fatal("Summary is nil")
	}
	if a.Summary.BoundingBox.Width != 99 || a.Summary.BoundingBox.Height != 49 {
		t.Errorf("BoundingBox = %+v, want 99x49", a.Summary.BoundingBox)
	}
	if a.Summary.Centroid.X != 69.5 || a.Summary.Centroid.Y != 44.5 {
		t.Errorf("Centroid = %v, want (69.5,44.5)", a.Summary.Centroid)
	}
}

func TestAnalyze_Circle(t *testing.T) {
	d := newTestDetector(t)

	for _, r := range []int{15, 20, 30, 40, 60} {
		t.Run(fmt.Sprintf("radius %d", r), func(t *testing.T) {
			size := 2*r + 10
			a := analyze(t, d, discMask(size, size/2, size/2, r))
			if a.Label() != Circle {
				t.Errorf("Label = %v (vertices %d), want Circle", a.Label(), a.VertexCount)
			}
			if a.Circularity <= 0.85 {
				t.Errorf("Circularity = %v, want > 0.85", a.Circularity)
			}
		})
	}
}

// Below a radius of 20 px the digitised outline is too coarse for the
// polygon fraction: some disks simplify to four vertices and read as Square.
func TestAnalyze_CircleRadiusSweep(t *testing.T) {
	d := newTestDetector(t)

	for r := 20; r <= 120; r++ {
		size := 2*r + 10
		a := analyze(t, d, discMask(size, size/2, size/2, r))
		if a.Label() != Circle {
			t.Errorf("radius %d: Label = %v (vertices %d, circularity %.3f), want Circle",
				r, a.Label(), a.VertexCount, a.Circularity)
		}
		if a.VertexCount < 7 {
			t.Errorf("radius %d: %d vertices, want at least 7", r, a.VertexCount)
		}
	}
}

func TestAnalyze_CircleResolutionTolerance(t *testing.T) {
	d := newTestDetector(t)
	const tolerance = 0.03

	for _, r := range []int{10, 12, 15} {
		size := 2*r + 10
		a := analyze(t, d, discMask(size, size/2, size/2, r))
		if a.Circularity < d.Config().CircularityCutoff-tolerance {
			t.Errorf("radius %d: circularity %v fell more than %v below the cutoff", r, a.Circularity, tolerance)
		}
	}
}

func TestAnalyze_Polygons(t *testing.T) {
	d := newTestDetector(t)

	tests := []struct {
		sides int
		want  ShapeLabel
	}{
		{3, Triangle},
		{5, Pentagon},
		{6, Hexagon},
	}
	for _, tt := range tests {
		for _, r := range []float64{40, 60} {
			t.Run(fmt.Sprintf("%d sides radius %v", tt.sides, r), func(t *testing.T) {
				a := analyze(t, d, regularPolygonMask(tt.sides, r))
				if a.Label() != tt.want {
					t.Errorf("Label = %v (vertices %d), want %v", a.Label(), a.VertexCount, tt.want)
				}
			})
		}
	}
}

func TestAnalyze_Triangle(t *testing.T) {
	d := newTestDetector(t)
	side := func(ax, ay, bx, by, x, y int) int {
		return (bx-ax)*(y-ay) - (by-ay)*(x-ax)
	}
	m := maskOf(120, 120, func(x, y int) bool {
		d1 := side(20, 100, 100, 100, x, y)
		d2 := side(100, 100, 60, 20, x, y)
		d3 := side(60, 20, 20, 100, x, y)
		neg := d1 < 0 || d2 < 0 || d3 < 0
		pos := d1 > 0 || d2 > 0 || d3 > 0
		return !(neg && pos)
	})

	a := analyze(t, d, m)
	if a.Label() != Triangle {
		t.Fatalf("Label = %v, want Triangle", a.Label())
	}
	want := []geometry.Point{geometry.Pt(60, 20), geometry.Pt(100, 100), geometry.Pt(20, 100)}
	for i, p := range want {
		if a.Polygon[i] != p {
			t.Fatalf("Polygon = %v, want %v", a.Polygon, want)
		}
	}
}

func TestAnalyze_EmptyMask(t *testing.T) {
	d := newTestDetector(t)
	m, _ := NewBinaryMask(64, 64)
	a := analyze(t, d, m)

	if a.Outcome != NoShapes {
		t.Errorf("Outcome = %v, want no_shapes", a.Outcome)
	}
	if a.Label() != Unknown {
		t.Errorf("Label = %v, want Unknown", a.Label())
	}
	if a.Message != "no shapes found" {
		t.Errorf("Message = %q", a.Message)
	}
	if a.Summary != nil {
		t.Errorf("Summary = %+v, want nil", a.Summary)
	}
}

func TestAnalyze_BelowThreshold(t *testing.T) {
	d := newTestDetector(t)
	// 5×2 cluster: 10 pixels
	m := rectMask(20, 20, 5, 5, 10, 7)
	if m.Count() != 10 {
		t.Fatalf("cluster has %d pixels, want 10", m.Count())
	}

	a := analyze(t, d, m)
	if a.Outcome != BelowThreshold {
		t.Errorf("Outcome = %v, want below_threshold", a.Outcome)
	}
	if a.Label() != Unknown {
		t.Errorf("Label = %v, want Unknown", a.Label())
	}
	if a.Message != "no significant shape detected" {
		t.Errorf("Message = %q", a.Message)
	}
	if a.LargestArea >= 100 {
		t.Errorf("LargestArea = %v, want < 100", a.LargestArea)
	}
}

func TestAnalyze_LargestRegionWins(t *testing.T) {
	d := newTestDetector(t)
	m := rectMask(200, 120, 10, 10, 40, 40)
	for y := 30; y < 90; y++ {
		for x := 60; x < 180; x++ {
			m.Set(x, y, true)
		}
	}

	a := analyze(t, d, m)
	if a.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", a.Candidates)
	}
	if a.Label() != Rectangle {
		t.Errorf("Label = %v, want Rectangle from the larger region", a.Label())
	}
}

func TestAnalyze_InvalidMask(t *testing.T) {
	d := newTestDetector(t)
	if _, err := d.Analyze(emptyMask{}); !errors.Is(err, ErrInvalidMask) {
		t.Errorf("err = %v, want ErrInvalidMask", err)
	}
}

func TestAnalyzeCurves_StartIndexInvariant(t *testing.T) {
	d := newTestDetector(t)
	masks := map[string]*BinaryMask{
		"circle":    discMask(80, 40, 40, 30),
		"rectangle": rectMask(160, 100, 20, 20, 120, 70),
		"square":    rectMask(100, 100, 20, 20, 60, 60),
		"hexagon":   regularPolygonMask(6, 40),
	}

	for name, m := range masks {
		t.Run(name, func(t *testing.T) {
			curves, err := TraceContours(m)
			if err != nil || len(curves) != 1 {
				t.Fatalf("TraceContours = %d curves, %v", len(curves), err)
			}
			base := d.AnalyzeCurves(curves)
			want := sortedPolygon(base.Polygon)

			c := curves[0]
			for start := 1; start < len(c); start++ {
				rotated := geometry.Curve(geometry.Rotate(c, start))
				got := d.AnalyzeCurves([]geometry.Curve{rotated})
				if got.Label() != base.Label() {
					t.Fatalf("start %d: label %v, want %v", start, got.Label(), base.Label())
				}
				gp := sortedPolygon(got.Polygon)
				if len(gp) != len(want) {
					t.Fatalf("start %d: %d vertices, want %d", start, len(gp), len(want))
				}
				for i := range want {
					if gp[i] != want[i] {
						t.Fatalf("start %d: polygon %v, want %v", start, gp, want)
					}
				}
			}
		})
	}
}

func TestAnalyzeCurves_Empty(t *testing.T) {
	d := newTestDetector(t)
	a := d.AnalyzeCurves(nil)
	if a.Outcome != NoShapes || a.Candidates != 0 {
		t.Errorf("AnalyzeCurves(nil) = %+v", a)
	}
}

func TestInspectAll_SortedByArea(t *testing.T) {
	d := newTestDetector(t)
	m := rectMask(200, 200, 5, 5, 20, 20)
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			m.Set(x, y, true)
		}
	}
	for y := 160; y < 190; y++ {
		for x := 10; x < 70; x++ {
			m.Set(x, y, true)
		}
	}

	ins, err := d.InspectAll(m)
	if err != nil {
		t.Fatalf("InspectAll failed: %v", err)
	}
	if len(ins) != 3 {
		t.Fatalf("got %d inspections, want 3", len(ins))
	}
	for i := 1; i < len(ins); i++ {
		if ins[i].Summary.Area > ins[i-1].Summary.Area {
			t.Errorf("inspections not sorted by area: %v then %v", ins[i-1].Summary.Area, ins[i].Summary.Area)
		}
	}
	if ins[0].Label != Square || ins[1].Label != Rectangle {
		t.Errorf("labels = %v, %v; want Square, Rectangle", ins[0].Label, ins[1].Label)
	}
}

func TestDetector_ConcurrentUse(t *testing.T) {
	d := newTestDetector(t)
	masks := []*BinaryMask{
		rectMask(100, 100, 20, 20, 60, 60),
		rectMask(160, 100, 20, 20, 120, 70),
		discMask(80, 40, 40, 30),
	}
	want := []ShapeLabel{Square, Rectangle, Circle}

	var wg sync.WaitGroup
	got := make([]ShapeLabel, len(masks)*4)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := d.Analyze(masks[i%len(masks)])
			if err != nil {
				t.Errorf("Analyze failed: %v", err)
				return
			}
			got[i] = a.Label()
		}(i)
	}
	wg.Wait()

	for i, l := range got {
		if l != want[i%len(want)] {
			t.Errorf("run %d: label %v, want %v", i, l, want[i%len(want)])
		}
	}
}

func TestAnalyzeReference_Unavailable(t *testing.T) {
	if ReferenceAvailable() {
		t.Skip("opencv reference engine compiled in")
	}
	d := newTestDetector(t)
	_, err := d.AnalyzeReference(rectMask(50, 50, 10, 10, 40, 40))
	if !errors.Is(err, ErrReferenceUnavailable) {
		t.Errorf("err = %v, want ErrReferenceUnavailable", err)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    Outcome
		name string
		msg  string
	}{
		{Classified, "classified", MessageClassified},
		{NoShapes, "no_shapes", MessageNoShapes},
		{BelowThreshold, "below_threshold", MessageBelowThreshold},
	}
	for _, tt := range tests {
		if tt.o.String() != tt.name || tt.o.Message() != tt.msg {
			t.Errorf("Outcome %d = %q / %q", int(tt.o), tt.o.String(), tt.o.Message())
		}
	}
}
