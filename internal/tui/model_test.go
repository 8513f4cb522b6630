package tui

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
	"github.com/ironsheep/shape-finder-mcp/internal/pipeline"
)

// writeSquares writes a white PNG with a black square per rectangle.
func writeSquares(t *testing.T, w, h int, rects ...image.Rectangle) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
			for _, r := range rects {
				if image.Pt(x, y).In(r) {
					img.Set(x, y, color.Black)
				}
			}
		}
	}
	path := filepath.Join(t.TempDir(), "view.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func newTestModel(t *testing.T, path string) Model {
	t.Helper()
	p, err := pipeline.New(nil, detection.DefaultConfig(), imaging.DefaultMaskOptions())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	m := NewWithPath(p, path)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(Model)
}

func TestModel_LoadsAndRenders(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)

	if m.err != nil {
		t.Fatalf("load error: %v", m.err)
	}
	if m.run.Analysis.Label() != detection.Square {
		t.Fatalf("label = %s, want Square", m.run.Analysis.Label())
	}

	view := m.View()
	if !strings.Contains(view, "Square") {
		t.Error("view should show the label")
	}
	if !strings.Contains(view, "view.png") {
		t.Error("view should show the file name")
	}
	hasBraille := false
	for _, r := range view {
		if r > 0x2800 && r <= 0x28FF {
			hasBraille = true
			break
		}
	}
	if !hasBraille {
		t.Error("canvas has no braille dots")
	}
}

func TestModel_EmptyBeforeResize(t *testing.T) {
	path := writeSquares(t, 40, 40)
	p, _ := pipeline.New(nil, detection.DefaultConfig(), imaging.DefaultMaskOptions())
	if v := NewWithPath(p, path).View(); v != "" {
		t.Errorf("view before the first WindowSizeMsg = %q, want empty", v)
	}
}

func TestModel_LayerToggles(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)

	if !m.showCurve || !m.showPolygon || m.showMask {
		t.Fatalf("default layers: curve %v polygon %v mask %v", m.showCurve, m.showPolygon, m.showMask)
	}
	m = press(t, m, "c")
	m = press(t, m, "p")
	m = press(t, m, "m")
	if m.showCurve || m.showPolygon || !m.showMask {
		t.Errorf("after toggles: curve %v polygon %v mask %v", m.showCurve, m.showPolygon, m.showMask)
	}
	if m.status != "mask: true" {
		t.Errorf("status = %q", m.status)
	}

	m = press(t, m, "h")
	if m.helpVisible {
		t.Error("h should hide help")
	}
}

func TestModel_CanvasLayers(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)

	dots := func(s string) int {
		n := 0
		for _, r := range s {
			if r >= 0x2800 && r <= 0x28FF {
				n++
			}
		}
		return n
	}

	outline := dots(m.renderCanvas(40, 20))
	m.showMask = true
	filled := dots(m.renderCanvas(40, 20))
	if filled <= outline {
		t.Errorf("mask layer should add cells: outline %d, filled %d", outline, filled)
	}
}

func TestModel_ModeSwitch(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)

	m = press(t, m, "e")
	if m.opts.Mode != imaging.ModeCanny || m.run.Mode != imaging.ModeCanny {
		t.Fatalf("mode = %s / %s, want canny", m.opts.Mode, m.run.Mode)
	}
	if m.run.Analysis.Label() != detection.Square {
		t.Errorf("canny label = %s, want Square", m.run.Analysis.Label())
	}

	m = press(t, m, "e")
	if m.opts.Mode != imaging.ModeThreshold {
		t.Errorf("second e should switch back, got %s", m.opts.Mode)
	}
}

func TestModel_Threshold(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)
	start := m.opts.Threshold

	m = press(t, m, "+")
	if m.opts.Threshold != start+thresholdStep {
		t.Errorf("threshold = %d, want %d", m.opts.Threshold, start+thresholdStep)
	}
	m = press(t, m, "-")
	m = press(t, m, "-")
	if m.opts.Threshold != start-thresholdStep {
		t.Errorf("threshold = %d, want %d", m.opts.Threshold, start-thresholdStep)
	}
}

func TestModel_Invert(t *testing.T) {
	path := writeSquares(t, 120, 120, image.Rect(30, 30, 90, 90))
	m := newTestModel(t, path)

	m = press(t, m, "i")
	if !m.opts.LightForeground {
		t.Fatal("i should flip the foreground")
	}
	// the white frame around the square becomes the shape
	if m.run.Analysis.Outcome != detection.Classified {
		t.Errorf("inverted outcome = %s", m.run.Analysis.Outcome)
	}
}

func TestModel_Table(t *testing.T) {
	path := writeSquares(t, 160, 100, image.Rect(10, 10, 60, 60), image.Rect(90, 20, 150, 80))
	m := newTestModel(t, path)

	if len(m.contours) != 2 {
		t.Fatalf("contours = %d, want 2", len(m.contours))
	}
	if rows := m.tbl.Rows(); len(rows) != 2 || rows[0][1] != "Square" {
		t.Errorf("table rows = %v", rows)
	}

	m = press(t, m, "t")
	if !m.showTable {
		t.Fatal("t should show the table")
	}
	if !strings.Contains(m.View(), "Vertices") {
		t.Error("table view should show column titles")
	}
}

func TestModel_TableEmpty(t *testing.T) {
	path := writeSquares(t, 40, 40)
	m := newTestModel(t, path)

	m = press(t, m, "t")
	if m.showTable {
		t.Error("table should stay hidden without contours")
	}
	if m.status != "no contours" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_MissingFile(t *testing.T) {
	m := newTestModel(t, filepath.Join(t.TempDir(), "missing.png"))

	if m.err == nil {
		t.Fatal("expected a load error")
	}
	if !strings.HasPrefix(m.status, "error: ") {
		t.Errorf("status = %q", m.status)
	}
	if m.View() == "" {
		t.Error("view should render the error")
	}
}

func TestModel_Quit(t *testing.T) {
	path := writeSquares(t, 40, 40)
	m := newTestModel(t, path)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
