package imaging

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Overlay is what Annotate draws. Points are in the image's pixel space.
type Overlay struct {
	Curve    []geometry.Point
	Polygon  []geometry.Point
	Centroid *geometry.Point
	Label    string
}

// AnnotateOptions selects overlay colors ("#RRGGBB") and line thickness.
type AnnotateOptions struct {
	ContourColor  string `json:"contour_color"`
	PolygonColor  string `json:"polygon_color"`
	CentroidColor string `json:"centroid_color"`
	Thickness     int    `json:"thickness"`
}

// DefaultAnnotateOptions draws the contour green, the polygon blue and the
// centroid red, two pixels wide.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		ContourColor:  "#00FF00",
		PolygonColor:  "#0000FF",
		CentroidColor: "#FF0000",
		Thickness:     2,
	}
}

// Annotate returns a copy of img with ov drawn on top. Empty color strings
// fall back to the defaults; malformed ones are an error.
func Annotate(img image.Image, ov Overlay, opts AnnotateOptions) (*image.NRGBA, error) {
	def := DefaultAnnotateOptions()
	pick := func(s, fallback string) (color.Color, error) {
		if s == "" {
			s = fallback
		}
		return ParseColor(s)
	}
	contourColor, err := pick(opts.ContourColor, def.ContourColor)
	if err != nil {
		return nil, err
	}
	polygonColor, err := pick(opts.PolygonColor, def.PolygonColor)
	if err != nil {
		return nil, err
	}
	centroidColor, err := pick(opts.CentroidColor, def.CentroidColor)
	if err != nil {
		return nil, err
	}
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = def.Thickness
	}

	canvas := imaging.Clone(img)

	drawClosedPath(canvas, ov.Curve, contourColor, thickness)
	drawClosedPath(canvas, ov.Polygon, polygonColor, thickness)
	if ov.Centroid != nil {
		c := ov.Centroid.ImagePoint()
		size := 3 + thickness
		drawLine(canvas, image.Pt(c.X-size, c.Y), image.Pt(c.X+size, c.Y), centroidColor, thickness)
		drawLine(canvas, image.Pt(c.X, c.Y-size), image.Pt(c.X, c.Y+size), centroidColor, thickness)
	}

	if ov.Label != "" {
		anchor := image.Pt(2, 2)
		if len(ov.Curve) > 0 {
			b := geometry.Bounds(ov.Curve)
			anchor = geometry.Point{X: b.X, Y: b.Y - 10}.ImagePoint()
			if anchor.Y < 1 {
				anchor.Y = 1
			}
		}
		drawLabel(canvas, anchor.X, anchor.Y, strings.ToUpper(ov.Label),
			color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 180})
	}

	return canvas, nil
}

func drawClosedPath(img *image.NRGBA, pts []geometry.Point, c color.Color, thickness int) {
	n := len(pts)
	if n == 0 {
		return
	}
	if n == 1 {
		stamp(img, pts[0].ImagePoint(), c, thickness)
		return
	}
	for i := 0; i < n; i++ {
		drawLine(img, pts[i].ImagePoint(), pts[(i+1)%n].ImagePoint(), c, thickness)
	}
}

// drawLine draws a Bresenham line stamped with a square brush.
func drawLine(img *image.NRGBA, a, b image.Point, c color.Color, thickness int) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	p := a
	for {
		stamp(img, p, c, thickness)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

func stamp(img *image.NRGBA, p image.Point, c color.Color, thickness int) {
	bounds := img.Bounds()
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	for dy := lo; dy <= hi; dy++ {
		for dx := lo; dx <= hi; dx++ {
			q := image.Pt(p.X+dx, p.Y+dy)
			if q.In(bounds) {
				img.Set(q.X, q.Y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// 3x5 pixel font covering digits, the letters of the shape names and a
// little punctuation.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'.': {"000", "000", "000", "000", "010"},
	'A': {"010", "101", "111", "101", "101"},
	'C': {"011", "100", "100", "100", "011"},
	'E': {"111", "100", "110", "100", "111"},
	'G': {"011", "100", "101", "101", "011"},
	'H': {"101", "101", "111", "101", "101"},
	'I': {"111", "010", "010", "010", "111"},
	'K': {"101", "110", "100", "110", "101"},
	'L': {"100", "100", "100", "100", "111"},
	'N': {"110", "101", "101", "101", "101"},
	'O': {"010", "101", "101", "101", "010"},
	'P': {"110", "101", "110", "100", "100"},
	'Q': {"010", "101", "101", "110", "011"},
	'R': {"110", "101", "110", "101", "101"},
	'S': {"011", "100", "010", "001", "110"},
	'T': {"111", "010", "010", "010", "010"},
	'U': {"101", "101", "101", "101", "111"},
	'W': {"101", "101", "111", "111", "101"},
	'X': {"101", "101", "010", "101", "101"},
}

// drawLabel draws text at (x, y) on a filled background. Runes without a
// glyph leave a blank cell.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len([]rune(text)) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if image.Pt(px, py).In(bounds) {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if image.Pt(px, py).In(bounds) {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
