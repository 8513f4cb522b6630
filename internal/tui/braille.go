package tui

import (
	"math"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

// dot bits indexed by [column][row] within a 2x4 cell
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBits[rx][ry]
}

func (b *brailleBuf) isSet(mx, my int) bool {
	if mx < 0 || my < 0 || mx/2 >= b.w || my/4 >= b.h {
		return false
	}
	return b.m[my/4][mx/2]&brailleBits[mx%2][my%4] != 0
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

// projection maps image pixels onto the microgrid, preserving aspect ratio
// and centring the image.
type projection struct {
	scale  float64
	ox, oy float64
}

func fitProjection(imgW, imgH, cellsW, cellsH int) projection {
	if imgW <= 0 || imgH <= 0 {
		return projection{scale: 1}
	}
	mw, mh := float64(cellsW*2), float64(cellsH*4)
	s := math.Min(mw/float64(imgW), mh/float64(imgH))
	return projection{
		scale: s,
		ox:    (mw - float64(imgW)*s) / 2,
		oy:    (mh - float64(imgH)*s) / 2,
	}
}

func (p projection) micro(pt geometry.Point) (int, int) {
	return int(math.Floor(p.ox + pt.X*p.scale)), int(math.Floor(p.oy + pt.Y*p.scale))
}

// image returns the image pixel under micro-pixel (mx, my).
func (p projection) image(mx, my int) (int, int) {
	return int(math.Floor((float64(mx) + 0.5 - p.ox) / p.scale)),
		int(math.Floor((float64(my) + 0.5 - p.oy) / p.scale))
}

// drawPath draws pts as connected segments, closing the loop when closed
// is set.
func (b *brailleBuf) drawPath(p projection, pts []geometry.Point, closed bool) {
	if len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		b.setPixel(p.micro(pts[0]))
		return
	}
	n := len(pts) - 1
	if closed {
		n = len(pts)
	}
	for i := 0; i < n; i++ {
		x0, y0 := p.micro(pts[i])
		x1, y1 := p.micro(pts[(i+1)%len(pts)])
		b.drawLineMicro(x0, y0, x1, y1)
	}
}

// pixelSource is the subset of imaging.Binary the canvas samples.
type pixelSource interface {
	Width() int
	Height() int
	At(x, y int) bool
}

// fillMask sets every micro-pixel whose image pixel is foreground.
func (b *brailleBuf) fillMask(p projection, m pixelSource) {
	for my := 0; my < b.h*4; my++ {
		for mx := 0; mx < b.w*2; mx++ {
			x, y := p.image(mx, my)
			if x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
				continue
			}
			if m.At(x, y) {
				b.setPixel(mx, my)
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
