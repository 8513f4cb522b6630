package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in several representations.
type ColorResult struct {
	Hex string   `json:"hex"` // "#RRGGBB" (no alpha)
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

func newColorResult(r, g, b uint8) ColorResult {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return ColorResult{
		Hex: strings.ToUpper(c.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}

// SampleColor returns the color at pixel (x, y).
//
// Returns an error if the coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, _ := img.At(x, y).RGBA()
	res := newColorResult(uint8(r>>8), uint8(g>>8), uint8(b>>8))
	return &res, nil
}

// MeanColor averages the colors of img under the foreground pixels of mask
// inside box. box is in mask coordinates, which match img's when img is the
// image the mask was built from.
//
// Returns an error if no foreground pixel falls inside box.
func MeanColor(img image.Image, mask *Binary, box image.Rectangle) (*ColorResult, error) {
	box = box.Intersect(image.Rect(0, 0, mask.Width(), mask.Height()))
	origin := img.Bounds().Min

	var sumR, sumG, sumB, n float64
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if !mask.At(x, y) {
				continue
			}
			r, g, b, _ := img.At(origin.X+x, origin.Y+y).RGBA()
			sumR += float64(r >> 8)
			sumG += float64(g >> 8)
			sumB += float64(b >> 8)
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("no foreground pixels in region %v", box)
	}

	res := newColorResult(
		uint8(math.Round(sumR/n)),
		uint8(math.Round(sumG/n)),
		uint8(math.Round(sumB/n)),
	)
	return &res, nil
}

// ParseColor parses a "#RRGGBB" hex string.
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}
