package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Mode selects how an image is binarised.
type Mode string

const (
	// ModeThreshold marks pixels darker than MaskOptions.Threshold as
	// foreground, so filled dark shapes on a light background become solid
	// regions.
	ModeThreshold Mode = "threshold"

	// ModeCanny marks edge pixels as foreground. Shapes become one-pixel
	// outlines.
	ModeCanny Mode = "canny"
)

// ErrUnknownMode is returned for a Mode other than threshold or canny.
var ErrUnknownMode = errors.New("unknown mask mode")

// ParseMode parses a case-insensitive mode name. The empty string selects
// ModeThreshold.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeThreshold):
		return ModeThreshold, nil
	case string(ModeCanny):
		return ModeCanny, nil
	}
	return "", fmt.Errorf("%w: %q (want threshold or canny)", ErrUnknownMode, s)
}

// MaskOptions controls mask production.
type MaskOptions struct {
	Mode Mode `json:"mode"`

	// Threshold is the gray level separating foreground from background in
	// ModeThreshold. Pixels at or below it are foreground.
	Threshold uint8 `json:"threshold"`

	// LightForeground flips ModeThreshold so pixels above Threshold are
	// foreground instead.
	LightForeground bool `json:"light_foreground"`

	// BlurRadius is the Gaussian blur radius applied before binarising.
	// Zero disables blurring.
	BlurRadius float64 `json:"blur_radius"`

	// CannyLow and CannyHigh are the hysteresis thresholds of ModeCanny,
	// on the 0-255 gradient scale.
	CannyLow  int `json:"canny_low"`
	CannyHigh int `json:"canny_high"`

	// MaxDimension downscales larger images so their longest side fits.
	// Zero keeps the source size.
	MaxDimension int `json:"max_dimension"`
}

// DefaultMaskOptions returns an inverse threshold at 60 after a 5×5-ish
// Gaussian blur, with Canny thresholds of 50/150 and a 1024px working size.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{
		Mode:         ModeThreshold,
		Threshold:    60,
		BlurRadius:   2,
		CannyLow:     50,
		CannyHigh:    150,
		MaxDimension: 1024,
	}
}

// Validate checks the options for internal consistency.
func (o MaskOptions) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.BlurRadius < 0 {
		return fmt.Errorf("blur radius %v is negative", o.BlurRadius)
	}
	if o.CannyLow < 0 || o.CannyLow > o.CannyHigh {
		return fmt.Errorf("canny thresholds %d/%d out of range", o.CannyLow, o.CannyHigh)
	}
	if o.MaxDimension < 0 {
		return fmt.Errorf("max dimension %d is negative", o.MaxDimension)
	}
	return nil
}

// Binary is a binarised image. Foreground pixels are 255, background 0.
// It satisfies detection.Mask.
type Binary struct {
	gray *image.Gray
}

// NewBinary wraps gray; any non-zero pixel is foreground.
func NewBinary(gray *image.Gray) *Binary {
	return &Binary{gray: gray}
}

// Width returns the mask width in pixels.
func (b *Binary) Width() int { return b.gray.Bounds().Dx() }

// Height returns the mask height in pixels.
func (b *Binary) Height() int { return b.gray.Bounds().Dy() }

// At reports whether (x, y) is foreground, with (0, 0) the top-left pixel
// regardless of the underlying image bounds.
func (b *Binary) At(x, y int) bool {
	r := b.gray.Bounds()
	if x < 0 || y < 0 || x >= r.Dx() || y >= r.Dy() {
		return false
	}
	return b.gray.GrayAt(r.Min.X+x, r.Min.Y+y).Y != 0
}

// Count returns the number of foreground pixels.
func (b *Binary) Count() int {
	n := 0
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if b.At(x, y) {
				n++
			}
		}
	}
	return n
}

// Image returns the mask as a grayscale image.
func (b *Binary) Image() *image.Gray { return b.gray }

// Prepared holds the working image and its mask. Coordinates found in Mask
// refer to Working; multiply by Scale to map them back to the source image.
type Prepared struct {
	Working image.Image
	Mask    *Binary
	Scale   float64
}

// Prepare downscales img to opts.MaxDimension when needed and binarises it.
func Prepare(img image.Image, opts MaskOptions) (*Prepared, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}

	working := img
	scale := 1.0
	if m := opts.MaxDimension; m > 0 && (b.Dx() > m || b.Dy() > m) {
		fitted := imaging.Fit(img, m, m, imaging.Lanczos)
		scale = float64(b.Dx()) / float64(fitted.Bounds().Dx())
		working = fitted
	}

	mask, err := BuildMask(working, opts)
	if err != nil {
		return nil, err
	}
	return &Prepared{Working: working, Mask: mask, Scale: scale}, nil
}

// BuildMask binarises img at its own resolution.
//
// # Threshold Mode
//
//  1. Grayscale conversion
//  2. Gaussian blur of BlurRadius
//  3. Inverse binary threshold: gray <= Threshold is foreground
//     (gray > Threshold with LightForeground)
//
// Transparent areas are composited onto white first, so they count as
// background.
//
// # Canny Mode
//
// Grayscale, blur, then the Sobel / non-maximum suppression / hysteresis
// steps of cannyEdges with CannyLow and CannyHigh.
func BuildMask(img image.Image, opts MaskOptions) (*Binary, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	gray := effect.Grayscale(flatten(img))
	var smoothed image.Image = gray
	if opts.BlurRadius > 0 {
		smoothed = blur.Gaussian(gray, opts.BlurRadius)
	}

	switch mode {
	case ModeCanny:
		return NewBinary(cannyEdges(smoothed, opts.CannyLow, opts.CannyHigh)), nil
	default:
		return NewBinary(thresholdMask(smoothed, opts.Threshold, opts.LightForeground)), nil
	}
}

// flatten composites img onto an opaque white canvas.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func thresholdMask(img image.Image, level uint8, lightForeground bool) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if level == 255 {
		// nothing is brighter than 255
		if !lightForeground {
			for i := range out.Pix {
				out.Pix[i] = 255
			}
		}
		return out
	}

	// white where gray >= level+1, i.e. gray > level
	bright := segment.Threshold(img, level+1)
	bb := bright.Bounds()
	for y := 0; y < bb.Dy(); y++ {
		for x := 0; x < bb.Dx(); x++ {
			isBright := bright.GrayAt(bb.Min.X+x, bb.Min.Y+y).Y != 0
			if isBright == lightForeground {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// EncodeMask renders a mask as a base64 PNG, foreground white.
func EncodeMask(m *Binary) (*EncodedImage, error) {
	return EncodePNG(m.Image())
}
