package detection

import (
	"errors"
	"fmt"
)

// ErrInvalidMask is returned when a mask has zero width or height, or when
// its rows are ragged.
var ErrInvalidMask = errors.New("invalid mask")

// Mask is a read-only binary image. At reports whether the pixel at (x, y)
// is foreground; coordinates outside the mask are background.
type Mask interface {
	Width() int
	Height() int
	At(x, y int) bool
}

// BinaryMask is a dense row-major Mask.
type BinaryMask struct {
	w, h int
	pix  []bool
}

// NewBinaryMask allocates an all-background mask of the given size.
func NewBinaryMask(width, height int) (*BinaryMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidMask, width, height)
	}
	return &BinaryMask{w: width, h: height, pix: make([]bool, width*height)}, nil
}

// MaskFromRows builds a mask from rows[y][x]. All rows must have the same
// length.
func MaskFromRows(rows [][]bool) (*BinaryMask, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidMask)
	}
	m, err := NewBinaryMask(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != m.w {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMask, y, len(row), m.w)
		}
		copy(m.pix[y*m.w:(y+1)*m.w], row)
	}
	return m, nil
}

// Width returns the mask width in pixels.
func (m *BinaryMask) Width() int { return m.w }

// Height returns the mask height in pixels.
func (m *BinaryMask) Height() int { return m.h }

// At reports whether (x, y) is foreground.
func (m *BinaryMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.pix[y*m.w+x]
}

// Set marks (x, y) as foreground or background. Out-of-range coordinates are
// ignored.
func (m *BinaryMask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return
	}
	m.pix[y*m.w+x] = v
}

// Count returns the number of foreground pixels.
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.pix {
		if v {
			n++
		}
	}
	return n
}

func validateMask(m Mask) error {
	if m == nil {
		return fmt.Errorf("%w: nil mask", ErrInvalidMask)
	}
	if m.Width() <= 0 || m.Height() <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidMask, m.Width(), m.Height())
	}
	return nil
}
