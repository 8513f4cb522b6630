package detection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// ShapeLabel is the closed set of shapes the classifier can report.
type ShapeLabel int

const (
	Unknown ShapeLabel = iota
	Triangle
	Square
	Rectangle
	Pentagon
	Hexagon
	Circle
)

// AllLabels lists every label in declaration order.
var AllLabels = []ShapeLabel{Unknown, Triangle, Square, Rectangle, Pentagon, Hexagon, Circle}

var labelNames = [...]string{
	Unknown:   "Unknown",
	Triangle:  "Triangle",
	Square:    "Square",
	Rectangle: "Rectangle",
	Pentagon:  "Pentagon",
	Hexagon:   "Hexagon",
	Circle:    "Circle",
}

var labelDescriptions = [...]string{
	Unknown:   "The properties of this shape could not be determined.",
	Triangle:  "A triangle has 3 sides and 3 angles, and the sum of its angles is 180 degrees.",
	Square:    "A square has 4 equal sides and 4 right angles (90 degrees).",
	Rectangle: "A rectangle has 4 sides and 4 right angles. Opposite sides are equal in length.",
	Pentagon:  "A pentagon is a polygon with 5 sides and 5 angles.",
	Hexagon:   "A hexagon is a polygon with 6 sides and 6 angles.",
	Circle:    "A circle is a perfectly round shape with no corners or edges. All points are equidistant from the center.",
}

func (l ShapeLabel) valid() bool {
	return l >= Unknown && l <= Circle
}

func (l ShapeLabel) String() string {
	if !l.valid() {
		return labelNames[Unknown]
	}
	return labelNames[l]
}

// Description returns the fixed property sentence for l.
func (l ShapeLabel) Description() string {
	if !l.valid() {
		return labelDescriptions[Unknown]
	}
	return labelDescriptions[l]
}

// ParseShapeLabel maps a case-insensitive label name back to its ShapeLabel.
func ParseShapeLabel(s string) (ShapeLabel, error) {
	for _, l := range AllLabels {
		if strings.EqualFold(s, labelNames[l]) {
			return l, nil
		}
	}
	return Unknown, fmt.Errorf("unknown shape label %q", s)
}

// MarshalText encodes the label by name.
func (l ShapeLabel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a label name.
func (l *ShapeLabel) UnmarshalText(text []byte) error {
	v, err := ParseShapeLabel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ClassificationResult is the terminal output of classification.
type ClassificationResult struct {
	Label       ShapeLabel `json:"label"`
	Description string     `json:"description"`
}

// NewResult builds the result for label l.
func NewResult(l ShapeLabel) ClassificationResult {
	return ClassificationResult{Label: l, Description: l.Description()}
}

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid detection config")

// Config holds the tunable classification constants.
type Config struct {
	// MinArea is the smallest enclosed area, in square pixels, a region
	// needs to be classified.
	MinArea float64 `json:"min_area"`

	// SimplifyFraction scales a curve's perimeter into the Douglas-Peucker
	// tolerance.
	SimplifyFraction float64 `json:"simplify_fraction"`

	// SquareAspectMin and SquareAspectMax bound the width/height ratio of a
	// four-sided polygon that counts as a Square.
	SquareAspectMin float64 `json:"square_aspect_min"`
	SquareAspectMax float64 `json:"square_aspect_max"`

	// CircularityCutoff is the circularity a curve must exceed to be a Circle.
	CircularityCutoff float64 `json:"circularity_cutoff"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinArea:           100,
		SimplifyFraction:  geometry.DefaultSimplifyFraction,
		SquareAspectMin:   0.95,
		SquareAspectMax:   1.05,
		CircularityCutoff: 0.85,
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	switch {
	case c.MinArea < 0:
		return fmt.Errorf("%w: min area %v is negative", ErrInvalidConfig, c.MinArea)
	case c.SimplifyFraction <= 0 || c.SimplifyFraction >= 1:
		return fmt.Errorf("%w: simplify fraction %v must be in (0, 1)", ErrInvalidConfig, c.SimplifyFraction)
	case c.SquareAspectMin <= 0 || c.SquareAspectMax < c.SquareAspectMin:
		return fmt.Errorf("%w: square aspect window [%v, %v]", ErrInvalidConfig, c.SquareAspectMin, c.SquareAspectMax)
	case c.CircularityCutoff < 0 || c.CircularityCutoff > 1:
		return fmt.Errorf("%w: circularity cutoff %v must be in [0, 1]", ErrInvalidConfig, c.CircularityCutoff)
	}
	return nil
}

// Classify labels a simplified polygon. circularity must be computed from
// the unsimplified curve, not the polygon.
//
// Rules are checked in order and the first match wins:
//
//  1. 3 vertices: Triangle
//  2. 4 vertices: Square when the polygon's bounding-box aspect ratio is
//     inside the square window, otherwise Rectangle (zero height included)
//  3. 5 vertices: Pentagon
//  4. 6 vertices: Hexagon
//  5. anything else: Circle when circularity exceeds the cutoff, otherwise
//     Unknown
func (c Config) Classify(poly geometry.Polygon, circularity float64) ShapeLabel {
	switch poly.Len() {
	case 3:
		return Triangle
	case 4:
		ratio, ok := geometry.Bounds(poly).AspectRatio()
		if ok && ratio >= c.SquareAspectMin && ratio <= c.SquareAspectMax {
			return Square
		}
		return Rectangle
	case 5:
		return Pentagon
	case 6:
		return Hexagon
	default:
		if circularity > c.CircularityCutoff {
			return Circle
		}
		return Unknown
	}
}
