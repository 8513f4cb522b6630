package detection

import (
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Outcome is the terminal state of region selection.
type Outcome int

const (
	// Classified means a region passed the area threshold and was labelled.
	Classified Outcome = iota
	// NoShapes means the mask had no traceable foreground component.
	NoShapes
	// BelowThreshold means the largest region was smaller than MinArea.
	BelowThreshold
)

// Diagnostic messages reported alongside each Outcome.
const (
	MessageClassified     = "shape classified"
	MessageNoShapes       = "no shapes found"
	MessageBelowThreshold = "no significant shape detected"
)

var outcomeNames = map[Outcome]string{
	Classified:     "classified",
	NoShapes:       "no_shapes",
	BelowThreshold: "below_threshold",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Message returns the diagnostic message for o.
func (o Outcome) Message() string {
	switch o {
	case NoShapes:
		return MessageNoShapes
	case BelowThreshold:
		return MessageBelowThreshold
	default:
		return MessageClassified
	}
}

// Selection is the result of SelectRegion. Curve is set only when Outcome is
// Classified; Index is -1 otherwise. Area holds the largest area found.
type Selection struct {
	Outcome Outcome
	Curve   geometry.Curve
	Area    float64
	Index   int
}

// SelectRegion picks the curve with the largest enclosed area. Ties keep the
// earliest curve. A largest area below minArea yields BelowThreshold and an
// empty input yields NoShapes.
func SelectRegion(curves []geometry.Curve, minArea float64) Selection {
	if len(curves) == 0 {
		return Selection{Outcome: NoShapes, Index: -1}
	}

	best, bestArea := 0, geometry.Area(curves[0])
	for i := 1; i < len(curves); i++ {
		if a := geometry.Area(curves[i]); a > bestArea {
			best, bestArea = i, a
		}
	}

	if bestArea < minArea {
		return Selection{Outcome: BelowThreshold, Area: bestArea, Index: -1}
	}
	return Selection{Outcome: Classified, Curve: curves[best], Area: bestArea, Index: best}
}
