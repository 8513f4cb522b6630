package detection

import (
	"fmt"
	"sort"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Detector runs the mask-to-label pipeline with a fixed Config. It holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector validates cfg and returns a Detector using it.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// Inspection is the classification of a single curve, without region
// selection.
type Inspection struct {
	Label       ShapeLabel       `json:"label"`
	Polygon     geometry.Polygon `json:"polygon"`
	VertexCount int              `json:"vertices"`
	Summary     geometry.Summary `json:"summary"`
	Circularity float64          `json:"circularity"`
	// AspectRatio is the polygon's bounding-box width/height, 0 when the
	// height is zero.
	AspectRatio float64 `json:"aspect_ratio"`
}

// Inspect simplifies and classifies c on its own.
func (d *Detector) Inspect(c geometry.Curve) Inspection {
	summary := geometry.Summarize(c)
	poly := geometry.Simplify(c, d.cfg.SimplifyFraction*summary.Perimeter)
	circ := summary.Circularity()
	ratio, _ := geometry.Bounds(poly).AspectRatio()

	return Inspection{
		Label:       d.cfg.Classify(poly, circ),
		Polygon:     poly,
		VertexCount: poly.Len(),
		Summary:     summary,
		Circularity: circ,
		AspectRatio: ratio,
	}
}

// Analysis is the full result of one pipeline run.
type Analysis struct {
	Outcome Outcome              `json:"outcome"`
	Message string               `json:"message"`
	Result  ClassificationResult `json:"result"`

	// Candidates is the number of traced external curves.
	Candidates int `json:"candidates"`

	// The fields below are set only when Outcome is Classified.
	Summary     *geometry.Summary `json:"summary,omitempty"`
	Curve       geometry.Curve    `json:"curve,omitempty"`
	Polygon     geometry.Polygon  `json:"polygon,omitempty"`
	VertexCount int               `json:"vertices,omitempty"`
	Circularity float64           `json:"circularity,omitempty"`
	AspectRatio float64           `json:"aspect_ratio,omitempty"`

	// LargestArea is the area of the biggest candidate, reported for
	// BelowThreshold diagnostics as well.
	LargestArea float64 `json:"largest_area,omitempty"`
}

// Label is shorthand for a.Result.Label.
func (a *Analysis) Label() ShapeLabel { return a.Result.Label }

// Analyze traces m and classifies its largest region.
//
// Only an unusable mask is an error. Empty masks and small regions produce
// an Analysis labelled Unknown with the matching Outcome.
func (d *Detector) Analyze(m Mask) (*Analysis, error) {
	curves, err := TraceContours(m)
	if err != nil {
		return nil, fmt.Errorf("tracing contours: %w", err)
	}
	return d.AnalyzeCurves(curves), nil
}

// AnalyzeCurves classifies the largest of curves.
func (d *Detector) AnalyzeCurves(curves []geometry.Curve) *Analysis {
	sel := SelectRegion(curves, d.cfg.MinArea)
	a := &Analysis{
		Outcome:     sel.Outcome,
		Message:     sel.Outcome.Message(),
		Result:      NewResult(Unknown),
		Candidates:  len(curves),
		LargestArea: sel.Area,
	}
	if sel.Outcome != Classified {
		return a
	}

	in := d.Inspect(sel.Curve)
	a.Result = NewResult(in.Label)
	a.Summary = &in.Summary
	a.Curve = sel.Curve
	a.Polygon = in.Polygon
	a.VertexCount = in.VertexCount
	a.Circularity = in.Circularity
	a.AspectRatio = in.AspectRatio
	return a
}

// InspectAll classifies every traced curve of m, largest area first.
func (d *Detector) InspectAll(m Mask) ([]Inspection, error) {
	curves, err := TraceContours(m)
	if err != nil {
		return nil, fmt.Errorf("tracing contours: %w", err)
	}
	out := make([]Inspection, len(curves))
	for i, c := range curves {
		out[i] = d.Inspect(c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Summary.Area > out[j].Summary.Area
	})
	return out, nil
}
