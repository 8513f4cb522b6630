//go:build opencv

package detection

import (
	"gocv.io/x/gocv"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

func init() {
	referenceEngine = analyzeOpenCV
}

func analyzeOpenCV(m Mask, cfg Config) (*Analysis, error) {
	w, h := m.Width(), m.Height()
	binary := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	defer binary.Close()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) {
				binary.SetUCharAt(y, x, 255)
			}
		}
	}

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	a := &Analysis{
		Outcome:    NoShapes,
		Message:    MessageNoShapes,
		Result:     NewResult(Unknown),
		Candidates: contours.Size(),
	}
	if contours.Size() == 0 {
		return a, nil
	}

	largest, largestArea := -1, 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); largest < 0 || area > largestArea {
			largest, largestArea = i, area
		}
	}
	a.LargestArea = largestArea
	if largestArea < cfg.MinArea {
		a.Outcome = BelowThreshold
		a.Message = MessageBelowThreshold
		return a, nil
	}

	contour := contours.At(largest)
	perimeter := gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, cfg.SimplifyFraction*perimeter, true)
	defer approx.Close()

	curve := make(geometry.Curve, 0, contour.Size())
	for _, p := range contour.ToPoints() {
		curve = append(curve, geometry.FromImagePoint(p))
	}
	poly := make(geometry.Polygon, 0, approx.Size())
	for _, p := range approx.ToPoints() {
		poly = append(poly, geometry.FromImagePoint(p))
	}

	circ := geometry.Circularity(largestArea, perimeter)
	rect := gocv.BoundingRect(approx)
	ratio := 0.0
	if rect.Dy() > 0 {
		ratio = float64(rect.Dx()) / float64(rect.Dy())
	}

	label := cfg.Classify(poly, circ)
	if poly.Len() == 4 {
		// keep OpenCV's inclusive box for the aspect window
		label = Rectangle
		if ratio >= cfg.SquareAspectMin && ratio <= cfg.SquareAspectMax {
			label = Square
		}
	}

	summary := geometry.Summarize(curve)
	a.Outcome = Classified
	a.Message = MessageClassified
	a.Result = NewResult(label)
	a.Summary = &summary
	a.Curve = curve
	a.Polygon = poly
	a.VertexCount = poly.Len()
	a.Circularity = circ
	a.AspectRatio = ratio
	return a, nil
}
