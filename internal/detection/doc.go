// Package detection turns a binary mask into a shape label.
//
// The pipeline runs in one direction only:
//
//	mask -> TraceContours -> SelectRegion -> geometry.Simplify -> Config.Classify
//
// Each stage allocates its own output and never mutates its input, so a
// Detector can be shared across goroutines and independent masks can be
// analysed in parallel.
//
// # Contour Tracing
//
// Foreground pixels are grouped into 8-connected components with an
// iterative flood fill. Each component's outer boundary is then followed
// clockwise with Moore-neighbour tracing, starting from its top-most,
// left-most pixel. Holes are never traced. Straight runs are compressed to
// their end points, so an axis-aligned filled square yields exactly its four
// corner pixels.
//
// # Region Selection
//
// The curve enclosing the largest area wins. Two outcomes short-circuit
// classification and report ShapeLabel Unknown:
//
//   - NoShapes: nothing was traced ("no shapes found")
//   - BelowThreshold: the largest area is under Config.MinArea
//     ("no significant shape detected")
//
// Neither is an error. Only a mask with zero width or height is rejected,
// with ErrInvalidMask.
//
// # Classification
//
// The selected curve is simplified with a tolerance of
// Config.SimplifyFraction times its perimeter, and the vertex count decides
// the label: 3 Triangle, 4 Square or Rectangle by aspect ratio, 5 Pentagon,
// 6 Hexagon. Any other count falls back to circularity of the unsimplified
// curve (4π·area/perimeter²), which must exceed Config.CircularityCutoff for
// Circle.
//
// # Coordinate System
//
// Points are pixel centres: origin at top-left, X rightward, Y downward. A
// filled N×N square therefore has a bounding box of (N-1)×(N-1).
//
// # OpenCV Reference
//
// Building with -tags opencv links gocv and enables
// Detector.AnalyzeReference, which runs the same decision rules over
// OpenCV's findContours and approxPolyDP for side-by-side comparison.
package detection
