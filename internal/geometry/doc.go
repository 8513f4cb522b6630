// Package geometry holds the value types and pure measurements used by shape
// classification.
//
// A Curve is an ordered, closed loop of points: the last point connects back
// to the first. A Polygon is the vertex-reduced form of a Curve produced by
// Simplify. Neither type is mutated after construction; every function in this
// package returns a new value.
//
// # Coordinate System
//
// Points use image coordinates:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Traced boundaries use pixel centres, so a filled N×N square traces to a
// Curve whose corners are N-1 apart and whose enclosed area is (N-1)².
//
// # Degenerate Input
//
// Measurements never fail. A curve with zero perimeter has zero circularity,
// and a curve with zero enclosed area has its centroid at (0, 0).
package geometry
