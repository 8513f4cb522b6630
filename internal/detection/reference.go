package detection

import "errors"

// ErrReferenceUnavailable is returned by AnalyzeReference when the binary was
// built without the opencv build tag.
var ErrReferenceUnavailable = errors.New("opencv reference engine not compiled in (build with -tags opencv)")

// referenceEngine is set by the opencv build.
var referenceEngine func(m Mask, cfg Config) (*Analysis, error)

// ReferenceAvailable reports whether AnalyzeReference can run.
func ReferenceAvailable() bool { return referenceEngine != nil }

// AnalyzeReference classifies m with OpenCV's contour, arc length and
// polygon approximation routines instead of the built-in tracer. It is meant
// for parity checks: the two engines share thresholds and the decision
// order, but OpenCV measures bounding boxes inclusively and seeds its
// polygon approximation differently, so borderline shapes may disagree.
func (d *Detector) AnalyzeReference(m Mask) (*Analysis, error) {
	if err := validateMask(m); err != nil {
		return nil, err
	}
	if referenceEngine == nil {
		return nil, ErrReferenceUnavailable
	}
	return referenceEngine(m, d.cfg)
}
