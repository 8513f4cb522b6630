// Package pipeline runs the full image to label chain: load, binarise,
// trace, select, simplify, measure and classify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// Pipeline binds an image cache, a detector and default mask options.
// It is safe for concurrent use.
type Pipeline struct {
	cache    *imaging.ImageCache
	detector *detection.Detector
	mask     imaging.MaskOptions

	// Reference routes analysis through the OpenCV engine when it is
	// compiled in.
	Reference bool

	// Debug logs one line per analysis.
	Debug bool
}

// New returns a pipeline. A nil cache gets a fresh one.
func New(cache *imaging.ImageCache, cfg detection.Config, mask imaging.MaskOptions) (*Pipeline, error) {
	d, err := detection.NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, fmt.Errorf("mask options: %w", err)
	}
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Pipeline{cache: cache, detector: d, mask: mask}, nil
}

// Cache returns the image cache.
func (p *Pipeline) Cache() *imaging.ImageCache { return p.cache }

// Detector returns the detector.
func (p *Pipeline) Detector() *detection.Detector { return p.detector }

// MaskOptions returns the default mask options.
func (p *Pipeline) MaskOptions() imaging.MaskOptions { return p.mask }

// WithReference returns a copy of p that analyses with the OpenCV engine.
// The copy shares the cache.
func (p *Pipeline) WithReference() *Pipeline {
	cp := *p
	cp.Reference = true
	return &cp
}

// Run is one analysed image. Coordinates in Analysis refer to
// Prepared.Working; Prepared.Scale maps them back to the source.
type Run struct {
	Path     string               `json:"path,omitempty"`
	Mode     imaging.Mode         `json:"mode"`
	Prepared *imaging.Prepared    `json:"-"`
	Analysis *detection.Analysis  `json:"analysis"`
	Fill     *imaging.ColorResult `json:"fill_color,omitempty"`
}

// AnalyzeFile loads path through the cache and analyses it.
func (p *Pipeline) AnalyzeFile(path string, opts imaging.MaskOptions) (*Run, error) {
	img, err := p.cache.Load(path)
	if err != nil {
		return nil, err
	}
	run, err := p.AnalyzeImage(img, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	run.Path = path
	return run, nil
}

// AnalyzeImage binarises img with opts and classifies its largest region.
// A classified run also reports the mean source color under the region.
func (p *Pipeline) AnalyzeImage(img image.Image, opts imaging.MaskOptions) (*Run, error) {
	prep, err := imaging.Prepare(img, opts)
	if err != nil {
		return nil, err
	}

	var a *detection.Analysis
	if p.Reference {
		a, err = p.detector.AnalyzeReference(prep.Mask)
	} else {
		a, err = p.detector.Analyze(prep.Mask)
	}
	if err != nil {
		return nil, err
	}

	run := &Run{Mode: opts.Mode, Prepared: prep, Analysis: a}
	if a.Outcome == detection.Classified && a.Summary != nil {
		run.Fill = p.fillColor(prep, a.Summary)
	}
	if p.Debug {
		log.Printf("analysis: %s outcome=%s candidates=%d vertices=%d circularity=%.3f",
			a.Label(), a.Outcome, a.Candidates, a.VertexCount, a.Circularity)
	}
	return run, nil
}

// fillColor averages the working image under the mask inside the region's
// box. Canny masks only cover the outline, which still samples the shape's
// border. With no mask pixel in the box the centroid pixel is used.
func (p *Pipeline) fillColor(prep *imaging.Prepared, s *geometry.Summary) *imaging.ColorResult {
	box := s.BoundingBox
	r := image.Rect(int(box.X), int(box.Y), int(box.X+box.Width)+1, int(box.Y+box.Height)+1)
	if c, err := imaging.MeanColor(prep.Working, prep.Mask, r); err == nil {
		return c
	}
	at := s.Centroid.ImagePoint().Add(prep.Working.Bounds().Min)
	c, err := imaging.SampleColor(prep.Working, at.X, at.Y)
	if err != nil {
		return nil
	}
	return c
}

// Contours lists every traced contour of path, largest first, each
// classified on its own.
func (p *Pipeline) Contours(path string, opts imaging.MaskOptions) ([]detection.Inspection, *imaging.Prepared, error) {
	img, err := p.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	prep, err := imaging.Prepare(img, opts)
	if err != nil {
		return nil, nil, err
	}
	list, err := p.detector.InspectAll(prep.Mask)
	if err != nil {
		return nil, nil, err
	}
	return list, prep, nil
}

// Result is the outcome of one file in AnalyzeFiles.
type Result struct {
	Path string
	Run  *Run
	Err  error
}

// AnalyzeFiles analyses paths concurrently with at most workers pipelines
// in flight (GOMAXPROCS when workers <= 0). Results are in input order.
// Cancelling ctx marks the remaining files with ctx.Err().
func (p *Pipeline) AnalyzeFiles(ctx context.Context, paths []string, opts imaging.MaskOptions, workers int) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]Result, len(paths))
	for i, path := range paths {
		results[i].Path = path
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Run, results[i].Err = p.AnalyzeFile(paths[i], opts)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// ErrNoRegion is returned by operations that need a classified region.
var ErrNoRegion = errors.New("no classified region")

// Overlay builds the annotation overlay of a classified run.
func (r *Run) Overlay() (imaging.Overlay, error) {
	a := r.Analysis
	if a.Outcome != detection.Classified || a.Summary == nil {
		return imaging.Overlay{}, fmt.Errorf("%w: %s", ErrNoRegion, a.Message)
	}
	centroid := a.Summary.Centroid
	return imaging.Overlay{
		Curve:    a.Curve,
		Polygon:  a.Polygon,
		Centroid: &centroid,
		Label:    a.Label().String(),
	}, nil
}

// RegionBox returns the bounding box of the classified region's contour.
// Max is the last contour pixel, not one past it, so the box is one pixel
// short of the region's half-open image.Rectangle; imaging.CropAround adds
// that pixel back.
func (r *Run) RegionBox() (image.Rectangle, error) {
	a := r.Analysis
	if a.Outcome != detection.Classified || a.Summary == nil {
		return image.Rectangle{}, fmt.Errorf("%w: %s", ErrNoRegion, a.Message)
	}
	b := a.Summary.BoundingBox
	return image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height)), nil
}
