package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/history"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
	"github.com/ironsheep/shape-finder-mcp/internal/pipeline"
	"github.com/ironsheep/shape-finder-mcp/internal/report"
)

// maskFlags are the analysis overrides shared by classify and view.
type maskFlags struct {
	mode      *string
	threshold *int
	light     *bool
	blur      *float64
	minArea   *float64
	reference *bool
}

func newMaskFlagSet(name string, cfg config.Config) (*flag.FlagSet, *maskFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	mf := &maskFlags{
		mode:      fs.String("mode", string(cfg.Mask.Mode), "mask mode: threshold or canny"),
		threshold: fs.Int("threshold", int(cfg.Mask.Threshold), "gray level (1-255) separating foreground in threshold mode"),
		light:     fs.Bool("light", cfg.Mask.LightForeground, "light shapes on a dark background"),
		blur:      fs.Float64("blur", cfg.Mask.BlurRadius, "Gaussian blur radius before binarising (0 disables)"),
		minArea:   fs.Float64("min-area", cfg.Detection.MinArea, "smallest region area that can be classified"),
		reference: fs.Bool("reference", false, "use the OpenCV reference engine (opencv builds only)"),
	}
	return fs, mf
}

// apply overlays the parsed flags on cfg.
func (mf *maskFlags) apply(cfg config.Config) (config.Config, error) {
	mode, err := imaging.ParseMode(*mf.mode)
	if err != nil {
		return cfg, err
	}
	if *mf.threshold < 1 || *mf.threshold > 255 {
		return cfg, fmt.Errorf("threshold %d out of range 1-255", *mf.threshold)
	}
	cfg.Mask.Mode = mode
	cfg.Mask.Threshold = uint8(*mf.threshold)
	cfg.Mask.LightForeground = *mf.light
	cfg.Mask.BlurRadius = *mf.blur
	cfg.Detection.MinArea = *mf.minArea
	return cfg, cfg.Validate()
}

func (mf *maskFlags) pipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	cfg, err := mf.apply(cfg)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(nil, cfg.Detection, cfg.Mask)
	if err != nil {
		return nil, err
	}
	p.Debug = cfg.Debug()
	if *mf.reference {
		if !detection.ReferenceAvailable() {
			return nil, detection.ErrReferenceUnavailable
		}
		p = p.WithReference()
	}
	return p, nil
}

func runClassify(args []string, cfg config.Config, stdout io.Writer) error {
	fs, mf := newMaskFlagSet("classify", cfg)
	format := fs.String("format", string(report.FormatJSON), "output format: json or text")
	dbPath := fs.String("db", "", "record results in this history database")
	workers := fs.Int("workers", runtime.NumCPU(), "images analysed concurrently")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("classify: no images given")
	}

	f, err := report.ParseFormat(*format)
	if err != nil {
		return err
	}
	p, err := mf.pipeline(cfg)
	if err != nil {
		return err
	}

	var store *history.Store
	if *dbPath != "" {
		store, err = openHistory(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := p.AnalyzeFiles(ctx, fs.Args(), p.MaskOptions(), *workers)
	entries := make([]report.Entry, len(results))
	failed := 0
	for i, r := range results {
		entries[i] = report.Entry{Path: r.Path, Err: r.Err}
		if r.Err != nil {
			failed++
			continue
		}
		entries[i].Analysis = r.Run.Analysis
		if store != nil {
			if _, err := store.Record(r.Path, string(r.Run.Mode), r.Run.Analysis); err != nil {
				log.Printf("Failed to record %s: %v", r.Path, err)
			}
		}
	}

	if err := report.Write(stdout, f, entries); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be analysed", failed, len(results))
	}
	return nil
}
