// Package config assembles the runtime settings: detection thresholds, mask
// options, log level and the history database path. Values start from
// Default and are overridden by SHAPEFINDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel         = "SHAPEFINDER_LOG_LEVEL"
	EnvDB               = "SHAPEFINDER_DB"
	EnvMinArea          = "SHAPEFINDER_MIN_AREA"
	EnvSimplifyFraction = "SHAPEFINDER_SIMPLIFY_FRACTION"
	EnvSquareMin        = "SHAPEFINDER_SQUARE_MIN"
	EnvSquareMax        = "SHAPEFINDER_SQUARE_MAX"
	EnvCircularity      = "SHAPEFINDER_CIRCULARITY"
	EnvMode             = "SHAPEFINDER_MODE"
	EnvThreshold        = "SHAPEFINDER_THRESHOLD"
	EnvBlur             = "SHAPEFINDER_BLUR"
	EnvMaxDimension     = "SHAPEFINDER_MAX_DIMENSION"
)

// Config is the complete runtime configuration.
type Config struct {
	Detection detection.Config    `json:"detection"`
	Mask      imaging.MaskOptions `json:"mask"`

	// LogLevel is "debug" for verbose logging; anything else is quiet.
	LogLevel string `json:"log_level"`

	// DBPath is the history database. Empty disables history.
	DBPath string `json:"db_path"`
}

// Default returns the built-in settings. History is stored under the user
// cache directory when one exists.
func Default() Config {
	cfg := Config{
		Detection: detection.DefaultConfig(),
		Mask:      imaging.DefaultMaskOptions(),
		LogLevel:  "info",
	}
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.DBPath = filepath.Join(dir, "shape-finder", "history.db")
	}
	return cfg
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if err := c.Mask.Validate(); err != nil {
		return fmt.Errorf("mask options: %w", err)
	}
	return nil
}

// FromEnv returns Default overlaid with the SHAPEFINDER_* variables that are
// set. A malformed value is an error naming the variable.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load is FromEnv with a custom lookup function.
func Load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	float := func(name string, dst *float64) {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", name, v))
			return
		}
		*dst = f
	}
	integer := func(name string, dst *int) {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", name, v))
			return
		}
		*dst = n
	}

	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvDB, &cfg.DBPath)
	float(EnvMinArea, &cfg.Detection.MinArea)
	float(EnvSimplifyFraction, &cfg.Detection.SimplifyFraction)
	float(EnvSquareMin, &cfg.Detection.SquareAspectMin)
	float(EnvSquareMax, &cfg.Detection.SquareAspectMax)
	float(EnvCircularity, &cfg.Detection.CircularityCutoff)
	float(EnvBlur, &cfg.Mask.BlurRadius)
	integer(EnvMaxDimension, &cfg.Mask.MaxDimension)

	if v, ok := lookup(EnvMode); ok {
		mode, err := imaging.ParseMode(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMode, err))
		} else {
			cfg.Mask.Mode = mode
		}
	}

	threshold := int(cfg.Mask.Threshold)
	integer(EnvThreshold, &threshold)
	if threshold < 0 || threshold > 255 {
		errs = append(errs, fmt.Errorf("%s: %d out of range 0-255", EnvThreshold, threshold))
	} else {
		cfg.Mask.Threshold = uint8(threshold)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
