package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Detection != detection.DefaultConfig() {
		t.Errorf("detection = %+v, want defaults", cfg.Detection)
	}
	if cfg.Mask != imaging.DefaultMaskOptions() {
		t.Errorf("mask = %+v, want defaults", cfg.Mask)
	}
	if cfg.Debug() {
		t.Error("default config should not be debug")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvDB, "/tmp/shapes.db")
	t.Setenv(EnvMinArea, "250")
	t.Setenv(EnvSimplifyFraction, "0.02")
	t.Setenv(EnvSquareMin, "0.9")
	t.Setenv(EnvSquareMax, "1.1")
	t.Setenv(EnvCircularity, "0.8")
	t.Setenv(EnvMode, "canny")
	t.Setenv(EnvThreshold, "128")
	t.Setenv(EnvBlur, "0")
	t.Setenv(EnvMaxDimension, "640")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	want := detection.Config{
		MinArea:           250,
		SimplifyFraction:  0.02,
		SquareAspectMin:   0.9,
		SquareAspectMax:   1.1,
		CircularityCutoff: 0.8,
	}
	if cfg.Detection != want {
		t.Errorf("detection = %+v, want %+v", cfg.Detection, want)
	}
	if cfg.Mask.Mode != imaging.ModeCanny || cfg.Mask.Threshold != 128 || cfg.Mask.BlurRadius != 0 || cfg.Mask.MaxDimension != 640 {
		t.Errorf("mask = %+v", cfg.Mask)
	}
	if !cfg.Debug() || cfg.DBPath != "/tmp/shapes.db" {
		t.Errorf("log level %q, db %q", cfg.LogLevel, cfg.DBPath)
	}
}

func TestFromEnv_EmptyDBDisablesHistory(t *testing.T) {
	t.Setenv(EnvDB, "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty", cfg.DBPath)
	}
}

func TestFromEnv_Malformed(t *testing.T) {
	tests := []struct {
		name, env, value string
	}{
		{"min area", EnvMinArea, "lots"},
		{"max dimension", EnvMaxDimension, "1.5"},
		{"threshold range", EnvThreshold, "300"},
		{"mode", EnvMode, "sobel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.env) {
				t.Errorf("error %q does not name %s", err, tt.env)
			}
		})
	}
}

func TestFromEnv_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv(EnvMinArea, "x")
	t.Setenv(EnvBlur, "y")
	_, err := FromEnv()
	if err == nil || !strings.Contains(err.Error(), EnvMinArea) || !strings.Contains(err.Error(), EnvBlur) {
		t.Errorf("error %v should name both variables", err)
	}
}

func TestFromEnv_InvalidCombination(t *testing.T) {
	t.Setenv(EnvSquareMin, "1.2")
	t.Setenv(EnvSquareMax, "1.1")
	if _, err := FromEnv(); !errors.Is(err, detection.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_CustomLookup(t *testing.T) {
	env := map[string]string{EnvMinArea: "50"}
	cfg, err := Load(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Detection.MinArea != 50 {
		t.Errorf("MinArea = %v, want 50", cfg.Detection.MinArea)
	}
}
