package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/denoise"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, suffix string
		want                  string
	}{
		{"photo.png", "", "_denoised", "photo_denoised.png"},
		{"dir/photo.JPG", "", "_d", "dir/photo_d.JPG"},
		{"scan.tiff", "", "_denoised", "scan_denoised.png"},
		{"noext", "", "_x", "noext_x.png"},
		{"photo.png", "out.jpg", "_denoised", "out.jpg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.suffix); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.input, tt.output, tt.suffix, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	cfg, inputs, err := parseFlags([]string{"-mode", "diagnostic", "-noise", "0.5", "-radius", "2", "a.png", "b.png"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.mode != denoise.ModeDiagnostic {
		t.Errorf("mode = %v, want %v", cfg.mode, denoise.ModeDiagnostic)
	}
	if cfg.params.NoiseScale != 4 {
		t.Errorf("NoiseScale = %v, want 4", cfg.params.NoiseScale)
	}
	if cfg.radius != 2 {
		t.Errorf("radius = %d, want 2", cfg.radius)
	}
	if len(inputs) != 2 {
		t.Errorf("inputs = %v, want 2 files", inputs)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", nil},
		{"bad mode", []string{"-mode", "blur", "a.png"}},
		{"radius zero", []string{"-radius", "0", "a.png"}},
		{"radius too large", []string{"-radius", "99", "a.png"}},
		{"lerp out of range", []string{"-lerp", "1.5", "a.png"}},
		{"output with many inputs", []string{"-o", "x.png", "a.png", "b.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseFlags(tt.args); err == nil {
				t.Error("parseFlags() = nil error, want error")
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	_, _, err := parseFlags([]string{"-h"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("parseFlags(-h) = %v, want flag.ErrHelp", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "red.png")

	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, inputs, err := parseFlags([]string{"-gpu=false", "-stats", "-workers", "2", in})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), cfg, inputs, &out); err != nil {
		t.Fatal(err)
	}

	img, err := denoise.LoadImage(filepath.Join(dir, "red_denoised.png"))
	if err != nil {
		t.Fatal(err)
	}
	if img.Width() != 8 || img.Height() != 6 {
		t.Errorf("output size = %dx%d, want 8x6", img.Width(), img.Height())
	}
	if c := img.At(3, 3); c.R != 1 || c.G != 0 || c.B != 0 {
		t.Errorf("pixel = %+v, want pure red", c)
	}
	if !strings.Contains(out.String(), "flat 100.0%") {
		t.Errorf("stats report = %q, want flat 100.0%%", out.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	cfg, inputs, err := parseFlags([]string{"-gpu=false", filepath.Join(t.TempDir(), "missing.png")})
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), cfg, inputs, &bytes.Buffer{}); err == nil {
		t.Error("run() = nil error, want error for missing input")
	}
}
