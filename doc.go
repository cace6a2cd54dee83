// Package denoise implements an edge-preserving denoising filter based on
// weighted K-nearest-neighbor averaging with adaptive blending.
//
// # Overview
//
// For every output pixel the filter visits a square window around the
// pixel center and weighs each neighbor by
//
//	w = exp(-(|c - c0|² * NoiseScale + (i² + j²) / A))
//
// where c0 is the center color, (i, j) the offset inside the window and A
// the window area. The weighted average is then blended back toward the
// center color. Windows where most neighbors match are treated as flat and
// blend strongly toward the average; others keep more of the original pixel,
// which is what preserves edges.
//
// A second entry point, DiagnosticFilter, renders the regime choice as a
// two-color map: red for the flat regime, blue otherwise.
//
// # Quick Start
//
//	img, err := denoise.LoadImage("noisy.png")
//	if err != nil {
//		return err
//	}
//	params := denoise.DefaultParams()
//	out, err := denoise.Filter(ctx, img, img.Width(), img.Height(), params)
//	if err != nil {
//		return err
//	}
//	return out.SavePNG("clean.png")
//
// # Output format
//
// Results are written to a Buffer of packed 32-bit colors, 8 bits per channel
// in byte order R, G, B and an unused fourth byte that is always zero.
//
// # Concurrency
//
// The output is split into tiles that are filtered in parallel. Every output
// pixel depends only on the read-only source, so tiles need no coordination.
// By default a worker pool sized to GOMAXPROCS is created per call; pass
// WithPool to share one across calls.
//
// # GPU acceleration
//
// Importing github.com/gogpu/denoise/gpu registers a compute shader
// implementation. It is used for *Image sources and falls back to the CPU
// path transparently when the GPU cannot serve a request.
package denoise

// Version is the current version of the library.
const Version = "0.1.0"
