package denoise

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/denoise/internal/fastmath"
	"github.com/gogpu/denoise/internal/knn"
	"github.com/gogpu/denoise/internal/parallel"
)

// Filter denoises a width x height region of src and returns a new buffer.
//
// Zero width or height yields an empty buffer. A context cancelled before
// the call returns ctx.Err() without writing any pixel; cancellation during
// the call skips tiles that have not started and also returns ctx.Err().
func Filter(ctx context.Context, src Sampler, width, height int, p Params, opts ...Option) (*Buffer, error) {
	return newAndRun(ctx, ModeFilter, src, width, height, p, opts)
}

// DiagnosticFilter renders the regime map of Filter for the same inputs:
// pixels whose window is flat are red (255, 0, 0), the rest blue (0, 0, 255).
func DiagnosticFilter(ctx context.Context, src Sampler, width, height int, p Params, opts ...Option) (*Buffer, error) {
	return newAndRun(ctx, ModeDiagnostic, src, width, height, p, opts)
}

// FilterInto is like Filter but writes into dst, whose dimensions define
// the region.
func FilterInto(ctx context.Context, dst *Buffer, src Sampler, p Params, opts ...Option) error {
	if err := dst.check(); err != nil {
		return err
	}
	return run(ctx, ModeFilter, dst, src, p, opts)
}

// DiagnosticFilterInto is like DiagnosticFilter but writes into dst.
func DiagnosticFilterInto(ctx context.Context, dst *Buffer, src Sampler, p Params, opts ...Option) error {
	if err := dst.check(); err != nil {
		return err
	}
	return run(ctx, ModeDiagnostic, dst, src, p, opts)
}

func newAndRun(ctx context.Context, mode Mode, src Sampler, width, height int, p Params, opts []Option) (*Buffer, error) {
	dst, err := NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	if err := run(ctx, mode, dst, src, p, opts); err != nil {
		return nil, err
	}
	return dst, nil
}

func run(ctx context.Context, mode Mode, dst *Buffer, src Sampler, p Params, opts []Option) error {
	if src == nil {
		return fmt.Errorf("denoise: %s: %w", mode, ErrNilSampler)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	kernel := o.kernel.resolved()
	k, err := newKnnKernel(kernel, o.exp)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if dst.Width == 0 || dst.Height == 0 {
		return nil
	}

	if o.accelerator && tryAccelerate(mode, dst, src, p, kernel) {
		return nil
	}

	return runCPU(ctx, mode, dst, src, p, k, o)
}

func newKnnKernel(kernel Kernel, exp ExpMode) (*knn.Kernel, error) {
	cfg := knn.Config{
		Radius:          kernel.Radius,
		WeightThreshold: kernel.WeightThreshold,
		LerpThreshold:   kernel.LerpThreshold,
		Exp:             fastmath.StdExp,
	}
	if exp == ExpFast {
		cfg.Exp = fastmath.Exp
	}
	k, err := knn.NewKernel(cfg)
	if err != nil {
		return nil, fmt.Errorf("denoise: kernel %+v: %w", kernel, ErrInvalidKernel)
	}
	return k, nil
}

// tryAccelerate reports whether the registered accelerator filled dst.
func tryAccelerate(mode Mode, dst *Buffer, src Sampler, p Params, kernel Kernel) bool {
	a := registeredAccelerator()
	if a == nil {
		return false
	}
	img, ok := src.(*Image)
	if !ok {
		return false
	}

	// The accelerator reads texels directly, so the source must cover the
	// destination exactly.
	if img.Width() != dst.Width || img.Height() != dst.Height {
		return false
	}

	err := a.Run(AccelRequest{
		Mode:    mode,
		Width:   dst.Width,
		Height:  dst.Height,
		Source:  img.pix(),
		Filter:  img.Filter(),
		Address: img.Address(),
		Params:  p,
		Kernel:  kernel,
		Dst:     dst.Pix,
	})
	switch {
	case err == nil:
		Logger().Debug("denoise: accelerated",
			"accelerator", a.Name(), "mode", mode, "width", dst.Width, "height", dst.Height)
		return true
	case errors.Is(err, ErrFallbackToCPU):
		Logger().Debug("denoise: accelerator declined", "accelerator", a.Name(), "mode", mode)
	default:
		Logger().Warn("denoise: accelerator failed, using CPU", "accelerator", a.Name(), "err", err)
	}
	return false
}

func runCPU(ctx context.Context, mode Mode, dst *Buffer, src Sampler, p Params, k *knn.Kernel, o options) error {
	grid := parallel.NewTileGrid(dst.Width, dst.Height, o.tileSize, o.tileSize)

	var pool *parallel.WorkerPool
	switch {
	case o.pool != nil:
		pool = o.pool.pool
	case o.workers != 1 && grid.TileCount() > 1:
		pool = parallel.NewWorkerPool(o.workers)
		defer pool.Close()
	}

	workers := 1
	if pool != nil {
		workers = pool.Workers()
	}
	Logger().Debug("denoise: dispatch",
		"mode", mode,
		"width", dst.Width,
		"height", dst.Height,
		"tiles", grid.TileCount(),
		"workers", workers,
		"radius", k.Radius(),
		"exp", o.exp,
	)

	width := dst.Width
	pix := dst.Pix
	ns, lb := p.NoiseScale, p.LerpBase

	var tileFn func(parallel.Tile)
	if mode == ModeDiagnostic {
		tileFn = func(t parallel.Tile) {
			for y := t.MinY; y < t.MaxY(); y++ {
				row := pix[y*width : (y+1)*width]
				for x := t.MinX; x < t.MaxX(); x++ {
					row[x] = uint32(k.Diagnostic(src, x, y, ns))
				}
			}
		}
	} else {
		tileFn = func(t parallel.Tile) {
			for y := t.MinY; y < t.MaxY(); y++ {
				row := pix[y*width : (y+1)*width]
				for x := t.MinX; x < t.MaxX(); x++ {
					row[x] = uint32(k.Filter(src, x, y, ns, lb))
				}
			}
		}
	}

	return parallel.Run(ctx, pool, grid, tileFn)
}
