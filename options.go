package denoise

import "github.com/gogpu/denoise/internal/parallel"

// ExpMode selects the exponential used for neighbor weights.
type ExpMode int

const (
	// ExpPrecise uses math.Exp rounded to float32.
	ExpPrecise ExpMode = iota

	// ExpFast uses a polynomial approximation with a relative error below
	// 2e-6. Packed 8-bit outputs may differ from ExpPrecise by one step on
	// rounding boundaries.
	ExpFast
)

// String returns the mode name.
func (m ExpMode) String() string {
	switch m {
	case ExpPrecise:
		return "precise"
	case ExpFast:
		return "fast"
	default:
		return "unknown"
	}
}

// Option configures a filter invocation.
//
// Example:
//
//	out, err := denoise.Filter(ctx, img, w, h, params,
//		denoise.WithExp(denoise.ExpFast),
//		denoise.WithWorkers(4),
//	)
type Option func(*options)

type options struct {
	kernel      Kernel
	exp         ExpMode
	workers     int
	pool        *WorkerPool
	tileSize    int
	accelerator bool
}

func defaultOptions() options {
	return options{
		kernel:      DefaultKernel(),
		exp:         ExpPrecise,
		workers:     0, // GOMAXPROCS
		tileSize:    parallel.TileWidth,
		accelerator: true,
	}
}

// WithKernel overrides the window constants.
func WithKernel(k Kernel) Option {
	return func(o *options) {
		o.kernel = k
	}
}

// WithExp selects the exponential implementation. It applies to the CPU
// path only; the GPU accelerator always uses the shader's exp.
func WithExp(m ExpMode) Option {
	return func(o *options) {
		o.exp = m
	}
}

// WithWorkers sets the number of goroutines used for a call. Zero or a
// negative value means GOMAXPROCS; one filters on the calling goroutine.
// Ignored when WithPool is given.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithPool runs tiles on a shared pool instead of a per-call one.
func WithPool(p *WorkerPool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithTileSize sets the edge length of square work tiles in pixels.
// Non-positive values take the default of 64.
func WithTileSize(n int) Option {
	return func(o *options) {
		o.tileSize = n
	}
}

// WithAccelerator enables or disables the registered GPU accelerator for a
// call. It is enabled by default.
func WithAccelerator(enabled bool) Option {
	return func(o *options) {
		o.accelerator = enabled
	}
}

// WorkerPool is a reusable set of goroutines for filter calls.
// It is safe for concurrent use by several calls.
type WorkerPool struct {
	pool *parallel.WorkerPool
}

// NewWorkerPool starts a pool with n workers (GOMAXPROCS if n <= 0).
func NewWorkerPool(n int) *WorkerPool {
	return &WorkerPool{pool: parallel.NewWorkerPool(n)}
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.pool.Workers()
}

// Close stops the pool. Calls using it afterwards run sequentially.
func (p *WorkerPool) Close() {
	p.pool.Close()
}
