// Command knndenoise applies the KNN edge-preserving denoise filter to one or
// more image files.
//
// Usage:
//
//	knndenoise [flags] input.png [input2.jpg ...]
//
// Each input is written next to itself with -suffix appended to the base
// name, or to -o when there is exactly one input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/denoise"
	"github.com/gogpu/denoise/gpu"
	"github.com/gogpu/denoise/internal/fastmath"
)

type config struct {
	mode     denoise.Mode
	params   denoise.Params
	radius   int
	wrap     bool
	fastExp  bool
	workers  int
	useGPU   bool
	stats    bool
	verbose  bool
	output   string
	suffix   string
	parallel int
}

func main() {
	cfg, inputs, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "knndenoise:", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	denoise.SetLogger(logger)
	logger.Debug("knndenoise: start", "version", denoise.Version, "cpu", fastmath.FeatureString(), "gpu", gpu.Available())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, inputs, os.Stdout); err != nil {
		logger.Error("knndenoise: failed", "err", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, []string, error) {
	fs := flag.NewFlagSet("knndenoise", flag.ContinueOnError)
	var (
		mode    = fs.String("mode", "filter", "filter or diagnostic")
		noise   = fs.Float64("noise", float64(denoise.DefaultNoise), "expected noise level; noise scale is 1/noise^2")
		lerp    = fs.Float64("lerp", float64(denoise.DefaultLerpBase), "blend weight kept from the original pixel in flat regions")
		radius  = fs.Int("radius", denoise.DefaultRadius, "window radius")
		wrap    = fs.Bool("wrap", false, "wrap at image edges instead of clamping")
		fastExp = fs.Bool("fast-exp", false, "use the polynomial exp approximation")
		workers = fs.Int("workers", 0, "CPU workers per image (0 = GOMAXPROCS)")
		useGPU  = fs.Bool("gpu", true, "use the GPU accelerator when available")
		stats   = fs.Bool("stats", false, "print noise statistics for each image")
		verbose = fs.Bool("v", false, "verbose logging")
		output  = fs.String("o", "", "output file (single input only)")
		suffix  = fs.String("suffix", "_denoised", "suffix appended to output base names")
		jobs    = fs.Int("j", runtime.GOMAXPROCS(0), "images processed concurrently")
	)
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}

	cfg := config{
		params: denoise.Params{
			NoiseScale: denoise.NoiseScaleFromNoise(float32(*noise)),
			LerpBase:   float32(*lerp),
		},
		radius:   *radius,
		wrap:     *wrap,
		fastExp:  *fastExp,
		workers:  *workers,
		useGPU:   *useGPU,
		stats:    *stats,
		verbose:  *verbose,
		output:   *output,
		suffix:   *suffix,
		parallel: max(*jobs, 1),
	}

	switch *mode {
	case "filter":
		cfg.mode = denoise.ModeFilter
	case "diagnostic", "diag":
		cfg.mode = denoise.ModeDiagnostic
	default:
		return config{}, nil, fmt.Errorf("unknown mode %q", *mode)
	}
	if *radius < 1 || *radius > denoise.MaxRadius {
		return config{}, nil, fmt.Errorf("radius %d out of range [1, %d]", *radius, denoise.MaxRadius)
	}
	if err := cfg.params.Validate(); err != nil {
		return config{}, nil, err
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		return config{}, nil, errors.New("no input files")
	}
	if cfg.output != "" && len(inputs) > 1 {
		return config{}, nil, errors.New("-o requires exactly one input")
	}
	return cfg, inputs, nil
}

func (c config) options(pool *denoise.WorkerPool) []denoise.Option {
	kernel := denoise.DefaultKernel()
	kernel.Radius = c.radius
	opts := []denoise.Option{
		denoise.WithKernel(kernel),
		denoise.WithWorkers(c.workers),
		denoise.WithAccelerator(c.useGPU),
	}
	if pool != nil {
		opts = append(opts, denoise.WithPool(pool))
	}
	if c.fastExp {
		opts = append(opts, denoise.WithExp(denoise.ExpFast))
	}
	return opts
}

// outputPath returns where the result for input is written.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg":
	default:
		// Other decodable formats are written as PNG.
		ext = ".png"
	}
	return base + suffix + ext
}

func run(ctx context.Context, cfg config, inputs []string, w io.Writer) error {
	// One pool serves every image so concurrent files share the CPU workers.
	var pool *denoise.WorkerPool
	if cfg.workers != 1 {
		pool = denoise.NewWorkerPool(cfg.workers)
		defer pool.Close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallel)

	reports := make([]string, len(inputs))
	for i, in := range inputs {
		g.Go(func() error {
			report, err := processFile(ctx, cfg, pool, in, outputPath(in, cfg.output, cfg.suffix))
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			reports[i] = report
			return nil
		})
	}
	err := g.Wait()

	for _, r := range reports {
		if r != "" {
			fmt.Fprint(w, r)
		}
	}
	return err
}

func processFile(ctx context.Context, cfg config, pool *denoise.WorkerPool, in, out string) (string, error) {
	img, err := denoise.LoadImage(in)
	if err != nil {
		return "", err
	}
	if cfg.wrap {
		img = img.WithSampling(img.Filter(), denoise.AddressWrap)
	}

	opts := cfg.options(pool)
	width, height := img.Width(), img.Height()

	var result *denoise.Buffer
	if cfg.mode == denoise.ModeDiagnostic {
		result, err = denoise.DiagnosticFilter(ctx, img, width, height, cfg.params, opts...)
	} else {
		result, err = denoise.Filter(ctx, img, width, height, cfg.params, opts...)
	}
	if err != nil {
		return "", err
	}
	if err := result.Save(out); err != nil {
		return "", err
	}
	denoise.Logger().Info("knndenoise: wrote", "input", in, "output", out, "mode", cfg.mode)

	if !cfg.stats {
		return "", nil
	}
	return statsReport(ctx, img, result, in, cfg, opts)
}

// statsReport computes the missing half of the filter/regime pair and
// formats the comparison.
func statsReport(ctx context.Context, img *denoise.Image, result *denoise.Buffer, in string, cfg config, opts []denoise.Option) (string, error) {
	filtered, regime := result, result
	var err error
	if cfg.mode == denoise.ModeDiagnostic {
		filtered, err = denoise.Filter(ctx, img, img.Width(), img.Height(), cfg.params, opts...)
	} else {
		regime, err = denoise.DiagnosticFilter(ctx, img, img.Width(), img.Height(), cfg.params, opts...)
	}
	if err != nil {
		return "", err
	}

	s, err := denoise.ComputeStats(img, filtered, regime)
	if err != nil {
		return "", err
	}
	return formatStats(in, s), nil
}

func formatStats(name string, s denoise.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d pixels, flat %.1f%%, noise reduction %.1f%%\n",
		name, s.Pixels, s.FlatFraction*100, s.NoiseReduction()*100)
	for c, label := range []string{"R", "G", "B"} {
		fmt.Fprintf(&b, "  %s  mean %.4f -> %.4f  stddev %.4f -> %.4f\n", label,
			s.Source[c].Mean, s.Output[c].Mean, s.Source[c].StdDev, s.Output[c].StdDev)
	}
	return b.String()
}
