//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gogpu/denoise"
)

func validRequest() denoise.AccelRequest {
	const w, h = 4, 3
	return denoise.AccelRequest{
		Mode:    denoise.ModeFilter,
		Width:   w,
		Height:  h,
		Source:  make([]float32, w*h*4),
		Filter:  denoise.FilterBilinear,
		Address: denoise.AddressClamp,
		Params:  denoise.DefaultParams(),
		Kernel:  denoise.DefaultKernel(),
		Dst:     make([]uint32, w*h),
	}
}

func TestCheckRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*denoise.AccelRequest)
		ok     bool
	}{
		{"valid", func(*denoise.AccelRequest) {}, true},
		{"diagnostic", func(r *denoise.AccelRequest) { r.Mode = denoise.ModeDiagnostic }, true},
		{"wrap nearest", func(r *denoise.AccelRequest) {
			r.Address = denoise.AddressWrap
			r.Filter = denoise.FilterNearest
		}, true},
		{"unknown address", func(r *denoise.AccelRequest) { r.Address = 7 }, false},
		{"unknown filter", func(r *denoise.AccelRequest) { r.Filter = 7 }, false},
		{"unknown mode", func(r *denoise.AccelRequest) { r.Mode = 7 }, false},
		{"short source", func(r *denoise.AccelRequest) { r.Source = r.Source[:5] }, false},
		{"short dst", func(r *denoise.AccelRequest) { r.Dst = r.Dst[:1] }, false},
		{"empty", func(r *denoise.AccelRequest) { r.Width, r.Dst = 0, nil }, false},
		{"too large", func(r *denoise.AccelRequest) { r.Width, r.Height = 4096, 4096 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := checkRequest(req)
			if tt.ok && err != nil {
				t.Errorf("checkRequest() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, denoise.ErrFallbackToCPU) {
				t.Errorf("checkRequest() = %v, want %v", err, denoise.ErrFallbackToCPU)
			}
		})
	}
}

func TestPackParams(t *testing.T) {
	req := validRequest()
	req.Address = denoise.AddressMirror
	req.Filter = denoise.FilterNearest
	out := packParams(req)

	if len(out) != paramsSize {
		t.Fatalf("len = %d, want %d", len(out), paramsSize)
	}
	le := binary.LittleEndian
	if le.Uint32(out[0:]) != 4 || le.Uint32(out[4:]) != 3 {
		t.Errorf("size = %dx%d, want 4x3", le.Uint32(out[0:]), le.Uint32(out[4:]))
	}
	if got := math.Float32frombits(le.Uint32(out[8:])); got != req.Params.NoiseScale {
		t.Errorf("noise_scale = %v, want %v", got, req.Params.NoiseScale)
	}
	if got := math.Float32frombits(le.Uint32(out[20:])); got != denoise.DefaultLerpThreshold {
		t.Errorf("lerp_threshold = %v, want %v", got, denoise.DefaultLerpThreshold)
	}
	if got := le.Uint32(out[24:]); got != 49 {
		t.Errorf("area = %d, want 49", got)
	}
	if le.Uint32(out[28:]) != uint32(denoise.AddressMirror) || le.Uint32(out[32:]) != uint32(denoise.FilterNearest) {
		t.Errorf("modes = %d/%d", le.Uint32(out[28:]), le.Uint32(out[32:]))
	}
}

func TestPackTexelsUnpackPixels(t *testing.T) {
	b := packTexels([]float32{1, 0.5})
	if math.Float32frombits(binary.LittleEndian.Uint32(b[4:])) != 0.5 {
		t.Error("packTexels did not store little-endian float32 bits")
	}

	raw := []byte{0xFF, 0, 0, 0, 0, 0, 0xFF, 0}
	dst := make([]uint32, 2)
	unpackPixels(raw, dst)
	if dst[0] != 0x000000FF || dst[1] != 0x00FF0000 {
		t.Errorf("unpackPixels = %#08x %#08x", dst[0], dst[1])
	}
}

func TestDiscardOnError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantDiscard bool
	}{
		{"success", nil, false},
		{"failure", errors.New("encoder lost"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discarded := false
			err := discardOnError(tt.err, func() { discarded = true })
			if !errors.Is(err, tt.err) {
				t.Errorf("discardOnError() = %v, want %v", err, tt.err)
			}
			if discarded != tt.wantDiscard {
				t.Errorf("discarded = %v, want %v", discarded, tt.wantDiscard)
			}
		})
	}
}

type noHalProvider struct{}

type wrongHalProvider struct{}

func (wrongHalProvider) HalDevice() any { return "device" }
func (wrongHalProvider) HalQueue() any  { return "queue" }

func TestSetDeviceProviderRejects(t *testing.T) {
	a := &KNNAccelerator{}
	for _, p := range []any{noHalProvider{}, wrongHalProvider{}, nil} {
		if err := a.SetDeviceProvider(p); err == nil {
			t.Errorf("SetDeviceProvider(%T) = nil, want error", p)
		}
	}
	if a.Ready() {
		t.Error("accelerator ready after rejected providers")
	}
}

func TestRunWithoutDevice(t *testing.T) {
	a := &KNNAccelerator{}
	if err := a.Run(validRequest()); !errors.Is(err, denoise.ErrFallbackToCPU) {
		t.Errorf("Run() = %v, want %v", err, denoise.ErrFallbackToCPU)
	}
}

// TestGPUMatchesCPU needs a Vulkan device and skips without one.
func TestGPUMatchesCPU(t *testing.T) {
	a := &KNNAccelerator{}
	if err := a.Init(); err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer a.Close()

	const w, h = 37, 21
	img, err := denoise.NewImage(w, h)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewPCG(7, 11))
	for y := range h {
		for x := range w {
			base := float32(0.2)
			if x > w/2 {
				base = 0.8
			}
			img.Set(x, y, denoise.Color{
				R: base + rng.Float32()*0.1,
				G: 0.5 + rng.Float32()*0.1,
				B: 1 - base + rng.Float32()*0.1,
				A: 1,
			})
		}
	}

	for _, mode := range []denoise.Mode{denoise.ModeFilter, denoise.ModeDiagnostic} {
		var cpu *denoise.Buffer
		if mode == denoise.ModeFilter {
			cpu, err = denoise.Filter(context.Background(), img, w, h, denoise.DefaultParams(), denoise.WithAccelerator(false))
		} else {
			cpu, err = denoise.DiagnosticFilter(context.Background(), img, w, h, denoise.DefaultParams(), denoise.WithAccelerator(false))
		}
		if err != nil {
			t.Fatal(err)
		}

		req := denoise.AccelRequest{
			Mode:    mode,
			Width:   w,
			Height:  h,
			Source:  rawTexels(img),
			Filter:  img.Filter(),
			Address: img.Address(),
			Params:  denoise.DefaultParams(),
			Kernel:  denoise.DefaultKernel(),
			Dst:     make([]uint32, w*h),
		}
		if err := a.Run(req); err != nil {
			if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
				t.Skipf("Skipping: %v", err)
			}
			t.Fatalf("Run(%v): %v", mode, err)
		}

		mismatches := 0
		for i := range req.Dst {
			if channelDiff(req.Dst[i], cpu.Pix[i]) > 1 {
				mismatches++
			}
		}
		// GPU exp differs from math.Exp in the last bits, which may flip a
		// regime right at a threshold.
		if mismatches > w*h/100 {
			t.Errorf("%v: %d of %d pixels differ by more than one step", mode, mismatches, w*h)
		}
	}
}

func rawTexels(img *denoise.Image) []float32 {
	out := make([]float32, 0, img.Width()*img.Height()*4)
	for y := range img.Height() {
		for x := range img.Width() {
			c := img.At(x, y)
			out = append(out, c.R, c.G, c.B, c.A)
		}
	}
	return out
}

func channelDiff(a, b uint32) int {
	worst := 0
	for shift := 0; shift < 24; shift += 8 {
		d := int((a>>shift)&0xFF) - int((b>>shift)&0xFF)
		if d < 0 {
			d = -d
		}
		worst = max(worst, d)
	}
	return worst
}
