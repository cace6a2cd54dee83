package denoise

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if math.Abs(float64(p.NoiseScale)-9.765625) > 1e-4 {
		t.Errorf("NoiseScale = %v, want ~9.765625", p.NoiseScale)
	}
	if p.LerpBase != DefaultLerpBase {
		t.Errorf("LerpBase = %v, want %v", p.LerpBase, DefaultLerpBase)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestNoiseScaleFromNoise(t *testing.T) {
	tests := []struct {
		noise float32
		want  float32
	}{
		{1, 1},
		{0.5, 4},
		{2, 0.25},
	}
	for _, tt := range tests {
		if got := NoiseScaleFromNoise(tt.noise); got != tt.want {
			t.Errorf("NoiseScaleFromNoise(%v) = %v, want %v", tt.noise, got, tt.want)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"zero", Params{}, false},
		{"negative noise scale", Params{NoiseScale: -3, LerpBase: 0.5}, false},
		{"lerp one", Params{NoiseScale: 1, LerpBase: 1}, false},
		{"lerp above one", Params{NoiseScale: 1, LerpBase: 1.01}, true},
		{"lerp NaN", Params{NoiseScale: 1, LerpBase: float32(math.NaN())}, true},
		{"noise -Inf", Params{NoiseScale: float32(math.Inf(-1))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() error = %v, want %v", err, ErrInvalidParams)
			}
		})
	}
}

func TestKernelDefaults(t *testing.T) {
	k := DefaultKernel()
	if k.Radius != 3 || k.WeightThreshold != 0.032 || k.LerpThreshold != 0.6 {
		t.Errorf("DefaultKernel() = %+v", k)
	}
	if k.Area() != 49 {
		t.Errorf("Area() = %d, want 49", k.Area())
	}
	if got := (Kernel{}).resolved(); got != k {
		t.Errorf("Kernel{}.resolved() = %+v, want %+v", got, k)
	}
	if got := (Kernel{Radius: 2}).Area(); got != 25 {
		t.Errorf("Kernel{Radius: 2}.Area() = %d, want 25", got)
	}
}

