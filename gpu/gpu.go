//go:build !nogpu

// Package gpu registers the WebGPU accelerator for the denoise filters.
//
// Importing this package compiles the KNN kernel to a wgpu/hal compute
// shader and routes denoise.Filter and denoise.DiagnosticFilter calls on a
// *denoise.Image source through it.
//
// If GPU initialization fails (no Vulkan device available), registration is
// skipped and the filters run on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/denoise/gpu" // enable GPU acceleration
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/denoise"
	gpuimpl "github.com/gogpu/denoise/internal/gpu"
)

var accel = &gpuimpl.KNNAccelerator{}

func init() {
	if err := denoise.RegisterAccelerator(accel); err != nil {
		denoise.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// Available reports whether the GPU accelerator is registered and ready.
func Available() bool {
	return denoise.RegisteredAccelerator() == denoise.Accelerator(accel) && accel.Ready()
}

// SetDeviceProvider makes the accelerator use a device owned by an external
// provider (for example a gogpu window) instead of creating its own.
//
// The provider must also expose HalDevice() and HalQueue(). On success the
// accelerator is registered if the GPU was unavailable at init.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return fmt.Errorf("gpu: nil device provider")
	}
	if err := accel.SetDeviceProvider(provider); err != nil {
		return err
	}
	if denoise.RegisteredAccelerator() != denoise.Accelerator(accel) {
		return denoise.RegisterAccelerator(accel)
	}
	return nil
}
