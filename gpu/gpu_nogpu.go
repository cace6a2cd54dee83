//go:build nogpu

// Package gpu is empty in nogpu builds; the denoise filters run on the CPU.
package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
)

// Available always reports false in nogpu builds.
func Available() bool { return false }

// SetDeviceProvider always fails in nogpu builds.
func SetDeviceProvider(gpucontext.DeviceProvider) error {
	return errors.New("gpu: built with the nogpu tag")
}
