package denoise

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot serve a request.
// The caller transparently falls back to the CPU path.
var ErrFallbackToCPU = errors.New("denoise: falling back to CPU")

// Mode selects which of the two kernels a request runs.
type Mode int

const (
	// ModeFilter computes denoised colors.
	ModeFilter Mode = iota

	// ModeDiagnostic computes the flat/edge regime map.
	ModeDiagnostic
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFilter:
		return "filter"
	case ModeDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// AccelRequest describes one accelerated filter invocation.
// Source texels are row-major RGBA float32, four values per texel.
type AccelRequest struct {
	Mode    Mode
	Width   int
	Height  int
	Source  []float32
	Filter  FilterMode
	Address AddressMode
	Params  Params
	Kernel  Kernel // defaults applied
	Dst     []uint32
}

// Accelerator is an optional GPU implementation of the filter.
//
// When registered via RegisterAccelerator, Filter and DiagnosticFilter try
// the accelerator first for *Image sources. If it returns ErrFallbackToCPU
// or any other error, the call runs on the CPU instead.
//
// Implementations live in backend packages. Users opt in via blank import:
//
//	import _ "github.com/gogpu/denoise/gpu"
type Accelerator interface {
	// Name returns the accelerator name (e.g., "knn-gpu").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Run executes req and writes every element of req.Dst.
	Run(req AccelRequest) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// reuse a GPU device owned by someone else.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the GPU accelerator.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called first and, if it fails, the accelerator
// is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("denoise: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("denoise: accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	return registeredAccelerator()
}

func registeredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator. It is a no-op if none is registered or it cannot share
// devices.
func SetAcceleratorDeviceProvider(provider any) error {
	a := registeredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
