package denoise

import "errors"

// Validation errors returned by the filter entry points. They are wrapped
// with call-specific context; test with errors.Is.
var (
	// ErrInvalidDimensions is returned for negative width or height.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrInvalidParams is returned when Params fails validation.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrNilSampler is returned when the source sampler is nil.
	ErrNilSampler = errors.New("nil sampler")

	// ErrBufferSize is returned when a destination buffer does not match the
	// requested dimensions.
	ErrBufferSize = errors.New("buffer size mismatch")

	// ErrInvalidKernel is returned when kernel constants are out of range.
	ErrInvalidKernel = errors.New("invalid kernel")
)
