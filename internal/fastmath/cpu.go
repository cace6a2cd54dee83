package fastmath

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features lists the SIMD extensions detected on the running CPU that
// matter for the float32 hot path.
func Features() []string {
	var f []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE41 {
			f = append(f, "sse4.1")
		}
		if cpu.X86.HasAVX2 {
			f = append(f, "avx2")
		}
		if cpu.X86.HasFMA {
			f = append(f, "fma")
		}
		if cpu.X86.HasAVX512F {
			f = append(f, "avx512f")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f = append(f, "neon")
		}
		if cpu.ARM64.HasFPHP {
			f = append(f, "fp16")
		}
		if cpu.ARM64.HasSVE {
			f = append(f, "sve")
		}
	}
	return f
}

// FeatureString returns Features joined by commas, or "none".
func FeatureString() string {
	f := Features()
	if len(f) == 0 {
		return "none"
	}
	return strings.Join(f, ",")
}
