//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// accelLogger receives accelerator lifecycle and dispatch records. It
// discards everything until denoise.SetLogger reaches KNNAccelerator.
var accelLogger atomic.Pointer[slog.Logger]

func init() {
	accelLogger.Store(slog.New(slog.DiscardHandler))
}

func slogger() *slog.Logger { return accelLogger.Load() }

// setLogger installs l, or the discarding logger when l is nil.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	accelLogger.Store(l)
}
