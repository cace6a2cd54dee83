package denoise

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// recordHandler keeps every record it receives.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r)
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// find returns the first record with msg.
func (h *recordHandler) find(msg string) (slog.Record, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

func attr(r slog.Record, key string) (slog.Value, bool) {
	var v slog.Value
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}

// captureLogger installs a recording logger for the rest of the test.
func captureLogger(t *testing.T) *recordHandler {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	h := &recordHandler{}
	SetLogger(slog.New(h))
	return h
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled for %v", level)
		}
	}
}

func TestSetLoggerNil(t *testing.T) {
	captureLogger(t)
	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestDispatchLogged(t *testing.T) {
	h := captureLogger(t)

	img := uniformImage(t, 130, 10, Color{R: 1, A: 1})
	if _, err := Filter(context.Background(), img, 130, 10, DefaultParams(), WithAccelerator(false), WithWorkers(2)); err != nil {
		t.Fatal(err)
	}

	r, ok := h.find("denoise: dispatch")
	if !ok {
		t.Fatal("no dispatch record")
	}
	if r.Level != slog.LevelDebug {
		t.Errorf("dispatch level = %v, want %v", r.Level, slog.LevelDebug)
	}
	if v, ok := attr(r, "tiles"); !ok || v.Int64() != 3 {
		t.Errorf("tiles attr = %v (found %v), want 3", v, ok)
	}
	if v, ok := attr(r, "mode"); !ok || v.String() != ModeFilter.String() {
		t.Errorf("mode attr = %v, want %v", v, ModeFilter)
	}
}

func TestAcceleratorLogLevels(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		msg   string
		level slog.Level
	}{
		{"success", nil, "denoise: accelerated", slog.LevelDebug},
		{"declined", ErrFallbackToCPU, "denoise: accelerator declined", slog.LevelDebug},
		{"failed", errors.New("device lost"), "denoise: accelerator failed, using CPU", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := captureLogger(t)
			resetAccelerator()
			t.Cleanup(resetAccelerator)

			if err := RegisterAccelerator(&mockAccelerator{name: "log-" + tt.name, runErr: tt.err}); err != nil {
				t.Fatal(err)
			}
			if _, ok := h.find("denoise: accelerator registered"); !ok {
				t.Error("registration not logged")
			}

			img := uniformImage(t, 4, 4, Color{R: 1, A: 1})
			if _, err := Filter(context.Background(), img, 4, 4, DefaultParams()); err != nil {
				t.Fatal(err)
			}
			r, ok := h.find(tt.msg)
			if !ok {
				t.Fatalf("no %q record", tt.msg)
			}
			if r.Level != tt.level {
				t.Errorf("level = %v, want %v", r.Level, tt.level)
			}
		})
	}
}

func TestLoggerPropagation(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)
	captureLogger(t)

	// Registered after SetLogger: receives the current logger.
	mock := &mockAccelerator{name: "propagation"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}
	if mock.logger != Logger() {
		t.Error("RegisterAccelerator did not hand over the current logger")
	}

	// SetLogger after registration: reaches the accelerator too.
	next := slog.New(&recordHandler{})
	SetLogger(next)
	if mock.logger != next {
		t.Error("SetLogger did not reach the registered accelerator")
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	captureLogger(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if l := Logger(); l == nil {
				t.Error("Logger() returned nil during concurrent access")
			} else {
				l.Debug("concurrent read")
			}
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.New(&recordHandler{}))
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
