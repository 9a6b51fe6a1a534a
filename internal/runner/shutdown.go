package runner

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// ShutdownFlag is the process-wide cooperative stop signal. Once set it
// stays set; every scheduler and poll loop checks it at the top of each
// iteration.
type ShutdownFlag struct {
	set atomic.Bool
}

// Set raises the flag. It returns true only for the first caller.
func (s *ShutdownFlag) Set() bool {
	return s.set.CompareAndSwap(false, true)
}

// IsSet reports whether shutdown was requested.
func (s *ShutdownFlag) IsSet() bool {
	return s.set.Load()
}

// InstallSignalHandler wires SIGINT/SIGTERM to the shutdown flag. The
// handler only flips the flag and spawns the cancellation sweep on a
// separate goroutine; it never blocks on network I/O itself. A second
// signal is a no-op. The returned stop function removes the handler.
func (r *Runner) InstallSignalHandler() func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range ch {
			if r.shutdown.Set() {
				slog.Warn("shutdown signal received, cancelling active runs", "signal", sig.String())
				go r.canceller.Sweep(context.Background(), r.sweepClient, r.active)
			} else {
				slog.Warn("shutdown already in progress", "signal", sig.String())
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
