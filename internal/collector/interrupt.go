package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptFlushTimeout bounds how long the dying process waits for the
// terminal write before re-raising the signal.
const interruptFlushTimeout = 5 * time.Second

// NotifyInterrupt registers a best-effort finalizer for abnormal process
// termination. On SIGINT, SIGTERM or SIGHUP it force-completes the collector
// with reason "interrupted", then re-raises the signal so the process still
// dies with the expected status. The returned stop function deregisters the
// handler; call it once the run has completed normally.
func NotifyInterrupt(c *Collector) (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		select {
		case sig := <-sigs:
			ctx, cancel := context.WithTimeout(context.Background(), interruptFlushTimeout)
			c.Interrupt(ctx)
			cancel()

			signal.Stop(sigs)
			if p, err := os.FindProcess(os.Getpid()); err == nil {
				_ = p.Signal(sig)
			}
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
