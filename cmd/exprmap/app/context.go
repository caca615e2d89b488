package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// commandContext bounds a command run: it ends on SIGINT or SIGTERM, or once
// the timeout elapses. A non-positive timeout disables the deadline.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
