//go:build unix

package terminal

import (
	"context"
	"os/signal"

	"golang.org/x/sys/unix"
)

// ShutdownContext returns a context cancelled on SIGINT, SIGTERM or SIGHUP
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
}
