//go:build !unix

package terminal

import (
	"context"
	"os"
	"os/signal"
)

// ShutdownContext returns a context cancelled on interrupt
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
