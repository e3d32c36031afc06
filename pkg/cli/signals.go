package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals are the signals treated as a request to stop.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context cancelled by the first SIGINT or
// SIGTERM. After cancellation the default handler is restored, so a
// second signal terminates the process immediately.
func SetupSignalHandler() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}

// WaitForShutdown delivers the first SIGINT or SIGTERM on the returned
// channel.
func WaitForShutdown() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)
	return ch
}
