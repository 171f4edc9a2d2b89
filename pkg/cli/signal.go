package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext returns a child of parent cancelled on SIGINT/SIGTERM.
// A scan in progress stops at the next probe boundary and still reports
// what it found. If a second signal arrives during gracePeriod,
// os.Exit(1) is called.
//
// Usage:
//
//	ctx, cancel := cli.SignalContext(context.Background(), duration.SignalGrace, os.Stderr)
//	defer cancel()
func SignalContext(parent context.Context, gracePeriod time.Duration, notice io.Writer) (context.Context, context.CancelFunc) {
	return signalContextWithNotifier(parent, gracePeriod, notice, nil, nil)
}

// signalContextWithNotifier is the internal implementation for testing.
// sigChan, if non-nil, overrides the real signal channel.
// exitFn, if non-nil, overrides os.Exit for testing.
func signalContextWithNotifier(
	parent context.Context,
	gracePeriod time.Duration,
	notice io.Writer,
	sigChan chan os.Signal,
	exitFn func(int),
) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ownChannel := sigChan == nil
	if ownChannel {
		sigChan = make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	}
	if exitFn == nil {
		exitFn = os.Exit
	}
	if notice == nil {
		notice = io.Discard
	}

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(notice)
			fmt.Fprintln(notice, "Interrupt received, finishing current probe (press again to abort)...")
			cancel()

			select {
			case <-sigChan:
				exitFn(1)
			case <-time.After(gracePeriod):
			}
		case <-ctx.Done():
		}
		if ownChannel {
			signal.Stop(sigChan)
		}
	}()

	return ctx, cancel
}
