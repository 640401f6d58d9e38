package executor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager ties SIGINT/SIGTERM to context cancellation. The executor
// forwards the cancellation to the running child and starts nothing further,
// so a Ctrl+C lands on exactly the process the user sees running.
type SignalManager struct {
	ctx  context.Context
	stop context.CancelFunc
}

// NewSignalManager starts listening immediately.
func NewSignalManager() *SignalManager {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, stop: stop}
}

// Context returns the context cancelled on the first signal.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop detaches the listener, restoring default signal behavior.
func (sm *SignalManager) Stop() {
	sm.stop()
}
