package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalManager ties a context to SIGINT and SIGTERM, and smooths over the
// race where a terminal reports EOF slightly before the signal lands.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel}
}

// Context is canceled once a signal arrives or the parent is done.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop permanently stops the signal listener.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// CheckRace waits briefly to see if a context cancellation follows an error.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() == nil {
		select {
		case <-sm.ctx.Done():
		case <-time.After(100 * time.Millisecond):
		}
	}
}
