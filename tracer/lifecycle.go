package tracer

import (
	"context"
	"time"
)

// State is the lifecycle position of a Pipeline. States only move forward:
//
//	StateUninitialized -> StateStarting -> StateRunning -> StateShuttingDown -> StateStopped
//
// A pipeline that is shut down while still starting skips StateRunning.
// A nil *Pipeline (tracing disabled) is always StateStopped.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	if p == nil {
		return StateStopped
	}
	return State(p.state.Load())
}

// Ready returns a channel that is closed once the asynchronous exporter start
// has finished, successfully or not. For a nil pipeline it is already closed.
func (p *Pipeline) Ready() <-chan struct{} {
	if p == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.ready
}

// StartErr returns the *StartError of a failed exporter start, or nil.
// It is only meaningful after Ready is closed.
func (p *Pipeline) StartErr() error {
	if p == nil {
		return nil
	}
	select {
	case <-p.ready:
		return p.startErr
	default:
		return nil
	}
}

// Shutdown flushes buffered spans and releases the exporter and provider.
//
// Shutdown is a one-shot latch. The first call performs the shutdown; calls
// made while it is in progress wait for it and get the same result; calls
// made after it has completed return nil. The wait for buffered spans is
// bounded by Config.ShutdownTimeout and by ctx, whichever ends first.
//
// A failure to flush is returned as a *ShutdownError after resources have
// been released anyway. It is also logged, so callers that only need the
// process to exit may ignore it.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if p == nil || p.State() == StateStopped {
		return nil
	}
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.shutdown(ctx)
	})
	return p.shutdownErr
}

func (p *Pipeline) shutdown(ctx context.Context) error {
	begin := time.Now()
	for {
		cur := p.state.Load()
		if p.state.CompareAndSwap(cur, int32(StateShuttingDown)) {
			break
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ShutdownTimeout)
	defer cancel()

	// Abort an exporter start that is still in flight and wait for it, so the
	// batch processor is either attached or never will be.
	p.startCancel()
	select {
	case <-p.ready:
	case <-ctx.Done():
	}

	var err error
	if shutdownErr := p.provider.Shutdown(ctx); shutdownErr != nil {
		err = &ShutdownError{Err: shutdownErr}
	}
	p.state.Store(int32(StateStopped))

	if err != nil {
		p.log.Error("tracing shutdown failed, some spans may be lost", err, map[string]interface{}{
			"elapsed": time.Since(begin).String(),
		})
	} else {
		p.log.Info("Tracing terminated", nil, map[string]interface{}{
			"elapsed": time.Since(begin).String(),
		})
	}
	p.observe("shutdown", begin, err)
	return err
}
