// Package lifecycle coordinates startup, readiness, and shutdown of long-running subsystems.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports whether a dependency is currently usable.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Coordinator manages startup and shutdown hooks for the application lifecycle.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      atomic.Bool

	checksMu sync.RWMutex
	checks   []check
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// AddCheck registers a named readiness check evaluated by Readiness.
func (c *Coordinator) AddCheck(name string, fn CheckFunc) {
	c.checksMu.Lock()
	defer c.checksMu.Unlock()
	c.checks = append(c.checks, check{name: name, fn: fn})
}

// Ready returns true after all startup hooks have completed.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Readiness runs every registered check and returns the failures keyed by
// check name. A nil map means the service is started and every check passed.
func (c *Coordinator) Readiness(ctx context.Context) map[string]string {
	failures := map[string]string{}
	if !c.Ready() {
		failures["startup"] = "not complete"
	}

	c.checksMu.RLock()
	checks := c.checks
	c.checksMu.RUnlock()

	for _, chk := range checks {
		if err := chk.fn(ctx); err != nil {
			failures[chk.name] = err.Error()
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return failures
}

// WaitForStartup blocks until all startup hooks have completed and sets the ready flag.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
