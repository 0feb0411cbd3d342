// Package pool implements the worker pool contract (spec.md §4.7): a
// goroutine-based task runner with dynamic submission, a result callback
// that runs only on the owning goroutine, and graceful shutdown.
package pool

import (
	"errors"
	"sync"
)

// ErrStopped is returned by Add once Stop has been called; callers use it to
// recognize "don't start new work" without inspecting stop-channel state
// directly, matching g.threads.Add() usage throughout the teacher's gateway
// and host modules.
var ErrStopped = errors.New("rungroup: stopped")

// phase tracks how far Stop has progressed, so OnStop/AfterStop registered
// late know whether to queue or run immediately.
type phase int

const (
	phaseRunning phase = iota
	phaseStopping
	phaseStopped
)

// RunGroup is a scoped-lifecycle primitive: callers register in-flight work
// with Add/Done, and Stop blocks until every registered unit of work has
// called Done, running any OnStop/AfterStop hooks along the way. Grounded
// directly on sync/threadgroup_test.go's TestThreadGroupOnStop,
// TestThreadGroupClosedAfterStop and TestAddOnStop, which pin down not just
// the Add/Done/Stop/StopChan/OnStop/AfterStop contract but also the
// late-registration behavior: a hook registered after its phase has already
// run fires immediately instead of being silently dropped.
type RunGroup struct {
	mu         sync.Mutex
	wg         sync.WaitGroup
	stopChan   chan struct{}
	stopOnce   sync.Once
	phase      phase
	onStops    []func()
	afterStops []func()
}

// NewRunGroup returns a ready RunGroup.
func NewRunGroup() *RunGroup {
	return &RunGroup{stopChan: make(chan struct{})}
}

// Add registers one unit of in-flight work, returning ErrStopped if Stop has
// already been called. Every successful Add must be paired with a Done.
func (rg *RunGroup) Add() error {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	if rg.phase != phaseRunning {
		return ErrStopped
	}
	rg.wg.Add(1)
	return nil
}

// Done releases one unit of work registered with Add.
func (rg *RunGroup) Done() {
	rg.wg.Done()
}

// StopChan returns a channel that closes once Stop is called, for
// long-running loops to select on alongside their normal work.
func (rg *RunGroup) StopChan() <-chan struct{} {
	return rg.stopChan
}

// OnStop registers fn to run once, synchronously, when Stop is first
// called, before Stop waits for outstanding Add/Done pairs to drain. If
// Stop has already entered or passed that phase, fn runs immediately
// instead of being queued, matching TestAddOnStop's expectation that a late
// OnStop still fires.
func (rg *RunGroup) OnStop(fn func()) {
	rg.mu.Lock()
	if rg.phase == phaseRunning {
		rg.onStops = append(rg.onStops, fn)
		rg.mu.Unlock()
		return
	}
	rg.mu.Unlock()
	fn()
}

// AfterStop registers fn to run once, synchronously, after Stop has drained
// all outstanding work. If Stop has already finished, fn runs immediately,
// matching TestThreadGroupClosedAfterStop.
func (rg *RunGroup) AfterStop(fn func()) {
	rg.mu.Lock()
	if rg.phase != phaseStopped {
		rg.afterStops = append(rg.afterStops, fn)
		rg.mu.Unlock()
		return
	}
	rg.mu.Unlock()
	fn()
}

// Stop signals StopChan, runs OnStop hooks, blocks until every outstanding
// Add has a matching Done, then runs AfterStop hooks. It is idempotent:
// calling it more than once is a no-op after the first call.
func (rg *RunGroup) Stop() error {
	rg.stopOnce.Do(func() {
		rg.mu.Lock()
		rg.phase = phaseStopping
		onStops := rg.onStops
		rg.mu.Unlock()

		close(rg.stopChan)
		for _, fn := range onStops {
			fn()
		}

		rg.wg.Wait()

		rg.mu.Lock()
		afterStops := rg.afterStops
		rg.phase = phaseStopped
		rg.mu.Unlock()
		for _, fn := range afterStops {
			fn()
		}
	})
	return nil
}

// Flush blocks until every outstanding Add/Done pair has drained, without
// stopping the group from accepting further Add calls. Used by callers that
// need a barrier (e.g. a status snapshot) without tearing the pool down.
func (rg *RunGroup) Flush() {
	rg.wg.Wait()
}
