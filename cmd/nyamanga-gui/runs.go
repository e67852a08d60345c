package main

import (
	"context"
	"sync"

	"github.com/oukeidos/nyamanga/internal/logger"
)

// viewID names a view that owns at most one running request.
type viewID string

const (
	viewLocalize viewID = "localize"
	viewRewrite  viewID = "rewrite"
)

type activeRun struct {
	id     uint64
	cancel context.CancelFunc
}

// runTracker cancels the previous run of a view when a new one starts.
type runTracker struct {
	mu     sync.Mutex
	nextID uint64
	active map[viewID]activeRun
}

// start derives a cancellable context for view, canceling whatever ran there
// before. The returned id is passed to finish.
func (r *runTracker) start(view viewID) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.active = make(map[viewID]activeRun)
	}
	if prev, ok := r.active[view]; ok {
		logger.Info("Canceling previous run", "view", view)
		prev.cancel()
	}
	r.nextID++
	r.active[view] = activeRun{id: r.nextID, cancel: cancel}
	return ctx, r.nextID
}

// finish releases the run if it is still the active one for view.
func (r *runTracker) finish(view viewID, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.active[view]; ok && run.id == id {
		run.cancel()
		delete(r.active, view)
	}
}

// isCurrent reports whether id is still the active run of view.
func (r *runTracker) isCurrent(view viewID, id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.active[view]
	return ok && run.id == id
}

func (r *runTracker) cancelAll(reason string) {
	r.mu.Lock()
	runs := r.active
	r.active = nil
	r.mu.Unlock()
	for view, run := range runs {
		logger.Warn("Cancellation requested", "view", view, "reason", reason)
		run.cancel()
	}
}
