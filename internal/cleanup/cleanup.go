// Package cleanup runs exit hooks registered by commands, such as closing
// log files and API sessions.
package cleanup

import (
	"errors"
	"sync"
)

var (
	mu    sync.Mutex
	hooks []func() error
)

// Register adds a hook. Hooks run last-registered first.
func Register(hook func() error) {
	if hook == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, hook)
}

// RegisterCloser is Register for anything with a Close method.
func RegisterCloser(c interface{ Close() error }) {
	if c != nil {
		Register(c.Close)
	}
}

// RunAll runs and clears every hook, joining their errors.
func RunAll() error {
	mu.Lock()
	pending := hooks
	hooks = nil
	mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
