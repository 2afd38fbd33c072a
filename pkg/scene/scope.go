package scene

import (
	"sync"
	"sync/atomic"
)

// Cleanup releases a resource acquired by a subscription or activation.
type Cleanup func()

// Scope owns the resources acquired while an object is active.
// Disposing a scope runs its cleanups in reverse registration order.
type Scope struct {
	cleanups   []Cleanup
	cleanupsMu sync.Mutex

	disposed atomic.Bool
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// OnCleanup registers fn to run when the scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn Cleanup) {
	if fn == nil {
		return
	}
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// IsDisposed returns true if the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// Dispose runs all registered cleanups in reverse order. Every cleanup runs
// even if an earlier one panics; the panic is re-raised afterwards.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for _, fn := range cleanups {
		defer fn()
	}
}
