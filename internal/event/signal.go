package event

import (
	"context"
	"sync"
)

// Signal is a completion that resolves at most once. Waiters that give up
// through their context leave the signal untouched.
type Signal[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{done: make(chan struct{})}
}

// Resolve stores v and wakes all waiters. It reports false when the signal
// had already been resolved or rejected.
func (s *Signal[T]) Resolve(v T) bool {
	resolved := false
	s.once.Do(func() {
		s.value = v
		close(s.done)
		resolved = true
	})
	return resolved
}

// Reject resolves the signal with an error instead of a value.
func (s *Signal[T]) Reject(err error) bool {
	rejected := false
	s.once.Do(func() {
		s.err = err
		close(s.done)
		rejected = true
	})
	return rejected
}

func (s *Signal[T]) Done() <-chan struct{} { return s.done }

// Wait blocks until the signal resolves or ctx ends.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.value, s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved reports whether Resolve or Reject has run.
func (s *Signal[T]) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
