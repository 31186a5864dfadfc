package concurrency

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Semaphore bounds how many callers run at once.
type Semaphore struct {
	weighted *semaphore.Weighted
	held     atomic.Int64
}

// NewSemaphore returns a semaphore with capacity slots. A capacity below one
// yields nil, which never blocks.
func NewSemaphore(capacity int) *Semaphore {
	if capacity < 1 {
		return nil
	}
	return &Semaphore{weighted: semaphore.NewWeighted(int64(capacity))}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if s == nil {
		return ctx.Err()
	}
	if err := s.weighted.Acquire(ctx, 1); err != nil {
		return err
	}
	s.held.Add(1)
	return nil
}

func (s *Semaphore) Release() {
	if s == nil {
		return
	}
	s.held.Add(-1)
	s.weighted.Release(1)
}

// WithSemaphore runs fn while holding a slot.
func (s *Semaphore) WithSemaphore(ctx context.Context, fn func() error) error {
	if err := s.Acquire(ctx); err != nil {
		return err
	}
	defer s.Release()
	return fn()
}

// InFlight returns the number of held slots.
func (s *Semaphore) InFlight() int {
	if s == nil {
		return 0
	}
	return int(s.held.Load())
}

// Group collapses concurrent calls sharing a key into one execution; every
// caller receives that execution's result. A panicking fn is re-raised in
// every waiting caller and the key is released, so the next call runs fn
// again.
type Group[T any] struct {
	flight singleflight.Group
}

// Do runs fn for key unless a call for key is already running, in which case
// it waits for that call. shared reports whether the result went to more than one caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	v, err, shared := g.flight.Do(key, func() (any, error) {
		return fn()
	})
	val, _ := v.(T)
	return val, err, shared
}

// Forget drops key so the next Do runs fn even while an earlier call is
// still running.
func (g *Group[T]) Forget(key string) {
	g.flight.Forget(key)
}
