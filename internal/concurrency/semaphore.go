// Package concurrency provides the bounded-concurrency primitives used by
// the Q&A generation pipeline.
package concurrency

import (
	"context"
	"sync"
)

// Semaphore caps the number of concurrently in-flight operations, used to
// bound outbound LLM/embedding concurrency (the generator's semaphore_limit).
type Semaphore struct {
	ch      chan struct{}
	mu      sync.Mutex
	max     int
	current int
}

// NewSemaphore creates a semaphore allowing up to max concurrent holders.
func NewSemaphore(max int) *Semaphore {
	if max <= 0 {
		max = 1
	}
	return &Semaphore{ch: make(chan struct{}, max), max: max}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		s.mu.Lock()
		s.current++
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (s *Semaphore) Release() {
	select {
	case <-s.ch:
		s.mu.Lock()
		if s.current > 0 {
			s.current--
		}
		s.mu.Unlock()
	default:
	}
}

// Current reports how many slots are currently held.
func (s *Semaphore) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Available reports how many slots remain free.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max - s.current
}
