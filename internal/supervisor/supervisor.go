// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supervisor manages keyed asynchronous operations with
// cancel-or-supersede semantics.
//
// Each operation runs under a string key. Starting a new operation under a
// key that already has one live cancels the old operation first, so at most
// one operation is ever in flight per key. Operations receive a context and
// must check it before applying side effects; a cancelled operation's late
// results are dropped by the caller, not by the supervisor.
package supervisor

import (
	"context"
	"sync"
)

// =============================================================================
// HANDLE
// =============================================================================

// Handle refers to one started operation. Cancel is idempotent and safe
// after completion.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel signals the operation's context.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the operation function has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// =============================================================================
// SUPERVISOR
// =============================================================================

// entry is the live operation under a key. The generation distinguishes it
// from a superseded predecessor so the old operation's cleanup cannot evict
// the new entry.
type entry struct {
	cancel     context.CancelFunc
	generation uint64
}

// Supervisor tracks at most one live operation per key.
//
// Use a pointer: the struct holds a mutex and must not be copied, in
// particular not through a Bubble Tea model value.
type Supervisor struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextGen uint64
}

// New creates an empty supervisor.
func New() *Supervisor {
	return &Supervisor{
		entries: make(map[string]*entry),
	}
}

// Start cancels any live operation under key, then runs op in a new
// goroutine with a fresh cancellable context derived from parent.
func (s *Supervisor) Start(parent context.Context, key string, op func(ctx context.Context)) *Handle {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if prev, ok := s.entries[key]; ok {
		prev.cancel()
	}
	s.nextGen++
	gen := s.nextGen
	s.entries[key] = &entry{cancel: cancel, generation: gen}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer s.remove(key, gen)
		op(ctx)
	}()

	return &Handle{cancel: cancel, done: done}
}

// remove deletes the entry for key only if it still belongs to the given
// generation. A superseded operation finishing late must not remove its
// successor.
func (s *Supervisor) remove(key string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.generation == gen {
		e.cancel()
		delete(s.entries, key)
	}
}

// Cancel cancels the live operation under key, if any.
func (s *Supervisor) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		e.cancel()
		delete(s.entries, key)
	}
}

// CancelAll cancels every live operation.
func (s *Supervisor) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		e.cancel()
		delete(s.entries, key)
	}
}

// Active reports whether an operation is live under key.
func (s *Supervisor) Active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Len returns the number of live operations.
func (s *Supervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
