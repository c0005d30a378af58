// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"sync"
)

// ExitSignal is a one-shot, multi-waiter, level-triggered completion
// flag. Signal sets the flag and wakes every current and future
// waiter: a waiter that arrives before, during, or after the signal
// observes the wakeup. Once signaled, the flag never resets.
//
// The zero value is not usable; construct with NewExitSignal.
type ExitSignal struct {
	mu       sync.Mutex
	done     chan struct{}
	signaled bool
}

// NewExitSignal returns an unsignaled ExitSignal.
func NewExitSignal() *ExitSignal {
	return &ExitSignal{done: make(chan struct{})}
}

// Signal sets the flag and wakes all waiters. Safe to call more than
// once; only the first call has any effect.
func (s *ExitSignal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signaled {
		return
	}
	s.signaled = true
	close(s.done)
}

// Signaled reports whether Signal has been called.
func (s *ExitSignal) Signaled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signaled
}

// Wait blocks until the signal fires or ctx is cancelled. If the
// signal already fired, Wait returns immediately without blocking.
// Returns ctx.Err() when abandoned by cancellation; an abandoned
// waiter leaves no state behind and does not affect other waiters.
func (s *ExitSignal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		// The signal may have fired in the same instant; prefer
		// reporting completion over a spurious cancellation.
		select {
		case <-s.done:
			return nil
		default:
			return ctx.Err()
		}
	}
}

// Done returns a channel that is closed once the signal fires. Use it
// to select across multiple completion sources.
func (s *ExitSignal) Done() <-chan struct{} {
	return s.done
}
