// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/warren-runtime/warren/lib/testutil"
)

func TestExitSignalWaitAfterSignal(t *testing.T) {
	signal := NewExitSignal()
	signal.Signal()

	// The flag is already set: Wait must return without blocking.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := signal.Wait(ctx); err != nil {
		t.Fatalf("Wait after Signal: %v", err)
	}
}

func TestExitSignalWaitBeforeSignal(t *testing.T) {
	signal := NewExitSignal()

	done := make(chan error, 1)
	go func() {
		done <- signal.Wait(context.Background())
	}()

	// Give the waiter a chance to block, then fire.
	time.Sleep(10 * time.Millisecond)
	signal.Signal()

	if err := testutil.RequireReceive(t, done, 5*time.Second, "waiter wakeup"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestExitSignalWakesAllWaiters(t *testing.T) {
	signal := NewExitSignal()

	const waiters = 32
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- signal.Wait(context.Background())
		}()
	}

	signal.Signal()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("waiter error: %v", err)
		}
	}
}

func TestExitSignalIdempotent(t *testing.T) {
	signal := NewExitSignal()
	signal.Signal()
	signal.Signal() // second call must not panic (double close)
	if !signal.Signaled() {
		t.Fatal("Signaled() = false after Signal")
	}
}

func TestExitSignalAbandonedWaiter(t *testing.T) {
	signal := NewExitSignal()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- signal.Wait(ctx)
	}()

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "cancelled waiter"); err != context.Canceled {
		t.Fatalf("Wait after cancel = %v, want context.Canceled", err)
	}

	// Other waiters are unaffected by the abandoned one.
	signal.Signal()
	if err := signal.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after Signal: %v", err)
	}
}

// TestExitSignalNoMissedWakeup hammers concurrent wait/signal
// interleavings: waiters that register at random points around the
// Signal call must all observe the wakeup.
func TestExitSignalNoMissedWakeup(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		signal := NewExitSignal()

		const waiters = 8
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < waiters; i++ {
			wg.Add(1)
			delay := time.Duration(rng.Intn(50)) * time.Microsecond
			go func() {
				defer wg.Done()
				<-start
				time.Sleep(delay)
				if err := signal.Wait(context.Background()); err != nil {
					t.Errorf("round %d: Wait: %v", round, err)
				}
			}()
		}

		close(start)
		time.Sleep(time.Duration(rng.Intn(50)) * time.Microsecond)
		signal.Signal()

		waitDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitDone)
		}()
		testutil.RequireClosed(t, waitDone, 5*time.Second, "round %d: all waiters woke", round)
	}
}
