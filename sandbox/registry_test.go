// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"sync"
	"testing"

	"github.com/warren-runtime/warren/errdefs"
)

// stubSandbox is a minimal Sandbox for registry tests.
type stubSandbox struct {
	id string
}

func (s *stubSandbox) Status() (Status, error)                                   { return Created(), nil }
func (s *stubSandbox) Ping(ctx context.Context) error                            { return nil }
func (s *stubSandbox) Container(id string) (Container, error)                    { return nil, errdefs.NotFound("container %s", id) }
func (s *stubSandbox) AppendContainer(context.Context, string, ContainerOption) error { return nil }
func (s *stubSandbox) UpdateContainer(context.Context, string, ContainerOption) error { return nil }
func (s *stubSandbox) RemoveContainer(context.Context, string) error             { return nil }
func (s *stubSandbox) UpdateData(context.Context, Data) error                    { return nil }
func (s *stubSandbox) ExitSignal() (*ExitSignal, error)                          { return NewExitSignal(), nil }
func (s *stubSandbox) Data() (Data, error)                                       { return Data{ID: s.id}, nil }

func TestRegistryAddGetRemove(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Add("s1", &stubSandbox{id: "s1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("Len = %d, want 1", registry.Len())
	}

	handle, err := registry.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	sb := handle.Lock()
	data, _ := sb.Data()
	handle.Unlock()
	if data.ID != "s1" {
		t.Errorf("data.ID = %q, want s1", data.ID)
	}

	if _, err := registry.Remove("s1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if registry.Len() != 0 {
		t.Errorf("Len after remove = %d, want 0", registry.Len())
	}
}

func TestRegistryDuplicateAdd(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Add("s1", &stubSandbox{id: "s1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := registry.Add("s1", &stubSandbox{id: "s1"})
	if !errdefs.IsAlreadyExists(err) {
		t.Fatalf("duplicate Add = %v, want already-exists", err)
	}
}

func TestRegistryMissing(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Get("ghost"); !errdefs.IsNotFound(err) {
		t.Errorf("Get(ghost) = %v, want not-found", err)
	}
	if _, err := registry.Remove("ghost"); !errdefs.IsNotFound(err) {
		t.Errorf("Remove(ghost) = %v, want not-found", err)
	}
}

// TestRegistrySharedHandle verifies both lookups return the same
// handle, so the lock actually serializes mutators.
func TestRegistrySharedHandle(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Add("s1", &stubSandbox{id: "s1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first, err := registry.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := registry.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second {
		t.Fatal("lookups returned distinct handles; lock would not serialize mutators")
	}
}

// TestHandleSerializesMutators checks mutual exclusion: counter
// updates under the handle lock never race.
func TestHandleSerializesMutators(t *testing.T) {
	handle := NewHandle(&stubSandbox{id: "s1"})

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				handle.Lock()
				counter++
				handle.Unlock()
			}
		}()
	}
	wg.Wait()
	if counter != 64*100 {
		t.Fatalf("counter = %d, want %d", counter, 64*100)
	}
}
