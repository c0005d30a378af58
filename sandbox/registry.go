// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"sync"

	"github.com/warren-runtime/warren/errdefs"
)

// Handle pairs a Sandbox with its exclusive mutation lock. The handle
// is shared: every lookup of the same id returns the same *Handle, so
// the lock serializes all mutators of that sandbox across handlers.
type Handle struct {
	mu      sync.Mutex
	sandbox Sandbox
}

// NewHandle wraps a sandbox in a fresh handle.
func NewHandle(s Sandbox) *Handle {
	return &Handle{sandbox: s}
}

// Lock acquires the sandbox's exclusive lock and returns the sandbox.
// The caller must call Unlock when done:
//
//	sb := handle.Lock()
//	defer handle.Unlock()
func (h *Handle) Lock() Sandbox {
	h.mu.Lock()
	return h.sandbox
}

// Unlock releases the lock taken by Lock.
func (h *Handle) Unlock() {
	h.mu.Unlock()
}

// Registry maps sandbox ids to their shared handles. It is
// process-wide state owned by the Sandboxer: initialized empty at
// construction, entries inserted on create and removed on delete (or
// failed-create rollback), never otherwise pruned.
//
// The registry lock guarantees lookups observe a consistent view of
// "does this id exist"; it says nothing about the sandbox's internal
// state, which is covered by the per-sandbox handle lock taken
// afterward. The lock is never held across a per-sandbox operation.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Add inserts a sandbox under id. Fails with an already-exists error
// if the id is taken.
func (r *Registry) Add(id string, s Sandbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[id]; exists {
		return errdefs.AlreadyExists("sandbox %s", id)
	}
	r.handles[id] = NewHandle(s)
	return nil
}

// Get returns the shared handle for id, or a not-found error.
func (r *Registry) Get(id string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, exists := r.handles[id]
	if !exists {
		return nil, errdefs.NotFound("sandbox %s", id)
	}
	return handle, nil
}

// Remove deletes the entry for id and returns its handle so the
// caller can finish tearing the sandbox down after the registry no
// longer advertises it. Fails with a not-found error if the id is
// unknown.
func (r *Registry) Remove(id string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, exists := r.handles[id]
	if !exists {
		return nil, errdefs.NotFound("sandbox %s", id)
	}
	delete(r.handles, id)
	return handle, nil
}

// Len returns the number of registered sandboxes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
