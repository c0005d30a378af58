// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "context"

// SandboxOption carries everything a Sandboxer needs to register a new
// sandbox: the per-sandbox working directory the controller prepared,
// and the initial record.
type SandboxOption struct {
	// BaseDir is the sandbox's working directory. The controller
	// creates it before Create and removes it on shutdown (or on
	// create rollback).
	BaseDir string

	// Sandbox is the initial record, in state Created.
	Sandbox Data
}

// ContainerOption carries the container record for append and update
// operations.
type ContainerOption struct {
	Container ContainerData
}

// Sandboxer is the capability set a backing implementation provides
// for sandbox lifecycle. It is the single owner of the sandbox
// registry: only the Sandboxer inserts or removes entries.
//
// All methods must be safe for concurrent use. Implementations
// serialize mutation per sandbox id through the Handle returned by
// Sandbox; see the package comment for the locking contract.
type Sandboxer interface {
	// Create registers a new sandbox in state Created. Fails with an
	// already-exists error if the id is taken.
	Create(ctx context.Context, id string, option SandboxOption) error

	// Start transitions the sandbox to Running.
	Start(ctx context.Context, id string) error

	// Sandbox looks up the shared, independently-lockable handle for
	// id. Fails with a not-found error if the id is unknown.
	Sandbox(ctx context.Context, id string) (*Handle, error)

	// Stop transitions the sandbox to Stopped. force requests an
	// immediate, non-graceful stop. Stopping an already stopped
	// sandbox is a no-op.
	Stop(ctx context.Context, id string, force bool) error

	// Delete removes the sandbox from the registry. A running sandbox
	// is stopped first.
	Delete(ctx context.Context, id string) error

	// Update replaces the sandbox's stored record, taking the handle
	// lock itself. Callers already holding the handle lock use the
	// Sandbox's UpdateData instead.
	Update(ctx context.Context, id string, data Data) error
}

// Sandbox is the capability set of one sandbox instance. Mutating
// methods (AppendContainer, UpdateContainer, RemoveContainer) must
// only be called while holding the owning Handle's lock.
type Sandbox interface {
	// Status returns the current lifecycle status.
	Status() (Status, error)

	// Ping verifies the sandbox is responsive.
	Ping(ctx context.Context) error

	// Container looks up a tracked container by id.
	Container(id string) (Container, error)

	// AppendContainer adds a container record. The id must match
	// option.Container.ID; a duplicate id is an error.
	AppendContainer(ctx context.Context, id string, option ContainerOption) error

	// UpdateContainer replaces the record of an existing container.
	// Process additions and removals go through this as a
	// read-modify-write of the whole container record.
	UpdateContainer(ctx context.Context, id string, option ContainerOption) error

	// RemoveContainer removes a container record.
	RemoveContainer(ctx context.Context, id string) error

	// UpdateData replaces the sandbox's stored record. Callers use it
	// to fold a new extensions payload back into the record in the
	// same critical section as the reconciliation that produced it.
	UpdateData(ctx context.Context, data Data) error

	// ExitSignal returns the signal that fires when the sandbox
	// reaches a terminal status. The signal is shared: every caller
	// gets the same instance.
	ExitSignal() (*ExitSignal, error)

	// Data returns a snapshot of the sandbox record.
	Data() (Data, error)
}

// Container exposes the record of one tracked container.
type Container interface {
	// Data returns a snapshot of the container record.
	Data() (ContainerData, error)
}
