// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/warren-runtime/warren/errdefs"
	"github.com/warren-runtime/warren/lib/clock"
	"github.com/warren-runtime/warren/lib/codec"
	"github.com/warren-runtime/warren/sandbox"
)

// stateFile is the name of the persisted record inside the sandbox's
// working directory.
const stateFile = "sandbox.state"

// state is the persisted form of one sandbox: its record, lifecycle
// status, and tracked containers, in append order.
type state struct {
	Data       sandbox.Data            `cbor:"data"`
	Status     sandbox.Status          `cbor:"status"`
	Containers []sandbox.ContainerData `cbor:"containers,omitempty"`
}

// instance is one in-process sandbox. The handle lock serializes
// mutators; the internal mutex additionally covers lock-free readers
// (Status during a concurrent mutation).
type instance struct {
	baseDir string
	clock   clock.Clock

	mu     sync.Mutex
	state  state
	signal *sandbox.ExitSignal
}

func newInstance(baseDir string, data sandbox.Data, clk clock.Clock) *instance {
	return &instance{
		baseDir: baseDir,
		clock:   clk,
		state:   state{Data: data, Status: sandbox.Created()},
		signal:  sandbox.NewExitSignal(),
	}
}

// loadInstance reads a persisted sandbox back from its working
// directory. A stopped sandbox comes back with its exit signal already
// fired.
func loadInstance(baseDir string, clk clock.Clock) (*instance, error) {
	raw, err := os.ReadFile(filepath.Join(baseDir, stateFile))
	if err != nil {
		return nil, err
	}
	var st state
	if err := codec.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding state file in %s: %w", baseDir, err)
	}
	inst := &instance{
		baseDir: baseDir,
		clock:   clk,
		state:   st,
		signal:  sandbox.NewExitSignal(),
	}
	if st.Status.State == sandbox.StateStopped {
		inst.signal.Signal()
	}
	return inst, nil
}

func (i *instance) id() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.Data.ID
}

// persist writes the state file atomically: encode to a temp file in
// the same directory, then rename over the old one.
func (i *instance) persist() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.persistLocked()
}

func (i *instance) persistLocked() error {
	encoded, err := codec.Marshal(i.state)
	if err != nil {
		return fmt.Errorf("encoding state of sandbox %s: %w", i.state.Data.ID, err)
	}

	path := filepath.Join(i.baseDir, stateFile)
	tmp, err := os.CreateTemp(i.baseDir, stateFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// start transitions Created -> Running. Any other starting state is
// rejected: Stopped is terminal, and a second start of a Running
// sandbox is a caller error.
func (i *instance) start(pid uint32) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state.Status.State {
	case sandbox.StateCreated:
	case sandbox.StateRunning:
		return errdefs.AlreadyExists("sandbox %s is already running", i.state.Data.ID)
	default:
		return errdefs.InvalidArgument("sandbox %s cannot start from state %s",
			i.state.Data.ID, i.state.Status.State)
	}

	i.state.Status = sandbox.Running(pid)
	i.state.Data.StartedAt = i.clock.Now()
	i.state.Data.TaskAddress = "unix://" + filepath.Join(i.baseDir, "task.sock")
	return i.persistLocked()
}

// stop transitions to Stopped and fires the exit signal. Reports
// whether this call performed the transition, and the pid the sandbox
// was running as (zero if it never ran).
//
// The transition is all-or-nothing: a persist failure rolls the
// in-memory status back so the sandbox never reads as Stopped without
// the exit signal fired, and a retried stop gets another attempt.
func (i *instance) stop() (stopped bool, pid uint32, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state.Status.State == sandbox.StateStopped {
		return false, 0, nil
	}
	pid = i.state.Status.Pid

	now := i.clock.Now()
	previousStatus := i.state.Status
	previousExitedAt := i.state.Data.ExitedAt
	i.state.Status = sandbox.Stopped(0, now)
	i.state.Data.ExitedAt = now
	if err := i.persistLocked(); err != nil {
		i.state.Status = previousStatus
		i.state.Data.ExitedAt = previousExitedAt
		return false, 0, err
	}
	i.signal.Signal()
	return true, pid, nil
}

// UpdateData implements sandbox.Sandbox: swaps in a new sandbox
// record, keeping status and containers, and persists.
func (i *instance) UpdateData(ctx context.Context, data sandbox.Data) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Data = data
	return i.persistLocked()
}

// Status implements sandbox.Sandbox.
func (i *instance) Status() (sandbox.Status, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.Status, nil
}

// Ping implements sandbox.Sandbox. The in-process backing is
// responsive exactly while it has not stopped.
func (i *instance) Ping(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state.Status.State == sandbox.StateStopped {
		return errdefs.Unavailable("sandbox %s has stopped", i.state.Data.ID)
	}
	return nil
}

// containerView is an immutable snapshot of one container record.
type containerView struct {
	data sandbox.ContainerData
}

func (c *containerView) Data() (sandbox.ContainerData, error) { return c.data, nil }

// Container implements sandbox.Sandbox.
func (i *instance) Container(id string) (sandbox.Container, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, container := range i.state.Containers {
		if container.ID == id {
			return &containerView{data: container}, nil
		}
	}
	return nil, errdefs.NotFound("container %s in sandbox %s", id, i.state.Data.ID)
}

// AppendContainer implements sandbox.Sandbox. The record's id must
// match the key it is stored under; the container's bundle directory
// is created under the sandbox's working directory.
func (i *instance) AppendContainer(ctx context.Context, id string, option sandbox.ContainerOption) error {
	if option.Container.ID != id {
		return errdefs.InvalidArgument("container record id %q does not match key %q",
			option.Container.ID, id)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for _, container := range i.state.Containers {
		if container.ID == id {
			return errdefs.AlreadyExists("container %s in sandbox %s", id, i.state.Data.ID)
		}
	}

	record := option.Container
	record.Bundle = filepath.Join(i.baseDir, id)
	if err := os.MkdirAll(record.Bundle, 0o711); err != nil {
		return fmt.Errorf("creating bundle directory: %w", err)
	}
	i.state.Containers = append(i.state.Containers, record)
	return i.persistLocked()
}

// UpdateContainer implements sandbox.Sandbox.
func (i *instance) UpdateContainer(ctx context.Context, id string, option sandbox.ContainerOption) error {
	if option.Container.ID != id {
		return errdefs.InvalidArgument("container record id %q does not match key %q",
			option.Container.ID, id)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for index, container := range i.state.Containers {
		if container.ID != id {
			continue
		}
		record := option.Container
		// The bundle path is owned by this backing, not the caller.
		record.Bundle = container.Bundle
		i.state.Containers[index] = record
		return i.persistLocked()
	}
	return errdefs.NotFound("container %s in sandbox %s", id, i.state.Data.ID)
}

// RemoveContainer implements sandbox.Sandbox. The bundle directory is
// removed best-effort with the record.
func (i *instance) RemoveContainer(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for index, container := range i.state.Containers {
		if container.ID != id {
			continue
		}
		if container.Bundle != "" {
			os.RemoveAll(container.Bundle)
		}
		i.state.Containers = append(i.state.Containers[:index], i.state.Containers[index+1:]...)
		return i.persistLocked()
	}
	return errdefs.NotFound("container %s in sandbox %s", id, i.state.Data.ID)
}

// ExitSignal implements sandbox.Sandbox. Every caller gets the same
// instance, so a waiter from before a stop and one from after observe
// the same flag.
func (i *instance) ExitSignal() (*sandbox.ExitSignal, error) {
	return i.signal, nil
}

// Data implements sandbox.Sandbox.
func (i *instance) Data() (sandbox.Data, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state.Data, nil
}
