// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "time"

// State enumerates the lifecycle states of a sandbox. Exactly one
// holds at any time; transitions are driven exclusively by the
// controller through the Sandboxer, never inferred from polling.
type State uint32

const (
	// StateCreated is the initial state after a successful create.
	StateCreated State = iota

	// StateRunning means the sandbox process is up. Status.Pid is
	// valid only in this state.
	StateRunning

	// StateStopped is terminal: no further status mutation is
	// permitted. Status.ExitCode and Status.ExitedAt are valid only
	// in this state.
	StateStopped

	// StatePaused means the sandbox is suspended by the backing
	// implementation.
	StatePaused
)

// String returns the lowercase state name used in logs and error
// messages.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Status is the tagged lifecycle status of a sandbox. The State field
// selects which of the remaining fields carry meaning.
type Status struct {
	State State `cbor:"state"`

	// Pid is the sandbox process id. Valid only when State is
	// StateRunning.
	Pid uint32 `cbor:"pid,omitempty"`

	// ExitCode is the sandbox exit code. Valid only when State is
	// StateStopped.
	ExitCode uint32 `cbor:"exit_code,omitempty"`

	// ExitedAt is when the sandbox stopped. Valid only when State is
	// StateStopped.
	ExitedAt time.Time `cbor:"exited_at,omitempty"`
}

// Created returns the status of a freshly created sandbox.
func Created() Status { return Status{State: StateCreated} }

// Running returns a running status carrying the sandbox pid.
func Running(pid uint32) Status { return Status{State: StateRunning, Pid: pid} }

// Stopped returns the terminal status carrying the exit code and exit
// time.
func Stopped(exitCode uint32, exitedAt time.Time) Status {
	return Status{State: StateStopped, ExitCode: exitCode, ExitedAt: exitedAt}
}

// Paused returns a paused status.
func Paused() Status { return Status{State: StatePaused} }
