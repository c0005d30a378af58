// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"time"

	"github.com/warren-runtime/warren/sandbox"
)

// Readiness vocabulary reported by the status action. Internal
// statuses collapse to these two: only Running is ready.
const (
	StateReady    = "SANDBOX_READY"
	StateNotReady = "SANDBOX_NOTREADY"
)

// CreateRequest registers a new sandbox.
type CreateRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`

	// Config is the opaque pod configuration blob. Never decoded by
	// the control plane.
	Config *sandbox.Any `cbor:"config,omitempty" json:"config,omitempty"`

	NetNSPath string            `cbor:"netns_path,omitempty" json:"netns_path,omitempty"`
	Labels    map[string]string `cbor:"labels,omitempty" json:"labels,omitempty"`

	// Extensions are caller-owned payloads stored on the sandbox
	// record, including the "tasks" desired-state list.
	Extensions map[string]sandbox.Any `cbor:"extensions,omitempty" json:"extensions,omitempty"`
}

// CreateResponse echoes the registered sandbox id.
type CreateResponse struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
}

// StartRequest transitions a sandbox to Running.
type StartRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
}

// StartResponse reports the running sandbox's identity and addressing.
type StartResponse struct {
	SandboxID   string    `cbor:"sandbox_id" json:"sandbox_id"`
	Pid         uint32    `cbor:"pid" json:"pid"`
	CreatedAt   time.Time `cbor:"created_at,omitempty" json:"created_at,omitempty"`
	TaskAddress string    `cbor:"task_address,omitempty" json:"task_address,omitempty"`
}

// PlatformRequest asks for static platform metadata.
type PlatformRequest struct{}

// PlatformResponse carries the platform the controller runs on.
type PlatformResponse struct {
	OS           string `cbor:"os" json:"os"`
	Architecture string `cbor:"architecture" json:"architecture"`
	Variant      string `cbor:"variant,omitempty" json:"variant,omitempty"`
}

// PrepareRequest appends a container (empty ExecID) or an exec
// process (non-empty ExecID) to a sandbox.
type PrepareRequest struct {
	SandboxID   string          `cbor:"sandbox_id" json:"sandbox_id"`
	ContainerID string          `cbor:"container_id" json:"container_id"`
	ExecID      string          `cbor:"exec_id,omitempty" json:"exec_id,omitempty"`
	Spec        *sandbox.Any    `cbor:"spec,omitempty" json:"spec,omitempty"`
	Rootfs      []sandbox.Mount `cbor:"rootfs,omitempty" json:"rootfs,omitempty"`
	Stdin       string          `cbor:"stdin,omitempty" json:"stdin,omitempty"`
	Stdout      string          `cbor:"stdout,omitempty" json:"stdout,omitempty"`
	Stderr      string          `cbor:"stderr,omitempty" json:"stderr,omitempty"`
	Terminal    bool            `cbor:"terminal,omitempty" json:"terminal,omitempty"`
}

// PrepareResponse carries the container bundle path. Empty in process
// mode.
type PrepareResponse struct {
	Bundle string `cbor:"bundle,omitempty" json:"bundle,omitempty"`
}

// PurgeRequest removes a container (empty ExecID) or one exec process
// (non-empty ExecID) from a sandbox.
type PurgeRequest struct {
	SandboxID   string `cbor:"sandbox_id" json:"sandbox_id"`
	ContainerID string `cbor:"container_id" json:"container_id"`
	ExecID      string `cbor:"exec_id,omitempty" json:"exec_id,omitempty"`
}

// PurgeResponse is empty.
type PurgeResponse struct{}

// UpdateRequest replaces parts of the sandbox record selected by
// field paths. Only "extensions.tasks" is handled; other paths are
// ignored for forward compatibility with wire schema growth.
type UpdateRequest struct {
	SandboxID  string                 `cbor:"sandbox_id" json:"sandbox_id"`
	Fields     []string               `cbor:"fields,omitempty" json:"fields,omitempty"`
	Extensions map[string]sandbox.Any `cbor:"extensions,omitempty" json:"extensions,omitempty"`
}

// UpdateResponse is empty.
type UpdateResponse struct{}

// StopRequest stops a sandbox. Stopping an unknown or already stopped
// sandbox succeeds.
type StopRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
	Force     bool   `cbor:"force,omitempty" json:"force,omitempty"`
}

// StopResponse is empty.
type StopResponse struct{}

// WaitRequest blocks until the sandbox reaches a terminal status.
type WaitRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
}

// WaitResponse carries the exit code and time once the sandbox has
// stopped. Both are zero values if the sandbox terminated without a
// recorded exit status.
type WaitResponse struct {
	ExitStatus uint32    `cbor:"exit_status" json:"exit_status"`
	ExitedAt   time.Time `cbor:"exited_at,omitempty" json:"exited_at,omitempty"`
}

// StatusRequest reads the sandbox's readiness state.
type StatusRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
	Verbose   bool   `cbor:"verbose,omitempty" json:"verbose,omitempty"`
}

// StatusResponse reports readiness, addressing, and timestamps.
type StatusResponse struct {
	SandboxID   string            `cbor:"sandbox_id" json:"sandbox_id"`
	Pid         uint32            `cbor:"pid,omitempty" json:"pid,omitempty"`
	State       string            `cbor:"state" json:"state"`
	TaskAddress string            `cbor:"task_address,omitempty" json:"task_address,omitempty"`
	Info        map[string]string `cbor:"info,omitempty" json:"info,omitempty"`
	CreatedAt   time.Time         `cbor:"created_at,omitempty" json:"created_at,omitempty"`
	ExitedAt    time.Time         `cbor:"exited_at,omitempty" json:"exited_at,omitempty"`
}

// ShutdownRequest tears a sandbox down and cleans up its working
// directory. Always succeeds.
type ShutdownRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
}

// ShutdownResponse is empty.
type ShutdownResponse struct{}

// MetricsRequest asks for sandbox resource metrics.
type MetricsRequest struct {
	SandboxID string `cbor:"sandbox_id" json:"sandbox_id"`
}

// MetricsResponse carries the metrics blob. Currently always empty:
// collection is delegated to the resource-accounting collaborator.
type MetricsResponse struct {
	Metrics *sandbox.Any `cbor:"metrics,omitempty" json:"metrics,omitempty"`
}
