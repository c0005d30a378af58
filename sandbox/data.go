// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"encoding/json"
	"time"

	"github.com/warren-runtime/warren/errdefs"
)

// TasksExtensionKey is the sandbox extension under which the caller
// stores its desired task list, as JSON-encoded TaskResources. The
// controller's update operation reconciles the live container set
// against this extension.
const TasksExtensionKey = "tasks"

// Any is an opaque typed payload. The control plane carries OCI specs,
// pod configurations, and resource blobs as Any values without ever
// interpreting them; only the type URL travels alongside the bytes.
type Any struct {
	TypeURL string `cbor:"type_url" json:"type_url,omitempty"`
	Value   []byte `cbor:"value" json:"value,omitempty"`
}

// Mount describes one rootfs mount of a container. Carried through
// from the caller to the backing implementation uninterpreted.
type Mount struct {
	Destination string   `cbor:"destination" json:"destination,omitempty"`
	Type        string   `cbor:"type" json:"type,omitempty"`
	Source      string   `cbor:"source" json:"source,omitempty"`
	Options     []string `cbor:"options,omitempty" json:"options,omitempty"`
}

// IO names the stdio streams of a container or process.
type IO struct {
	Stdin    string `cbor:"stdin" json:"stdin,omitempty"`
	Stdout   string `cbor:"stdout" json:"stdout,omitempty"`
	Stderr   string `cbor:"stderr" json:"stderr,omitempty"`
	Terminal bool   `cbor:"terminal" json:"terminal,omitempty"`
}

// Data is the record a sandbox carries through its lifetime: identity,
// the opaque configuration it was created with, addressing for the
// task service inside it, timestamps, and caller-owned extensions.
type Data struct {
	// ID is the globally unique sandbox identifier, assigned by the
	// caller on create.
	ID string `cbor:"id"`

	// Config is the opaque pod configuration blob from the create
	// request. The control plane never decodes it.
	Config *Any `cbor:"config,omitempty"`

	// NetNSPath is the network namespace path handed over by the
	// caller. Uninterpreted here.
	NetNSPath string `cbor:"netns,omitempty"`

	// TaskAddress is where the task service of a running sandbox
	// listens. Set by the backing implementation on start.
	TaskAddress string `cbor:"task_address,omitempty"`

	Labels map[string]string `cbor:"labels,omitempty"`

	CreatedAt time.Time `cbor:"created_at,omitempty"`
	StartedAt time.Time `cbor:"started_at,omitempty"`
	ExitedAt  time.Time `cbor:"exited_at,omitempty"`

	// Extensions carries caller-owned payloads keyed by name. The
	// "tasks" key holds the desired task list consumed by update
	// reconciliation; everything else passes through untouched.
	Extensions map[string]Any `cbor:"extensions,omitempty"`
}

// TaskResources decodes the desired task list stored under the
// sandbox's "tasks" extension. A missing extension yields an empty
// list; a malformed one is an invalid-argument error, since the
// payload is caller-supplied.
func (d *Data) TaskResources() (TaskResources, error) {
	var tasks TaskResources
	ext, ok := d.Extensions[TasksExtensionKey]
	if !ok {
		return tasks, nil
	}
	if err := json.Unmarshal(ext.Value, &tasks); err != nil {
		return tasks, errdefs.InvalidArgument("unmarshaling tasks extension of sandbox %s: %v", d.ID, err)
	}
	return tasks, nil
}

// ContainerData is the record of one container tracked inside a
// sandbox. It is owned exclusively by its parent sandbox record and
// has no independent lifecycle.
type ContainerData struct {
	ID         string            `cbor:"id"`
	Spec       *Any              `cbor:"spec,omitempty"`
	Rootfs     []Mount           `cbor:"rootfs,omitempty"`
	IO         *IO               `cbor:"io,omitempty"`
	Processes  []ProcessData     `cbor:"processes,omitempty"`
	Bundle     string            `cbor:"bundle,omitempty"`
	Labels     map[string]string `cbor:"labels,omitempty"`
	Extensions map[string]Any    `cbor:"extensions,omitempty"`
}

// ProcessData is the record of one exec process inside a container.
type ProcessData struct {
	// ID is the exec identifier, unique within the container.
	ID      string `cbor:"id"`
	IO      *IO    `cbor:"io,omitempty"`
	Process *Any   `cbor:"process,omitempty"`
}

// TaskResources is the caller-supplied desired-state snapshot decoded
// from the "tasks" extension. It is reconciliation input only: it is
// not persisted beyond the current update call except as the raw
// extension payload folded back into the sandbox record.
type TaskResources struct {
	Tasks []TaskResource `json:"tasks"`
}

// TaskResource is one desired container (a "task" at the wire layer).
type TaskResource struct {
	TaskID    string            `json:"task_id"`
	Spec      *Any              `json:"spec,omitempty"`
	Rootfs    []Mount           `json:"rootfs,omitempty"`
	Stdin     string            `json:"stdin,omitempty"`
	Stdout    string            `json:"stdout,omitempty"`
	Stderr    string            `json:"stderr,omitempty"`
	Processes []ProcessResource `json:"processes,omitempty"`
}

// ProcessResource is one desired exec process inside a task.
type ProcessResource struct {
	ExecID string `json:"exec_id"`
	Spec   *Any   `json:"spec,omitempty"`
	Stdin  string `json:"stdin,omitempty"`
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// NewContainerData builds a container record from a desired task.
func NewContainerData(task TaskResource) ContainerData {
	return ContainerData{
		ID:     task.TaskID,
		Spec:   task.Spec,
		Rootfs: task.Rootfs,
		IO: &IO{
			Stdin:  task.Stdin,
			Stdout: task.Stdout,
			Stderr: task.Stderr,
		},
	}
}

// NewProcessData builds a process record from a desired exec.
func NewProcessData(proc ProcessResource) ProcessData {
	return ProcessData{
		ID: proc.ExecID,
		IO: &IO{
			Stdin:  proc.Stdin,
			Stdout: proc.Stdout,
			Stderr: proc.Stderr,
		},
		Process: proc.Spec,
	}
}
