// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warren-runtime/warren/errdefs"
	"github.com/warren-runtime/warren/lib/clock"
	"github.com/warren-runtime/warren/sandbox"
)

// Platform is the static platform identity reported by the platform
// action.
type Platform struct {
	OS           string
	Architecture string
	Variant      string
}

// Controller is the sandbox lifecycle service. It orchestrates the
// Sandboxer in response to inbound lifecycle calls; all mutable state
// lives behind the Sandboxer.
type Controller struct {
	// dir is the root under which each sandbox gets a working
	// directory named by its id.
	dir       string
	sandboxer sandbox.Sandboxer
	platform  Platform
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a controller rooted at dir, backed by sandboxer.
func New(dir string, sandboxer sandbox.Sandboxer, platform Platform, clk clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		dir:       dir,
		sandboxer: sandboxer,
		platform:  platform,
		clock:     clk,
		logger:    logger,
	}
}

// baseDir is the working directory of one sandbox.
func (c *Controller) baseDir(sandboxID string) string {
	return filepath.Join(c.dir, sandboxID)
}

// ignoreNotFound maps a not-found error to success. Stop and shutdown
// paths race with external cleanup; an already-gone sandbox is not a
// failure there.
func ignoreNotFound(err error) error {
	if errdefs.IsNotFound(err) {
		return nil
	}
	return err
}

// Create makes the sandbox's working directory, then registers the
// sandbox with the backing in state Created. If registration fails,
// the directory is removed before the error is surfaced, so a failed
// create leaves nothing behind.
func (c *Controller) Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if req.SandboxID == "" {
		return nil, errdefs.InvalidArgument("sandbox id is empty")
	}
	c.logger.Info("creating sandbox", "sandbox", req.SandboxID)

	data := sandbox.Data{
		ID:         req.SandboxID,
		Config:     req.Config,
		NetNSPath:  req.NetNSPath,
		Labels:     req.Labels,
		CreatedAt:  c.clock.Now(),
		Extensions: req.Extensions,
	}

	baseDir := c.baseDir(req.SandboxID)
	_, statErr := os.Stat(baseDir)
	existed := statErr == nil
	if err := os.MkdirAll(baseDir, 0o711); err != nil {
		return nil, fmt.Errorf("creating sandbox directory %s: %w", baseDir, err)
	}

	option := sandbox.SandboxOption{BaseDir: baseDir, Sandbox: data}
	if err := c.sandboxer.Create(ctx, req.SandboxID, option); err != nil {
		// Roll back the directory so a retried create starts clean —
		// but never one that predates this call: on a duplicate id it
		// belongs to the live sandbox.
		if !existed {
			if removeErr := os.RemoveAll(baseDir); removeErr != nil {
				c.logger.Error("rolling back sandbox directory",
					"sandbox", req.SandboxID, "error", removeErr)
			}
		}
		return nil, err
	}

	return &CreateResponse{SandboxID: req.SandboxID}, nil
}

// Start transitions the sandbox to Running and reports its pid and
// task address. If the post-start reads fail, or the status is
// anything other than Running, a forced stop is issued as compensation
// before surfacing the original error: start leaves the sandbox either
// Running or Stopped, never stuck in between.
func (c *Controller) Start(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	c.logger.Info("starting sandbox", "sandbox", req.SandboxID)
	if err := c.sandboxer.Start(ctx, req.SandboxID); err != nil {
		return nil, err
	}

	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}

	// Read data and status under the handle lock, then release before
	// any compensating stop: the backing's stop takes the same lock.
	data, status, readErr := func() (sandbox.Data, sandbox.Status, error) {
		sb := handle.Lock()
		defer handle.Unlock()
		data, err := sb.Data()
		if err != nil {
			return sandbox.Data{}, sandbox.Status{}, err
		}
		status, err := sb.Status()
		if err != nil {
			return sandbox.Data{}, sandbox.Status{}, err
		}
		return data, status, nil
	}()
	if readErr != nil {
		c.compensateStop(ctx, req.SandboxID)
		return nil, readErr
	}
	if status.State != sandbox.StateRunning {
		c.compensateStop(ctx, req.SandboxID)
		return nil, fmt.Errorf("sandbox %s status is %s after start", req.SandboxID, status.State)
	}

	resp := &StartResponse{
		SandboxID:   req.SandboxID,
		Pid:         status.Pid,
		CreatedAt:   data.CreatedAt,
		TaskAddress: data.TaskAddress,
	}
	c.logger.Info("sandbox started",
		"sandbox", req.SandboxID, "pid", resp.Pid, "task_address", resp.TaskAddress)
	return resp, nil
}

// compensateStop force-stops a sandbox after a failed start. Its own
// failure is swallowed (logged) so the original error is never masked.
func (c *Controller) compensateStop(ctx context.Context, sandboxID string) {
	if err := c.sandboxer.Stop(ctx, sandboxID, true); err != nil {
		c.logger.Error("compensating stop after failed start",
			"sandbox", sandboxID, "error", err)
	}
}

// Platform returns static platform metadata. No state access.
func (c *Controller) Platform(ctx context.Context, req *PlatformRequest) (*PlatformResponse, error) {
	return &PlatformResponse{
		OS:           c.platform.OS,
		Architecture: c.platform.Architecture,
		Variant:      c.platform.Variant,
	}, nil
}

// Prepare appends a container or an exec process to a sandbox,
// selected by whether ExecID is set. Process mode re-persists the
// whole container record (read-modify-write), never a partial
// mutation.
func (c *Controller) Prepare(ctx context.Context, req *PrepareRequest) (*PrepareResponse, error) {
	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}
	sb := handle.Lock()
	defer handle.Unlock()

	if req.ExecID == "" {
		container := sandbox.ContainerData{
			ID:     req.ContainerID,
			Spec:   req.Spec,
			Rootfs: req.Rootfs,
			IO: &sandbox.IO{
				Stdin:    req.Stdin,
				Stdout:   req.Stdout,
				Stderr:   req.Stderr,
				Terminal: req.Terminal,
			},
		}
		c.logger.Info("appending container",
			"sandbox", req.SandboxID, "container", req.ContainerID)
		option := sandbox.ContainerOption{Container: container}
		if err := sb.AppendContainer(ctx, req.ContainerID, option); err != nil {
			return nil, err
		}
		appended, err := sb.Container(req.ContainerID)
		if err != nil {
			return nil, err
		}
		data, err := appended.Data()
		if err != nil {
			return nil, err
		}
		return &PrepareResponse{Bundle: data.Bundle}, nil
	}

	c.logger.Info("appending process",
		"sandbox", req.SandboxID, "container", req.ContainerID, "exec", req.ExecID)
	container, err := sb.Container(req.ContainerID)
	if err != nil {
		return nil, err
	}
	data, err := container.Data()
	if err != nil {
		return nil, err
	}
	data.Processes = append(data.Processes, sandbox.ProcessData{
		ID: req.ExecID,
		IO: &sandbox.IO{
			Stdin:    req.Stdin,
			Stdout:   req.Stdout,
			Stderr:   req.Stderr,
			Terminal: req.Terminal,
		},
		Process: req.Spec,
	})
	option := sandbox.ContainerOption{Container: data}
	if err := sb.UpdateContainer(ctx, req.ContainerID, option); err != nil {
		return nil, err
	}
	return &PrepareResponse{}, nil
}

// Purge is the inverse of Prepare: it removes a container, or removes
// one process from a container's list by exec id.
func (c *Controller) Purge(ctx context.Context, req *PurgeRequest) (*PurgeResponse, error) {
	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}
	sb := handle.Lock()
	defer handle.Unlock()

	if req.ExecID == "" {
		c.logger.Info("removing container",
			"sandbox", req.SandboxID, "container", req.ContainerID)
		if err := sb.RemoveContainer(ctx, req.ContainerID); err != nil {
			return nil, err
		}
		return &PurgeResponse{}, nil
	}

	c.logger.Info("removing process",
		"sandbox", req.SandboxID, "container", req.ContainerID, "exec", req.ExecID)
	container, err := sb.Container(req.ContainerID)
	if err != nil {
		return nil, err
	}
	data, err := container.Data()
	if err != nil {
		return nil, err
	}
	// Filter into a fresh slice: the snapshot shares its backing array
	// with the stored record, and the record must only change through
	// UpdateContainer.
	kept := make([]sandbox.ProcessData, 0, len(data.Processes))
	for _, proc := range data.Processes {
		if proc.ID != req.ExecID {
			kept = append(kept, proc)
		}
	}
	data.Processes = kept
	option := sandbox.ContainerOption{Container: data}
	if err := sb.UpdateContainer(ctx, req.ContainerID, option); err != nil {
		return nil, err
	}
	return &PurgeResponse{}, nil
}

// Update applies field-path updates to the sandbox record. Only the
// "extensions.tasks" path is handled: the new desired task list is
// reconciled against the sandbox's tracked containers, then the new
// extension payload is persisted as the source of truth — in the same
// critical section, so no other mutator can slip between the diff and
// the fold-back. Any other field path is a logged no-op so the
// controller stays forward compatible with wire schema growth it does
// not yet implement.
func (c *Controller) Update(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error) {
	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}
	sb := handle.Lock()
	defer handle.Unlock()

	data, err := sb.Data()
	if err != nil {
		return nil, err
	}

	for _, field := range req.Fields {
		if field != "extensions.tasks" {
			c.logger.Warn("ignoring unsupported update field",
				"sandbox", req.SandboxID, "field", field)
			continue
		}

		ext, ok := req.Extensions[sandbox.TasksExtensionKey]
		if !ok {
			return nil, errdefs.InvalidArgument("update of sandbox %s requests extensions.tasks but carries no tasks extension", req.SandboxID)
		}
		desired, err := decodeTasks(req.SandboxID, ext)
		if err != nil {
			return nil, err
		}
		previous, err := data.TaskResources()
		if err != nil {
			return nil, err
		}
		if err := c.reconcileTasks(ctx, req.SandboxID, sb, desired.Tasks, previous.Tasks); err != nil {
			return nil, err
		}

		// The snapshot's extension map aliases the stored record's;
		// mutate a copy so the record changes only through UpdateData.
		extensions := make(map[string]sandbox.Any, len(data.Extensions)+1)
		for key, value := range data.Extensions {
			extensions[key] = value
		}
		extensions[sandbox.TasksExtensionKey] = ext
		data.Extensions = extensions
		if err := sb.UpdateData(ctx, data); err != nil {
			return nil, err
		}
	}
	return &UpdateResponse{}, nil
}

// Stop stops a sandbox. An unknown id is treated as success: shutdown
// paths may race with external cleanup, and already-stopped is not an
// error.
func (c *Controller) Stop(ctx context.Context, req *StopRequest) (*StopResponse, error) {
	c.logger.Info("stopping sandbox", "sandbox", req.SandboxID, "force", req.Force)
	if err := ignoreNotFound(c.sandboxer.Stop(ctx, req.SandboxID, req.Force)); err != nil {
		return nil, err
	}
	return &StopResponse{}, nil
}

// Wait blocks until the sandbox reaches a terminal status, then
// reports its exit code and time. The signal handle is resolved
// first, the wait happens without any lock held, and the status is
// re-read afterward — the two-phase read tolerates the sandbox being
// concurrently replaced between steps.
func (c *Controller) Wait(ctx context.Context, req *WaitRequest) (*WaitResponse, error) {
	signal, err := func() (*sandbox.ExitSignal, error) {
		handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
		if err != nil {
			return nil, err
		}
		sb := handle.Lock()
		defer handle.Unlock()
		return sb.ExitSignal()
	}()
	if err != nil {
		return nil, err
	}

	if err := signal.Wait(ctx); err != nil {
		return nil, err
	}

	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}
	sb := handle.Lock()
	defer handle.Unlock()
	status, err := sb.Status()
	if err != nil {
		return nil, err
	}

	resp := &WaitResponse{}
	if status.State == sandbox.StateStopped {
		resp.ExitStatus = status.ExitCode
		resp.ExitedAt = status.ExitedAt
	}
	c.logger.Info("wait finished",
		"sandbox", req.SandboxID, "exit_status", resp.ExitStatus)
	return resp, nil
}

// Status maps the internal sandbox status onto the external readiness
// vocabulary: only Running is ready (with pid); Created, Stopped, and
// Paused are not ready.
func (c *Controller) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	handle, err := c.sandboxer.Sandbox(ctx, req.SandboxID)
	if err != nil {
		return nil, err
	}
	sb := handle.Lock()
	defer handle.Unlock()

	status, err := sb.Status()
	if err != nil {
		return nil, err
	}
	data, err := sb.Data()
	if err != nil {
		return nil, err
	}

	state := StateNotReady
	var pid uint32
	if status.State == sandbox.StateRunning {
		state = StateReady
		pid = status.Pid
	}

	return &StatusResponse{
		SandboxID:   req.SandboxID,
		Pid:         pid,
		State:       state,
		TaskAddress: data.TaskAddress,
		CreatedAt:   data.CreatedAt,
		ExitedAt:    data.ExitedAt,
	}, nil
}

// Shutdown deletes the sandbox (unknown id tolerated), then
// best-effort cleans up mounts under its working directory and
// removes the directory. Cleanup failures are logged and swallowed:
// shutdown is unconditionally forward-progressing.
func (c *Controller) Shutdown(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error) {
	c.logger.Info("shutting down sandbox", "sandbox", req.SandboxID)
	if err := ignoreNotFound(c.sandboxer.Delete(ctx, req.SandboxID)); err != nil {
		return nil, err
	}

	baseDir := c.baseDir(req.SandboxID)
	if err := cleanupMounts(baseDir); err != nil {
		c.logger.Error("cleaning up sandbox mounts",
			"sandbox", req.SandboxID, "error", err)
	}
	if err := os.RemoveAll(baseDir); err != nil {
		c.logger.Error("removing sandbox directory",
			"sandbox", req.SandboxID, "error", err)
	}
	return &ShutdownResponse{}, nil
}

// Metrics is a stub: resource accounting is delegated to the cgroup
// metrics collaborator, which is outside this control plane.
func (c *Controller) Metrics(ctx context.Context, req *MetricsRequest) (*MetricsResponse, error) {
	return &MetricsResponse{}, nil
}

// decodeTasks decodes a desired task list from the tasks extension
// payload.
func decodeTasks(sandboxID string, ext sandbox.Any) (sandbox.TaskResources, error) {
	carrier := sandbox.Data{ID: sandboxID, Extensions: map[string]sandbox.Any{sandbox.TasksExtensionKey: ext}}
	return carrier.TaskResources()
}
