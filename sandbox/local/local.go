// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package local

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warren-runtime/warren/lib/clock"
	"github.com/warren-runtime/warren/monitor"
	"github.com/warren-runtime/warren/sandbox"
)

// Sandboxer is the in-process sandbox backing. It owns the registry of
// live sandboxes and reports terminations to the exit monitor.
type Sandboxer struct {
	registry *sandbox.Registry
	monitor  *monitor.Monitor
	clock    clock.Clock
	logger   *slog.Logger
}

// NewSandboxer creates an empty in-process backing.
func NewSandboxer(mon *monitor.Monitor, clk clock.Clock, logger *slog.Logger) *Sandboxer {
	return &Sandboxer{
		registry: sandbox.NewRegistry(),
		monitor:  mon,
		clock:    clk,
		logger:   logger,
	}
}

// Create registers a new sandbox in state Created and persists its
// initial state file. The id is reserved in the registry before
// anything touches disk: a duplicate create must fail without
// disturbing the live sandbox's persisted state.
func (s *Sandboxer) Create(ctx context.Context, id string, option sandbox.SandboxOption) error {
	inst := newInstance(option.BaseDir, option.Sandbox, s.clock)
	if err := s.registry.Add(id, inst); err != nil {
		return err
	}
	if err := inst.persist(); err != nil {
		s.registry.Remove(id)
		return err
	}
	s.logger.Debug("sandbox created", "sandbox", id, "dir", option.BaseDir)
	return nil
}

// Start transitions the sandbox from Created to Running. The backing
// is in-process, so the daemon's own pid is recorded and the task
// address points into the sandbox's working directory.
func (s *Sandboxer) Start(ctx context.Context, id string) error {
	handle, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	sb := handle.Lock()
	defer handle.Unlock()
	return sb.(*instance).start(uint32(os.Getpid()))
}

// Sandbox returns the shared handle for id.
func (s *Sandboxer) Sandbox(ctx context.Context, id string) (*sandbox.Handle, error) {
	return s.registry.Get(id)
}

// Stop transitions the sandbox to Stopped, fires its exit signal, and
// publishes the exit on the monitor. Stopping an already stopped
// sandbox is a no-op; the exit is published at most once.
func (s *Sandboxer) Stop(ctx context.Context, id string, force bool) error {
	handle, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	sb := handle.Lock()
	defer handle.Unlock()

	stopped, pid, err := sb.(*instance).stop()
	if err != nil {
		return err
	}
	if stopped {
		s.logger.Info("sandbox stopped", "sandbox", id, "force", force)
		// A sandbox that never ran has no pid to report an exit for.
		if pid != 0 {
			s.monitor.NotifyByPid(int32(pid), 0)
		}
	}
	return nil
}

// Delete stops the sandbox if needed and removes it from the registry.
// The state file goes with the working directory, which the caller
// removes.
func (s *Sandboxer) Delete(ctx context.Context, id string) error {
	if err := s.Stop(ctx, id, true); err != nil {
		return err
	}
	if _, err := s.registry.Remove(id); err != nil {
		return err
	}
	s.logger.Debug("sandbox deleted", "sandbox", id)
	return nil
}

// Update replaces the sandbox's stored record and persists it.
func (s *Sandboxer) Update(ctx context.Context, id string, data sandbox.Data) error {
	handle, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	sb := handle.Lock()
	defer handle.Unlock()
	return sb.UpdateData(ctx, data)
}

// Recover scans dir for sandbox working directories with a state file
// and re-registers each one, preserving its persisted status. Exit
// signals of recovered stopped sandboxes are pre-fired so waiters see
// the termination immediately. Unreadable entries are logged and
// skipped: one corrupt sandbox must not block daemon startup.
func (s *Sandboxer) Recover(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		baseDir := filepath.Join(dir, entry.Name())
		inst, err := loadInstance(baseDir, s.clock)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logger.Warn("skipping unrecoverable sandbox",
				"dir", baseDir, "error", err)
			continue
		}
		if err := s.registry.Add(inst.id(), inst); err != nil {
			s.logger.Warn("skipping duplicate sandbox during recovery",
				"sandbox", inst.id(), "error", err)
			continue
		}
		s.logger.Info("recovered sandbox",
			"sandbox", inst.id(), "dir", baseDir)
	}
	return nil
}

// Len reports the number of registered sandboxes.
func (s *Sandboxer) Len() int {
	return s.registry.Len()
}
