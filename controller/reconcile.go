// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"

	"github.com/warren-runtime/warren/sandbox"
)

// reconcileTasks drives the sandbox's tracked containers toward the
// desired task list. Matching is by id only: a task whose id survives
// between the previous and desired lists is assumed unchanged at the
// container level, and only its process list is diffed. The caller
// holds the sandbox's handle lock for the whole reconciliation.
//
// Errors abort immediately, leaving the remaining steps unapplied; the
// extension payload is only persisted by the caller after a fully
// successful pass, so a retried update re-derives the same diff.
func (c *Controller) reconcileTasks(ctx context.Context, sandboxID string, sb sandbox.Sandbox, desired, previous []sandbox.TaskResource) error {
	desiredIDs := make(map[string]sandbox.TaskResource, len(desired))
	for _, task := range desired {
		desiredIDs[task.TaskID] = task
	}
	previousIDs := make(map[string]sandbox.TaskResource, len(previous))
	for _, task := range previous {
		previousIDs[task.TaskID] = task
	}

	// Removals first: a task id that left the desired list frees its
	// resources before any additions run.
	for _, task := range previous {
		if _, ok := desiredIDs[task.TaskID]; ok {
			continue
		}
		c.logger.Info("reconcile: removing container",
			"sandbox", sandboxID, "container", task.TaskID)
		if err := sb.RemoveContainer(ctx, task.TaskID); err != nil {
			return err
		}
	}

	for _, task := range desired {
		before, existed := previousIDs[task.TaskID]
		if !existed {
			c.logger.Info("reconcile: appending container",
				"sandbox", sandboxID, "container", task.TaskID)
			option := sandbox.ContainerOption{Container: sandbox.NewContainerData(task)}
			if err := sb.AppendContainer(ctx, task.TaskID, option); err != nil {
				return err
			}
			continue
		}
		if err := c.reconcileProcesses(ctx, sandboxID, sb, task, before); err != nil {
			return err
		}
	}
	return nil
}

// reconcileProcesses diffs the exec process lists of a task that
// exists in both the previous and desired task lists. Like the
// container level, matching is by exec id only. Each change is a
// read-modify-write of the whole container record.
func (c *Controller) reconcileProcesses(ctx context.Context, sandboxID string, sb sandbox.Sandbox, desired, previous sandbox.TaskResource) error {
	desiredIDs := make(map[string]struct{}, len(desired.Processes))
	for _, proc := range desired.Processes {
		desiredIDs[proc.ExecID] = struct{}{}
	}
	previousIDs := make(map[string]struct{}, len(previous.Processes))
	for _, proc := range previous.Processes {
		previousIDs[proc.ExecID] = struct{}{}
	}

	removals := make(map[string]struct{})
	for _, proc := range previous.Processes {
		if _, ok := desiredIDs[proc.ExecID]; !ok {
			removals[proc.ExecID] = struct{}{}
		}
	}
	var additions []sandbox.ProcessResource
	for _, proc := range desired.Processes {
		if _, ok := previousIDs[proc.ExecID]; !ok {
			additions = append(additions, proc)
		}
	}
	if len(removals) == 0 && len(additions) == 0 {
		return nil
	}

	container, err := sb.Container(desired.TaskID)
	if err != nil {
		return err
	}
	data, err := container.Data()
	if err != nil {
		return err
	}

	// Filter into a fresh slice: the snapshot shares its backing array
	// with the stored record, and the record must only change through
	// UpdateContainer.
	kept := make([]sandbox.ProcessData, 0, len(data.Processes))
	for _, proc := range data.Processes {
		if _, gone := removals[proc.ID]; gone {
			c.logger.Info("reconcile: removing process",
				"sandbox", sandboxID, "container", desired.TaskID, "exec", proc.ID)
			continue
		}
		kept = append(kept, proc)
	}
	data.Processes = kept
	for _, proc := range additions {
		c.logger.Info("reconcile: appending process",
			"sandbox", sandboxID, "container", desired.TaskID, "exec", proc.ExecID)
		data.Processes = append(data.Processes, sandbox.NewProcessData(proc))
	}

	option := sandbox.ContainerOption{Container: data}
	return sb.UpdateContainer(ctx, desired.TaskID, option)
}
