// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package controller implements the sandbox lifecycle service: the
// request handlers behind the create, start, platform, prepare, purge,
// update, stop, wait, status, shutdown, and metrics actions on the
// controller socket.
//
// The controller itself holds almost no state — a working-directory
// root, a clock, and the Sandboxer backing. All mutable sandbox state
// lives behind the Sandboxer; the controller's job is orchestration:
// per-sandbox locking, rollback on partial failure, reconciliation of
// desired task lists, and translation of internal errors to wire
// codes.
package controller
