// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox defines the core types and capability interfaces of
// the Warren control plane: sandbox status and records, the Sandboxer
// and Sandbox interfaces a backing implementation provides, the
// registry of lockable sandbox handles, and the level-triggered
// ExitSignal used to observe sandbox termination.
//
// The package deliberately knows nothing about how a sandbox is
// isolated. VM-backed, namespace-backed, and in-process backings all
// implement the same Sandboxer capability set; the controller is
// written against these interfaces and never assumes a concrete
// variant.
//
// # Locking contract
//
// Sandboxer.Sandbox returns a shared *Handle. Callers must hold the
// handle's lock for the duration of any mutating Sandbox operation;
// at most one mutator runs per sandbox id at a time. Lookups of
// different ids and concurrent reads are unrestricted. Implementations
// must never hold the registry's own lock across a potentially slow
// per-sandbox operation: look up, take the handle pointer, release the
// registry lock, then lock the handle.
package sandbox
