// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor provides the process-wide exit-event pub/sub used to
// learn when a managed process terminates. An OS-level reaper (or a
// backing implementation acting as one) calls NotifyByPid or
// NotifyByExec; components interested in a particular process — or in
// everything — subscribe to a topic and receive ExitEvents on a
// channel.
//
// The monitor is independent of any one sandbox. Construct a single
// Monitor at process startup and pass it by reference to every
// component that needs it.
package monitor
