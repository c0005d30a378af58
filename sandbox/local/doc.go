// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package local is the in-process sandbox backing: sandboxes are
// records managed inside the controller daemon itself, with no
// separate hypervisor or runtime process. The daemon's own pid stands
// in for the sandbox pid, and the task address points at a socket path
// under the sandbox's working directory.
//
// Every mutation is persisted as a CBOR state file in the sandbox's
// working directory, written atomically (temp file plus rename), so a
// restarted daemon can recover its sandbox set from disk.
package local
