// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects Real(); tests inject Fake() and advance time explicitly, so
// lifecycle timestamps (createdAt, exitedAt) are deterministic in
// assertions.
package clock
