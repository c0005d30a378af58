// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides small helpers for Warren binary
// entrypoints.
package process
