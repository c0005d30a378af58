// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Warren's canonical CBOR encoding.
//
// All wire messages on the controller socket and all persisted sandbox
// state files go through this package. Encoding is deterministic (RFC
// 8949 Core Deterministic Encoding) so the same logical record always
// produces identical bytes, which keeps state-file rewrites and test
// fixtures stable. Decoding ignores unknown fields for forward
// compatibility with schema growth.
package codec
