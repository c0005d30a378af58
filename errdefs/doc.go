// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package errdefs defines the error taxonomy shared by the sandbox
// controller, the Sandboxer backings, and the socket protocol.
//
// Every error that crosses the controller boundary is classified into
// exactly one of the sentinel classes here, and each class maps
// deterministically to a wire code in the socket response envelope.
// Filesystem failures and uncategorized backing-implementation errors
// both map to CodeInternal: callers cannot act on the distinction, so
// the wire does not expose it.
//
// Classify with errors.Is against the sentinels, or the Is* helpers:
//
//	if errdefs.IsNotFound(err) {
//		// tolerated on stop/delete/shutdown paths
//	}
package errdefs
