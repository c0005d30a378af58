// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the CBOR request-response protocol the
// controller is served over: a Unix-socket server with action routing
// and a matching client.
//
// Each connection carries exactly one request-response cycle. The
// request is a single CBOR map whose "action" field selects the
// handler; the response is an envelope {ok, code, error, data}. The
// transport imposes no semantics of its own — classification of
// failures into wire codes comes from the errdefs taxonomy.
package service
