// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"context"

	"github.com/warren-runtime/warren/errdefs"
	"github.com/warren-runtime/warren/lib/codec"
	"github.com/warren-runtime/warren/service"
)

// Register wires every controller operation onto the socket server
// under the "sandbox." action namespace.
func (c *Controller) Register(server *service.SocketServer) {
	server.Handle("sandbox.create", action(c.Create))
	server.Handle("sandbox.start", action(c.Start))
	server.Handle("sandbox.platform", action(c.Platform))
	server.Handle("sandbox.prepare", action(c.Prepare))
	server.Handle("sandbox.purge", action(c.Purge))
	server.Handle("sandbox.update", action(c.Update))
	server.Handle("sandbox.stop", action(c.Stop))
	server.Handle("sandbox.wait", action(c.Wait))
	server.Handle("sandbox.status", action(c.Status))
	server.Handle("sandbox.shutdown", action(c.Shutdown))
	server.Handle("sandbox.metrics", action(c.Metrics))
}

// action adapts a typed handler to the socket server's raw-CBOR
// handler shape. A request that does not decode is the caller's fault.
func action[Req any, Resp any](fn func(context.Context, *Req) (*Resp, error)) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var req Req
		if len(raw) > 0 {
			if err := codec.Unmarshal(raw, &req); err != nil {
				return nil, errdefs.InvalidArgument("decoding request: %v", err)
			}
		}
		return fn(ctx, &req)
	}
}
