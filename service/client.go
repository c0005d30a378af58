// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/warren-runtime/warren/errdefs"
	"github.com/warren-runtime/warren/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to the
// controller socket. This covers only the connect phase.
const dialTimeout = 5 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
// Matches the server's maxRequestSize for symmetry.
const maxResponseSize = 1024 * 1024

// Client sends CBOR requests to a Warren controller socket. Each Call
// opens a new connection (matching the server's one-request-per-
// connection model), sends the request, reads the response, and
// closes the connection.
type Client struct {
	socketPath string
}

// NewClient creates a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends one request and decodes the response.
//
// request may be any CBOR-encodable value whose fields the handler
// expects (or nil for actions without parameters); the client injects
// the "action" field. On success, if result is non-nil and the
// response carries data, the data is decoded into result.
//
// A failure response is returned as an error reconstructed from the
// envelope's wire code, so errors.Is against the errdefs sentinels
// works across the socket. Connection and encoding failures are
// returned as plain errors.
//
// The read side has no fixed deadline: long-blocking calls (wait) are
// bounded by ctx. Give ctx a deadline when the call must not block
// indefinitely.
func (c *Client) Call(ctx context.Context, action string, request any, result any) error {
	envelope, err := buildRequest(action, request)
	if err != nil {
		return fmt.Errorf("building request for %q: %w", action, err)
	}

	response, err := c.send(ctx, envelope)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return fmt.Errorf("action %q: %w", action, errdefs.FromCode(response.Code, response.Error))
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}

	return nil
}

// buildRequest flattens the request value into a map and injects the
// "action" routing field. Going through CBOR keeps the field names
// exactly as the struct tags define them.
func buildRequest(action string, request any) (map[string]any, error) {
	fields := make(map[string]any)
	if request != nil {
		encoded, err := codec.Marshal(request)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		if err := codec.Unmarshal(encoded, &fields); err != nil {
			return nil, fmt.Errorf("request must encode as a CBOR map: %w", err)
		}
	}
	fields["action"] = action
	return fields, nil
}

// send connects to the socket, writes the request, and reads the
// response. Each call creates a new connection.
func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	// Abandon the connection when ctx ends. This is what bounds a
	// blocking wait call: closing the connection fails the pending
	// read below.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side. CBOR is self-delimiting so this is
	// not strictly necessary, but it lets the server's read side see
	// EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &response, nil
}
