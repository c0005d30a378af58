// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/warren-runtime/warren/errdefs"
	"github.com/warren-runtime/warren/lib/codec"
	"github.com/warren-runtime/warren/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs a SocketServer in the background and waits for the
// socket file to appear. Shutdown happens via t.Cleanup.
func startServer(t *testing.T, server *SocketServer, socketPath string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, served, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve returned: %v", err)
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		// Require an actual socket: a pre-existing stale regular file
		// at the path must not satisfy the readiness check.
		if info, err := os.Stat(socketPath); err == nil && info.Mode()&os.ModeSocket != 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("socket file never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type echoRequest struct {
	Message string `cbor:"message"`
}

type echoResponse struct {
	Message string `cbor:"message"`
}

func TestCallSuccess(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var req echoRequest
		if err := codec.Unmarshal(raw, &req); err != nil {
			return nil, errdefs.InvalidArgument("decoding echo request: %v", err)
		}
		return echoResponse{Message: req.Message}, nil
	})
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	var resp echoResponse
	err := client.Call(context.Background(), "echo", echoRequest{Message: "hello"}, &resp)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("message = %q, want hello", resp.Message)
	}
}

func TestCallNilRequestAndResult(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	called := make(chan struct{}, 1)
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) {
		called <- struct{}{}
		return nil, nil
	})
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	if err := client.Call(context.Background(), "ping", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	testutil.RequireReceive(t, called, 5*time.Second, "handler invoked")
}

func TestCallErrorCarriesCode(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("lookup", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errdefs.NotFound("sandbox %s", "ghost")
	})
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(context.Background(), "lookup", nil, nil)
	if !errdefs.IsNotFound(err) {
		t.Fatalf("Call = %v, want not-found across the socket", err)
	}
}

func TestUnknownAction(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(context.Background(), "no-such-action", nil, nil)
	if !errdefs.IsNotFound(err) {
		t.Fatalf("Call(unknown action) = %v, want not-found", err)
	}
}

func TestMissingAction(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server, socketPath)

	// Raw connection sending a request without an action field.
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := codec.NewEncoder(conn).Encode(map[string]any{"x": 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var resp Response
	if err := codec.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OK || resp.Code != errdefs.CodeInvalidArgument {
		t.Errorf("response = %+v, want invalid_argument failure", resp)
	}
}

func TestBlockingHandlerBoundedByCallerContext(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "svc.sock")
	server := NewSocketServer(socketPath, testLogger())
	release := make(chan struct{})
	server.Handle("wait", func(ctx context.Context, raw []byte) (any, error) {
		<-release
		return nil, nil
	})
	startServer(t, server, socketPath)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := NewClient(socketPath)
	err := client.Call(ctx, "wait", nil, nil)
	if err == nil {
		t.Fatal("Call returned nil, want deadline error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Call = %v, want deadline exceeded", err)
	}
}

func TestStaleSocketRemoved(t *testing.T) {
	dir := testutil.SocketDir(t)
	socketPath := filepath.Join(dir, "svc.sock")
	if err := os.WriteFile(socketPath, []byte("stale"), 0o600); err != nil {
		t.Fatalf("writing stale file: %v", err)
	}

	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(context.Background(), "anything", nil, nil)
	// The server is up (unknown action), proving the stale file was
	// replaced by a live socket.
	if !errdefs.IsNotFound(err) {
		t.Fatalf("Call = %v, want not-found from live server", err)
	}
}
