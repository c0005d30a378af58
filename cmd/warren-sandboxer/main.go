// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// warren-sandboxer is the sandbox controller daemon. It serves the
// sandbox lifecycle protocol on a Unix socket, backed by the
// in-process sandboxer, and recovers previously persisted sandboxes
// on startup.
//
// Usage:
//
//	warren-sandboxer [--config /etc/warren/warren.yaml]
//	                 [--dir /var/lib/warren]
//	                 [--listen /run/warren/warren.sock]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/warren-runtime/warren/controller"
	"github.com/warren-runtime/warren/lib/clock"
	"github.com/warren-runtime/warren/lib/config"
	"github.com/warren-runtime/warren/lib/process"
	"github.com/warren-runtime/warren/monitor"
	"github.com/warren-runtime/warren/sandbox/local"
	"github.com/warren-runtime/warren/service"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	dir := flag.String("dir", "", "sandbox state directory (overrides config)")
	listen := flag.String("listen", "", "controller socket path (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dir != "" {
		cfg.Dir = *dir
	}
	if *listen != "" {
		cfg.Socket = *listen
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Dir, 0o711); err != nil {
		return fmt.Errorf("creating state directory %s: %w", cfg.Dir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Socket), 0o711); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}

	clk := clock.Real()
	mon := monitor.New(logger.With("component", "monitor"))
	sandboxer := local.NewSandboxer(mon, clk, logger.With("component", "sandboxer"))

	if err := sandboxer.Recover(ctx, cfg.Dir); err != nil {
		return fmt.Errorf("recovering sandboxes from %s: %w", cfg.Dir, err)
	}
	logger.Info("sandbox state recovered", "dir", cfg.Dir, "sandboxes", sandboxer.Len())

	platform := controller.Platform{
		OS:           cfg.Platform.OS,
		Architecture: cfg.Platform.Architecture,
		Variant:      cfg.Platform.Variant,
	}
	ctrl := controller.New(cfg.Dir, sandboxer, platform, clk, logger.With("component", "controller"))

	server := service.NewSocketServer(cfg.Socket, logger.With("component", "service"))
	ctrl.Register(server)

	logger.Info("warren-sandboxer starting",
		"socket", cfg.Socket,
		"dir", cfg.Dir,
		"platform", fmt.Sprintf("%s/%s", platform.OS, platform.Architecture),
		"go", runtime.Version(),
	)
	return server.Serve(ctx)
}
