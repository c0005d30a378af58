// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != "/var/lib/warren" {
		t.Errorf("dir = %q, want /var/lib/warren", cfg.Dir)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warren.yaml")
	content := `
dir: /srv/warren
log_level: debug
platform:
  variant: v8
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != "/srv/warren" {
		t.Errorf("dir = %q, want /srv/warren", cfg.Dir)
	}
	// Unset fields keep their defaults.
	if cfg.Socket != "/run/warren/warren.sock" {
		t.Errorf("socket = %q, want default", cfg.Socket)
	}
	if cfg.Platform.OS != runtime.GOOS || cfg.Platform.Architecture != runtime.GOARCH {
		t.Errorf("platform = %+v, want build identity", cfg.Platform)
	}
	if cfg.Platform.Variant != "v8" {
		t.Errorf("variant = %q, want v8", cfg.Platform.Variant)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("level = %v (%v), want debug", level, err)
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warren.yaml")
	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an unknown log level")
	}
}

func TestLoadRejectsEmptyDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warren.yaml")
	if err := os.WriteFile(path, []byte("dir: \"\"\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an empty dir")
	}
}
