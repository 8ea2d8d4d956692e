// config_test.go tests configuration loading, defaults, and validation.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}
	if cfg.SocketPath != DefaultSocketPath {
		t.Errorf("socket path = %q, want %q", cfg.SocketPath, DefaultSocketPath)
	}
	if cfg.DefaultShell != DefaultShell {
		t.Errorf("default shell = %q, want %q", cfg.DefaultShell, DefaultShell)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
socket_path: /run/custom/elevated.sock
default_shell: /bin/bash
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SocketPath != "/run/custom/elevated.sock" {
		t.Errorf("socket path = %q", cfg.SocketPath)
	}
	if cfg.DefaultShell != "/bin/bash" {
		t.Errorf("default shell = %q", cfg.DefaultShell)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log_level: error\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SocketPath != DefaultSocketPath {
		t.Errorf("socket path = %q, want default", cfg.SocketPath)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("log level = %q, want error", cfg.LogLevel)
	}
}

func TestLoad_RelativeSocketPathRejected(t *testing.T) {
	path := writeConfig(t, "socket_path: run/elevated.sock\n")
	_, err := Load(path)
	if !errors.Is(err, ErrSocketPathRelative) {
		t.Fatalf("expected ErrSocketPathRelative, got %v", err)
	}
}

func TestLoad_RelativeShellRejected(t *testing.T) {
	path := writeConfig(t, "default_shell: sh\n")
	_, err := Load(path)
	if !errors.Is(err, ErrShellRelative) {
		t.Fatalf("expected ErrShellRelative, got %v", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "socket_path: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
