package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.SocketDir != DefaultSocketDir {
		t.Errorf("SocketDir = %q, want %q", c.SocketDir, DefaultSocketDir)
	}
	if got := c.BackendSocketPath(); got != filepath.Join(DefaultSocketDir, BackendSocketName) {
		t.Errorf("BackendSocketPath() = %q", got)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SocketDir != DefaultSocketDir {
		t.Errorf("SocketDir = %q, want default %q", c.SocketDir, DefaultSocketDir)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wdxd.yaml")
	body := `
socket_dir: /tmp/wdx-test
default_ownership:
  uid: 100
  gid: 200
  mode: "0640"
model_dir: /tmp/wdx-models
read_chunk_size: 4096
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SocketDir != "/tmp/wdx-test" {
		t.Errorf("SocketDir = %q", c.SocketDir)
	}
	if c.ModelDir != "/tmp/wdx-models" {
		t.Errorf("ModelDir = %q", c.ModelDir)
	}
	if c.ReadChunkOrDefault() != 4096 {
		t.Errorf("ReadChunkOrDefault() = %d, want 4096", c.ReadChunkOrDefault())
	}
	if c.WriteChunkOrDefault() == 0 {
		t.Errorf("WriteChunkOrDefault() should fall back to fileapi's compiled-in default")
	}

	lc, err := c.BackendListenerConfig()
	if err != nil {
		t.Fatalf("BackendListenerConfig: %v", err)
	}
	if lc.UID != 100 || lc.GID != 200 || lc.Mode != 0640 {
		t.Errorf("BackendListenerConfig() = %+v", lc)
	}
	if lc.Path != filepath.Join("/tmp/wdx-test", BackendSocketName) {
		t.Errorf("BackendListenerConfig().Path = %q", lc.Path)
	}
}

func TestOwnershipInvalidModeErrors(t *testing.T) {
	c := Default()
	c.Default.Mode = "not-octal"
	if _, err := c.BackendListenerConfig(); err == nil {
		t.Error("expected error for invalid socket mode")
	}
}
