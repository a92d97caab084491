// Package config loads wdxd's service configuration: socket directory,
// ownership, file-chunk sizes, and the device model directory, read once at
// startup the way pkg/settings loads per-user CLI preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wago-dev/wdx/internal/ipc/fileapi"
	"github.com/wago-dev/wdx/internal/ipc/transport"
)

// DefaultConfigPath is where wdxd looks for its config file when none is
// given on the command line.
const DefaultConfigPath = "/etc/wdx/wdxd.yaml"

// DefaultSocketDir is the fixed directory spec.md's socket layout
// describes, used when the config file doesn't override it.
const DefaultSocketDir = "/run/wdx"

// SocketNames are the three well-known socket filenames within SocketDir.
const (
	BackendSocketName  = "backend.sock"
	FrontendSocketName = "frontend.sock"
	FileAPISocketName  = "fileapi.sock"
)

// SocketOwnership names the OS user/group and permission bits applied to
// each listening socket. A negative UID/GID leaves ownership unchanged, the
// same convention transport.ListenerConfig itself uses.
type SocketOwnership struct {
	UID  int    `yaml:"uid"`
	GID  int    `yaml:"gid"`
	Mode string `yaml:"mode"` // octal, e.g. "0660"
}

// Config is wdxd's service configuration.
type Config struct {
	// SocketDir holds the three well-known sockets.
	SocketDir string `yaml:"socket_dir"`

	// Backend, Frontend, and FileAPI override per-socket ownership; any
	// left unset falls back to Default.
	Default  SocketOwnership  `yaml:"default_ownership"`
	Backend  *SocketOwnership `yaml:"backend_ownership,omitempty"`
	Frontend *SocketOwnership `yaml:"frontend_ownership,omitempty"`
	FileAPI  *SocketOwnership `yaml:"fileapi_ownership,omitempty"`

	// ModelDir is the directory device-description and device-model YAML
	// fragments are loaded from at startup.
	ModelDir string `yaml:"model_dir"`

	// ReadChunkSize and WriteChunkSize override the file API's transfer
	// chunk sizes; zero keeps fileapi's compiled-in defaults.
	ReadChunkSize  int `yaml:"read_chunk_size,omitempty"`
	WriteChunkSize int `yaml:"write_chunk_size,omitempty"`

	// ClaimCacheAddr is the optional Redis address backing
	// internal/registry/claimcache's cross-process claim mirror. Empty
	// disables the mirror entirely — the registry never requires it to
	// function.
	ClaimCacheAddr string `yaml:"claim_cache_addr,omitempty"`

	// AuditLogPath, when non-empty, enables pkg/audit logging of every
	// by-path parameter write/invoke a client makes, to this JSON-lines file.
	AuditLogPath    string `yaml:"audit_log_path,omitempty"`
	AuditMaxSizeMB  int    `yaml:"audit_max_size_mb,omitempty"`
	AuditMaxBackups int    `yaml:"audit_max_backups,omitempty"`

	// PolicyPath, when non-empty, points at a pkg/auth.PolicySpec YAML file
	// enforcing per-user read/write/invoke permissions on frontend calls.
	// Empty leaves every frontend connection unauthorized-checked
	// (authz.AllowAll).
	PolicyPath string `yaml:"policy_path,omitempty"`
}

// Default returns the configuration wdxd runs with when no config file is
// present.
func Default() *Config {
	return &Config{
		SocketDir: DefaultSocketDir,
		Default:   SocketOwnership{UID: -1, GID: -1, Mode: "0660"},
		ModelDir:  "/etc/wdx/models",
	}
}

// Load reads Config from path, falling back to Default() if path doesn't
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// BackendSocketPath, FrontendSocketPath, and FileAPISocketPath return the
// full path to each well-known socket under SocketDir.
func (c *Config) BackendSocketPath() string  { return filepath.Join(c.SocketDir, BackendSocketName) }
func (c *Config) FrontendSocketPath() string { return filepath.Join(c.SocketDir, FrontendSocketName) }
func (c *Config) FileAPISocketPath() string  { return filepath.Join(c.SocketDir, FileAPISocketName) }

// ownership resolves override, falling back to c.Default, and parses Mode
// as octal.
func (c *Config) ownership(override *SocketOwnership) (uid, gid int, mode os.FileMode, err error) {
	o := c.Default
	if override != nil {
		o = *override
	}
	if o.Mode == "" {
		mode = 0660
	} else {
		var parsed uint64
		if _, err := fmt.Sscanf(o.Mode, "%o", &parsed); err != nil {
			return 0, 0, 0, fmt.Errorf("config: invalid socket mode %q: %w", o.Mode, err)
		}
		mode = os.FileMode(parsed)
	}
	return o.UID, o.GID, mode, nil
}

// ReadChunkOrDefault and WriteChunkOrDefault return the configured chunk
// size, or fileapi's compiled-in default when unset.
func (c *Config) ReadChunkOrDefault() int {
	if c.ReadChunkSize > 0 {
		return c.ReadChunkSize
	}
	return fileapi.ReadChunkSize
}

func (c *Config) WriteChunkOrDefault() int {
	if c.WriteChunkSize > 0 {
		return c.WriteChunkSize
	}
	return fileapi.WriteChunkSize
}

// DefaultAuditMaxSizeMB and DefaultAuditMaxBackups bound the audit log's
// rotation when the config file leaves them unset.
const (
	DefaultAuditMaxSizeMB  = 10
	DefaultAuditMaxBackups = 10
)

// AuditMaxSizeOrDefault and AuditMaxBackupsOrDefault return the configured
// rotation bounds, or their defaults when unset.
func (c *Config) AuditMaxSizeOrDefault() int64 {
	if c.AuditMaxSizeMB > 0 {
		return int64(c.AuditMaxSizeMB) * 1024 * 1024
	}
	return DefaultAuditMaxSizeMB * 1024 * 1024
}

func (c *Config) AuditMaxBackupsOrDefault() int {
	if c.AuditMaxBackups > 0 {
		return c.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// BackendListenerConfig, FrontendListenerConfig, and FileAPIListenerConfig
// build the transport.ListenerConfig for each socket from c's resolved
// path and ownership.
func (c *Config) BackendListenerConfig() (transport.ListenerConfig, error) {
	uid, gid, mode, err := c.ownership(c.Backend)
	if err != nil {
		return transport.ListenerConfig{}, err
	}
	return transport.ListenerConfig{Path: c.BackendSocketPath(), UID: uid, GID: gid, Mode: mode}, nil
}

func (c *Config) FrontendListenerConfig() (transport.ListenerConfig, error) {
	uid, gid, mode, err := c.ownership(c.Frontend)
	if err != nil {
		return transport.ListenerConfig{}, err
	}
	return transport.ListenerConfig{Path: c.FrontendSocketPath(), UID: uid, GID: gid, Mode: mode}, nil
}

func (c *Config) FileAPIListenerConfig() (transport.ListenerConfig, error) {
	uid, gid, mode, err := c.ownership(c.FileAPI)
	if err != nil {
		return transport.ListenerConfig{}, err
	}
	return transport.ListenerConfig{Path: c.FileAPISocketPath(), UID: uid, GID: gid, Mode: mode}, nil
}
