// wdxd - WDX device-parameter service daemon
//
// wdxd hosts the three well-known IPC sockets (backend, frontend, file
// API) that mediate between independently executed provider processes and
// independently executed client processes: it loads the device model from
// a directory of YAML fragments, builds the parameter registry, and
// accepts connections on all three sockets until signaled to stop.
//
// Examples:
//
//	wdxd -config /etc/wdx/wdxd.yaml
//	wdxd -config /etc/wdx/wdxd.yaml -verbose
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"

	"github.com/wago-dev/wdx/internal/ipc/fileapi"
	"github.com/wago-dev/wdx/internal/ipc/server"
	"github.com/wago-dev/wdx/internal/model/yamlmodel"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/internal/registry/claimcache"
	"github.com/wago-dev/wdx/pkg/audit"
	"github.com/wago-dev/wdx/pkg/auth"
	"github.com/wago-dev/wdx/pkg/config"
	"github.com/wago-dev/wdx/pkg/util"
	"github.com/wago-dev/wdx/pkg/version"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "service configuration file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	jsonLogs := flag.Bool("json-logs", false, "emit JSON-formatted logs")
	printVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *printVersion {
		fmt.Printf("wdxd %s (%s)\n", version.Version, version.GitCommit)
		return
	}

	if *jsonLogs {
		util.SetJSONFormat()
	}
	if *verbose {
		util.SetLogLevel("debug")
	} else {
		util.SetLogLevel("info")
	}

	if err := run(*configPath); err != nil {
		util.Logger.Errorf("wdxd: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := yamlmodel.Load(cfg.ModelDir)
	if err != nil {
		return fmt.Errorf("loading device model from %s: %w", cfg.ModelDir, err)
	}
	util.WithField("model_dir", cfg.ModelDir).Info("wdxd: device model loaded")

	reg := registry.New(m)
	files := fileapi.NewFileStore()
	srv := server.New(reg, files)

	if cfg.ClaimCacheAddr != "" {
		mirror := claimcache.New(cfg.ClaimCacheAddr)
		if err := mirror.Connect(); err != nil {
			util.WithField("error", err).Warn("wdxd: claim cache unreachable, continuing without it")
		}
		reg.SetClaimCache(mirror)
		defer mirror.Close()
		util.WithField("claim_cache_addr", cfg.ClaimCacheAddr).Info("wdxd: claim cache mirroring enabled")
	}

	if cfg.AuditLogPath != "" {
		logger, err := audit.NewFileLogger(cfg.AuditLogPath, audit.RotationConfig{
			MaxSize:    cfg.AuditMaxSizeOrDefault(),
			MaxBackups: cfg.AuditMaxBackupsOrDefault(),
		})
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		srv.SetAuditLogger(logger, uidToUsername)
		util.WithField("audit_log_path", cfg.AuditLogPath).Info("wdxd: audit logging enabled")
	}

	if cfg.PolicyPath != "" {
		policy, err := auth.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			return fmt.Errorf("loading auth policy: %w", err)
		}
		srv.SetAuthorizer(auth.NewWrapper(auth.NewChecker(policy)))
		util.WithField("policy_path", cfg.PolicyPath).Info("wdxd: authorization policy loaded")
	}

	backendCfg, err := cfg.BackendListenerConfig()
	if err != nil {
		return fmt.Errorf("backend socket config: %w", err)
	}
	frontendCfg, err := cfg.FrontendListenerConfig()
	if err != nil {
		return fmt.Errorf("frontend socket config: %w", err)
	}
	fileAPICfg, err := cfg.FileAPIListenerConfig()
	if err != nil {
		return fmt.Errorf("file-api socket config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	util.WithFields(map[string]interface{}{
		"backend":  backendCfg.Path,
		"frontend": frontendCfg.Path,
		"file_api": fileAPICfg.Path,
	}).Info("wdxd: listening")

	return srv.Serve(ctx, server.Config{
		BackendSocket:  backendCfg,
		FrontendSocket: frontendCfg,
		FileAPISocket:  fileAPICfg,
	})
}

// uidToUsername resolves a caller's uid to a username for the audit log. It
// is best-effort: an unresolvable uid is logged with an empty username
// rather than failing the call it's attached to.
func uidToUsername(uid uint32) string {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return ""
	}
	return u.Username
}
