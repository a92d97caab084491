// Package server hosts the three well-known wdxd sockets: backend (for
// provider processes), frontend (for client processes), and file API (for
// bulk file transfers). It owns the accept loops; everything past "new
// connection accepted" is the same driver/objectstore/stub machinery the
// proxy side drives, just running stub-side instead of proxy-side.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/wago-dev/wdx/internal/authz"
	"github.com/wago-dev/wdx/internal/ipc/backend"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/fileapi"
	"github.com/wago-dev/wdx/internal/ipc/frontend"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/pkg/audit"
	"github.com/wago-dev/wdx/pkg/util"
)

// pollInterval bounds how long a connection's driver.Run blocks between
// checking for Stop, matching the cadence internal/ipc/reconnect's own
// manager polls at.
const pollInterval = 500 * time.Millisecond

// uploadReapInterval is how often Serve sweeps the registry's pending
// upload reservations for expired, never-consumed ones.
const uploadReapInterval = 30 * time.Second

// Config names the three socket paths and the ownership/permissions to
// apply to each, mirroring spec.md's "configurable per-instance
// owner/group" socket layout.
type Config struct {
	BackendSocket  transport.ListenerConfig
	FrontendSocket transport.ListenerConfig
	FileAPISocket  transport.ListenerConfig
}

// Server accepts connections on wdxd's three sockets and wires each one to
// the shared registry and file store.
type Server struct {
	reg    *registry.Registry
	files  *fileapi.FileStore
	authz  authz.Wrapper
	audit  audit.Logger
	lookup func(uint32) string

	mu        sync.Mutex
	listeners []*transport.Listener
	wg        sync.WaitGroup
}

// New returns a Server dispatching backend registrations and frontend/file
// calls against reg and files. Authorization defaults to authz.AllowAll;
// call SetAuthorizer to install a real policy before Serve.
func New(reg *registry.Registry, files *fileapi.FileStore) *Server {
	return &Server{reg: reg, files: files, authz: authz.AllowAll{}}
}

// SetAuthorizer installs w as the policy every accepted connection's stub
// checks calls against.
func (s *Server) SetAuthorizer(w authz.Wrapper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authz = w
}

// SetAuditLogger installs logger to record a parameter.write/invoke Event
// for every by-path write and invoke any accepted frontend connection
// answers (see frontend.Stub.SetAuditLogger), resolving the calling uid to
// a username via lookup.
func (s *Server) SetAuditLogger(logger audit.Logger, lookup func(uint32) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = logger
	s.lookup = lookup
}

func (s *Server) currentAuditor() (audit.Logger, func(uint32) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit, s.lookup
}

// Serve opens the three listeners described by cfg and accepts on all of
// them until ctx is cancelled, at which point every listener is closed and
// Serve waits for in-flight connections to drain before returning.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	backendLn, err := transport.Listen(cfg.BackendSocket)
	if err != nil {
		return err
	}
	frontendLn, err := transport.Listen(cfg.FrontendSocket)
	if err != nil {
		backendLn.Close()
		return err
	}
	fileLn, err := transport.Listen(cfg.FileAPISocket)
	if err != nil {
		backendLn.Close()
		frontendLn.Close()
		return err
	}

	s.mu.Lock()
	s.listeners = []*transport.Listener{backendLn, frontendLn, fileLn}
	s.mu.Unlock()

	s.wg.Add(4)
	go s.acceptLoop(backendLn, s.serveBackend)
	go s.acceptLoop(frontendLn, s.serveFrontend)
	go s.acceptLoop(fileLn, s.serveFileAPI)
	go s.reapUploadsLoop(ctx)

	<-ctx.Done()

	s.mu.Lock()
	for _, ln := range s.listeners {
		ln.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// reapUploadsLoop periodically reclaims expired, never-consumed upload
// reservations for the lifetime of ctx.
func (s *Server) reapUploadsLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(uploadReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.reg.ReapExpiredUploads(now)
		}
	}
}

func (s *Server) acceptLoop(ln *transport.Listener, serve func(*transport.Conn)) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			serve(conn)
		}()
	}
}

func (s *Server) currentAuthorizer() authz.Wrapper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authz
}

func (s *Server) serveBackend(conn *transport.Conn) {
	defer conn.Close()
	log := util.WithConnection(conn.Credentials.UID)

	store := objectstore.New()
	d := driver.New(conn, store)
	stub := backend.NewStub(s.reg, d)
	stub.SetCredentials(conn.Credentials)
	stub.SetAuthorizer(s.currentAuthorizer())
	store.Register(objectstore.Backend, stub)

	log.Info("ipc: backend connection accepted")
	if err := d.Run(pollInterval); err != nil {
		log.WithField("error", err).Debug("ipc: backend connection closed")
	}
	stub.Close()
}

func (s *Server) serveFrontend(conn *transport.Conn) {
	defer conn.Close()
	log := util.WithConnection(conn.Credentials.UID)

	store := objectstore.New()
	d := driver.New(conn, store)
	stub := frontend.NewStub(s.reg, conn.Credentials)
	stub.SetAuthorizer(s.currentAuthorizer())
	if logger, lookup := s.currentAuditor(); logger != nil {
		stub.SetAuditLogger(logger, lookup)
	}
	store.Register(objectstore.Frontend, stub)

	log.Info("ipc: frontend connection accepted")
	if err := d.Run(pollInterval); err != nil {
		log.WithField("error", err).Debug("ipc: frontend connection closed")
	}
}

func (s *Server) serveFileAPI(conn *transport.Conn) {
	defer conn.Close()
	log := util.WithConnection(conn.Credentials.UID)

	store := objectstore.New()
	d := driver.New(conn, store)
	stub := fileapi.NewStub(s.files)
	store.Register(objectstore.FileAPI, stub)

	log.Info("ipc: file-api connection accepted")
	if err := d.Run(pollInterval); err != nil {
		log.WithField("error", err).Debug("ipc: file-api connection closed")
	}
}
