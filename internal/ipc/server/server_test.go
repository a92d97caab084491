package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/ipc/backend"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/fileapi"
	"github.com/wago-dev/wdx/internal/ipc/frontend"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/internal/value"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New()
	feat := model.NewFeatureDefinition("power", "powerClass")
	cls := model.NewClassDefinition("powerClass", "power")
	cls.Parameters = []*model.ParameterDefinition{
		{ID: 10, Path: "power/voltage", Type: value.Uint16, Rank: value.Scalar, Writeable: true},
	}
	feat.Classes = []string{"powerClass"}
	m.AddFeature(feat)
	m.AddClass(cls)
	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	return m
}

// dialClient connects to path and wraps the connection in a running driver,
// the way a proxy-side process would.
func dialClient(t *testing.T, path string) *driver.Driver {
	t.Helper()
	conn, err := transport.Dial(path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	d := driver.New(conn, objectstore.New())
	go d.Run(50 * time.Millisecond)
	t.Cleanup(func() { d.Stop() })
	return d
}

func startServer(t *testing.T, reg *registry.Registry, files *fileapi.FileStore) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		BackendSocket:  transport.ListenerConfig{Path: filepath.Join(dir, "backend.sock"), UID: -1, GID: -1},
		FrontendSocket: transport.ListenerConfig{Path: filepath.Join(dir, "frontend.sock"), UID: -1, GID: -1},
		FileAPISocket:  transport.ListenerConfig{Path: filepath.Join(dir, "fileapi.sock"), UID: -1, GID: -1},
	}
	srv := New(reg, files)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, cfg)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the accept loops a moment to start listening.
	time.Sleep(20 * time.Millisecond)
	return cfg
}

func TestServerRoutesBackendFrontendAndFileAPI(t *testing.T) {
	reg := registry.New(testModel(t))
	files := fileapi.NewFileStore()
	cfg := startServer(t, reg, files)

	backendDriver := dialClient(t, cfg.BackendSocket.Path)
	backendProxy := backend.NewProxy(backendDriver)
	if _, err := backendProxy.RegisterDevices([]addressing.DeviceID{addressing.Headstation}); err != nil {
		t.Fatalf("RegisterDevices: %v", err)
	}

	frontendDriver := dialClient(t, cfg.FrontendSocket.Path)
	frontendProxy := frontend.NewProxy(frontendDriver)
	devices, err := frontendProxy.GetAllDevices()
	if err != nil {
		t.Fatalf("GetAllDevices: %v", err)
	}
	found := false
	for _, d := range devices {
		if d == addressing.Headstation {
			found = true
		}
	}
	if !found {
		t.Errorf("expected headstation registered via backend socket to be visible via frontend socket, got %v", devices)
	}

	fileDriver := dialClient(t, cfg.FileAPISocket.Path)
	fileProxy := fileapi.NewProxy(fileDriver)
	if code, err := fileProxy.Create("upload-1", 64); err != nil || code != 0 {
		t.Fatalf("Create: code=%v err=%v", code, err)
	}
	if code, err := fileProxy.Write("upload-1", 0, []byte("hello")); err != nil || code != 0 {
		t.Fatalf("Write: code=%v err=%v", code, err)
	}
	data, code, err := fileProxy.Read("upload-1", 0, 5)
	if err != nil || code != 0 {
		t.Fatalf("Read: code=%v err=%v", code, err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
}

func TestServerReapsBackendRegistrationsOnDisconnect(t *testing.T) {
	reg := registry.New(testModel(t))
	files := fileapi.NewFileStore()
	cfg := startServer(t, reg, files)

	func() {
		conn, err := transport.Dial(cfg.BackendSocket.Path)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		d := driver.New(conn, objectstore.New())
		go d.Run(50 * time.Millisecond)
		defer d.Stop()
		proxy := backend.NewProxy(d)
		if _, err := proxy.RegisterDevices([]addressing.DeviceID{addressing.Headstation}); err != nil {
			t.Fatalf("RegisterDevices: %v", err)
		}
		conn.Close()
	}()

	// Give the server's accept goroutine time to notice the closed
	// connection and reap its registrations.
	time.Sleep(100 * time.Millisecond)

	frontendDriver := dialClient(t, cfg.FrontendSocket.Path)
	proxy := frontend.NewProxy(frontendDriver)
	devices, err := proxy.GetAllDevices()
	if err != nil {
		t.Fatalf("GetAllDevices: %v", err)
	}
	for _, d := range devices {
		if d == addressing.Headstation {
			t.Errorf("expected headstation to be reaped after backend disconnect, still present: %v", devices)
		}
	}
}
