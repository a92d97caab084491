package reconnect

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestManagerConnectsOnceServerAppears(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "wdx-reconnect.sock")

	m := New(sockPath, objectstore.New(), nil)
	m.SetIntervals(30*time.Millisecond, 50*time.Millisecond)
	m.Start()
	defer m.Stop()

	// No listener yet: manager should stay disconnected, not panic or spin
	// into Connected.
	if _, ok := m.Driver(); ok {
		t.Fatal("expected not connected before the server socket exists")
	}

	ln, err := transport.Listen(transport.ListenerConfig{Path: sockPath, UID: -1, GID: -1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go driver.New(c, objectstore.New()).Run(50 * time.Millisecond)
		}
	}()

	waitFor(t, 2*time.Second, func() bool {
		_, ok := m.Driver()
		return ok
	})
}

func TestManagerInvokesNotifierImmediatelyWhenAlreadyConnected(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "wdx-reconnect2.sock")
	ln, err := transport.Listen(transport.ListenerConfig{Path: sockPath, UID: -1, GID: -1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go driver.New(c, objectstore.New()).Run(50 * time.Millisecond)
		}
	}()

	m := New(sockPath, objectstore.New(), nil)
	m.SetIntervals(30*time.Millisecond, 50*time.Millisecond)
	m.Start()
	defer m.Stop()
	waitFor(t, 2*time.Second, func() bool {
		_, ok := m.Driver()
		return ok
	})

	var calledImmediately atomic.Bool
	m.AddNotifier(func(d *driver.Driver) {
		calledImmediately.Store(true)
	})
	if !calledImmediately.Load() {
		t.Error("expected notifier to run immediately when already connected")
	}
}

func TestManagerReplaysStateOnEachConnect(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "wdx-reconnect3.sock")
	ln, err := transport.Listen(transport.ListenerConfig{Path: sockPath, UID: -1, GID: -1})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go driver.New(c, objectstore.New()).Run(50 * time.Millisecond)
		}
	}()

	var replays atomic.Int32
	replay := func(ctx context.Context, d *driver.Driver) error {
		replays.Add(1)
		return nil
	}
	m := New(sockPath, objectstore.New(), replay)
	m.SetIntervals(30*time.Millisecond, 50*time.Millisecond)
	m.Start()
	defer m.Stop()

	waitFor(t, 2*time.Second, func() bool { return replays.Load() >= 1 })
}
