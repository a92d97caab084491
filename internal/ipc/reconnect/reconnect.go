// Package reconnect is the client-side connection manager: it dials a
// server socket, runs a driver.Driver over the connection, and redials with
// backoff whenever the connection drops, driven both by an fsnotify watch on
// the socket's parent directory (so a server restart is noticed promptly)
// and by a periodic retry fallback (so a watch that misses an event, or a
// directory that doesn't exist yet, never wedges the client forever).
package reconnect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/pkg/util"
)

// State is the connection manager's current lifecycle state.
type State uint8

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ReplayFunc re-establishes proxy-side state a driver needs replayed after a
// reconnect — the backend proxy uses this to re-register every device and
// provider it had claimed before the connection dropped. A nil ReplayFunc
// (used by the frontend and file-API proxies, which hold no server-side
// registration state) means "resume immediately, nothing to replay."
type ReplayFunc func(ctx context.Context, d *driver.Driver) error

const (
	defaultRetryInterval = 2 * time.Second
	defaultPollInterval  = 500 * time.Millisecond
)

// Manager owns one client socket's dial-run-redial lifecycle.
type Manager struct {
	path          string
	store         *objectstore.Store
	replay        ReplayFunc
	retryInterval time.Duration
	pollInterval  time.Duration

	mu        sync.Mutex
	state     State
	driver    *driver.Driver
	notifiers map[int]func(*driver.Driver)
	nextID    int

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New returns a Manager that will dial path once Start is called. store is
// the object table the driver dispatches incoming requests against (empty
// for a pure proxy connection with nothing to serve). replay may be nil.
func New(path string, store *objectstore.Store, replay ReplayFunc) *Manager {
	return &Manager{
		path:          path,
		store:         store,
		replay:        replay,
		retryInterval: defaultRetryInterval,
		pollInterval:  defaultPollInterval,
		notifiers:     make(map[int]func(*driver.Driver)),
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the connect/run/redial loop in the background. It returns
// immediately; callers observe connection state via AddNotifier or Driver.
func (m *Manager) Start() {
	go m.loop()
}

// SetIntervals overrides the default retry backoff and driver poll
// intervals. Must be called before Start; exists so tests don't wait on
// the production defaults.
func (m *Manager) SetIntervals(retry, poll time.Duration) {
	m.retryInterval = retry
	m.pollInterval = poll
}

// Stop tears down the current connection, if any, and ends the loop.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done
}

// Driver returns the live driver and true if currently connected.
func (m *Manager) Driver() (*driver.Driver, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected {
		return nil, false
	}
	return m.driver, true
}

// State reports the manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AddNotifier registers f to run on every future (re)connect. If the
// manager is already connected, f also runs immediately, inline, with the
// current driver before AddNotifier returns — matching spec.md's "invoke
// immediately if already connected, else on next connect" contract. The
// returned handle is passed to RemoveNotifier to unregister f later.
func (m *Manager) AddNotifier(f func(*driver.Driver)) int {
	m.mu.Lock()
	handle := m.nextID
	m.nextID++
	m.notifiers[handle] = f
	connected := m.state == Connected
	d := m.driver
	m.mu.Unlock()
	if connected {
		f(d)
	}
	return handle
}

// RemoveNotifier unregisters the notifier handle returned by AddNotifier.
func (m *Manager) RemoveNotifier(handle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notifiers, handle)
}

func (m *Manager) loop() {
	defer close(m.done)
	watcher, watchErr := fsnotify.NewWatcher()
	if watchErr == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(m.path)); err != nil {
			util.WithField("socket", m.path).Warnf("reconnect: watching socket directory: %v", err)
		}
	} else {
		util.WithField("socket", m.path).Warnf("reconnect: starting fsnotify watcher: %v", watchErr)
	}

	for {
		select {
		case <-m.stopCh:
			m.disconnect()
			return
		default:
		}

		conn, err := transport.Dial(m.path)
		if err != nil {
			m.setState(Disconnected)
			if !m.waitForRetry(watcher) {
				return
			}
			continue
		}

		m.setState(Connecting)
		d := driver.New(conn, m.store)
		runDone := make(chan error, 1)
		go func() { runDone <- d.Run(m.pollInterval) }()
		if m.replay != nil {
			if err := m.replay(context.Background(), d); err != nil {
				util.WithField("socket", m.path).Warnf("reconnect: replaying proxy state: %v", err)
				d.Stop()
				<-runDone
				conn.Close()
				if !m.waitForRetry(watcher) {
					return
				}
				continue
			}
		}
		m.setConnected(d)

		var runErr error
		select {
		case runErr = <-runDone:
		case <-m.stopCh:
			d.Stop()
			runErr = <-runDone
		}
		conn.Close()
		m.disconnect()
		if runErr == nil {
			// Run only returns nil after d.Stop, which this loop issues
			// once stopCh closes.
			return
		}

		select {
		case <-m.stopCh:
			return
		default:
		}
	}
}

func (m *Manager) waitForRetry(watcher *fsnotify.Watcher) bool {
	var events chan fsnotify.Event
	var errs chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}
	timer := time.NewTimer(m.retryInterval)
	defer timer.Stop()
	for {
		select {
		case <-m.stopCh:
			return false
		case <-timer.C:
			return true
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && filepath.Clean(ev.Name) == filepath.Clean(m.path) {
				return true
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			util.WithField("socket", m.path).Warnf("reconnect: watcher error: %v", err)
		}
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setConnected(d *driver.Driver) {
	m.mu.Lock()
	m.state = Connected
	m.driver = d
	notifiers := make([]func(*driver.Driver), 0, len(m.notifiers))
	for _, f := range m.notifiers {
		notifiers = append(notifiers, f)
	}
	m.mu.Unlock()
	for _, f := range notifiers {
		f(d)
	}
}

func (m *Manager) disconnect() {
	m.mu.Lock()
	d := m.driver
	m.state = Disconnected
	m.driver = nil
	m.mu.Unlock()
	if d != nil {
		d.FailAll(errDisconnected)
	}
}

var errDisconnected = errors.New("reconnect: connection to server lost")
