package transport

import (
	"fmt"
	"net"
	"os"

	"github.com/wago-dev/wdx/pkg/util"
)

// ListenerConfig describes the socket path, ownership, and permissions for
// one of the three well-known server sockets (backend/frontend/file-api).
type ListenerConfig struct {
	Path string
	UID  int // -1 leaves ownership unchanged.
	GID  int
	Mode os.FileMode
}

// Listener accepts Unix-domain stream connections and hands back a framed
// Conn per accepted peer, its Credentials already populated.
type Listener struct {
	path string
	ln   net.Listener
}

// Listen creates (removing any stale socket file first) and binds a Unix
// stream socket at cfg.Path, applying cfg's ownership and permissions.
func Listen(cfg ListenerConfig) (*Listener, error) {
	if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("transport: removing stale socket %s: %w", cfg.Path, err)
	}
	ln, err := net.Listen("unix", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("transport: listening on %s: %w", cfg.Path, err)
	}
	if cfg.Mode != 0 {
		if err := os.Chmod(cfg.Path, cfg.Mode); err != nil {
			ln.Close()
			return nil, fmt.Errorf("transport: chmod %s: %w", cfg.Path, err)
		}
	}
	if cfg.UID >= 0 || cfg.GID >= 0 {
		if err := os.Chown(cfg.Path, cfg.UID, cfg.GID); err != nil {
			ln.Close()
			return nil, fmt.Errorf("transport: chown %s: %w", cfg.Path, err)
		}
	}
	return &Listener{path: cfg.Path, ln: ln}, nil
}

// Accept blocks for the next incoming connection, reads its peer
// credentials, and returns a framed Conn wrapping it.
func (l *Listener) Accept() (*Conn, error) {
	raw, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	creds, err := peerCredentials(raw)
	if err != nil {
		util.WithField("socket", l.path).Warnf("transport: reading peer credentials: %v", err)
	}
	c := newConn(raw)
	c.Credentials = creds
	return c, nil
}

// Close stops accepting and removes the socket file.
func (l *Listener) Close() error {
	err := l.ln.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		util.WithField("socket", l.path).Warnf("transport: removing socket file: %v", rmErr)
	}
	return err
}

// Dial connects to a server-side Unix socket at path, for client processes.
func Dial(path string) (*Conn, error) {
	raw, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", path, err)
	}
	return newConn(raw), nil
}
