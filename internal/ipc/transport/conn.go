// Package transport provides the framed Unix-domain stream socket
// connection the IPC runtime sends internal/ipc/wire Messages over: one
// writer goroutine per connection so outbound frames queue and never
// interleave, a buffered reader for inbound frames, and (server side) the
// peer's OS credentials read once at accept time.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/wago-dev/wdx/internal/ipc/wire"
)

// ErrClosed is returned by Send once the connection has stopped, whether
// because Close was called or because a write failed.
var ErrClosed = errors.New("transport: connection closed")

// outboxSize bounds how many frames a single connection will queue before
// Send blocks its caller; a connection that can't drain this fast is
// backpressuring its peer, not leaking memory.
const outboxSize = 256

// Conn is one framed connection: reads via Recv in whatever goroutine calls
// it (the IPC driver, single-threaded per connection per the runtime's
// contract), writes via Send, which only ever hands a frame to the
// dedicated writer goroutine.
type Conn struct {
	raw net.Conn
	r   *bufio.Reader

	// Credentials is populated by the server-side listener at accept
	// time (see listener.go) and zero-valued for client-dialed
	// connections, which have no peer to authenticate locally.
	Credentials Credentials

	outbox chan wire.Message
	stopCh chan struct{} // closed once, by Close or a failed write
	stop   sync.Once

	writeErr     error
	writeErrOnce sync.Once
}

// newConn wraps raw and starts its writer goroutine.
func newConn(raw net.Conn) *Conn {
	c := &Conn{
		raw:    raw,
		r:      bufio.NewReaderSize(raw, 64*1024),
		outbox: make(chan wire.Message, outboxSize),
		stopCh: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Conn) writeLoop() {
	for {
		select {
		case m := <-c.outbox:
			if err := wire.WriteFrame(c.raw, m); err != nil {
				c.writeErrOnce.Do(func() { c.writeErr = err })
				c.raw.Close() // unblocks any concurrent Recv with an error.
				c.stop.Do(func() { close(c.stopCh) })
				return
			}
		case <-c.stopCh:
			return
		}
	}
}

// Send queues m for the writer goroutine. Returns ErrClosed (or the
// write error that closed the connection) once the connection has
// stopped.
func (c *Conn) Send(m wire.Message) error {
	// Checked first, non-blocking: once stopped, always report the
	// stoppage rather than let select's random tie-break occasionally
	// still accept a frame nothing will ever write.
	select {
	case <-c.stopCh:
		if c.writeErr != nil {
			return c.writeErr
		}
		return ErrClosed
	default:
	}
	select {
	case c.outbox <- m:
		return nil
	case <-c.stopCh:
		if c.writeErr != nil {
			return c.writeErr
		}
		return ErrClosed
	}
}

// Recv blocks until the next frame arrives, or returns the error that
// tore the connection down (EOF on clean close, or a read/write failure).
func (c *Conn) Recv() (wire.Message, error) {
	m, err := wire.ReadFrame(c.r)
	if err != nil {
		return wire.Message{}, fmt.Errorf("transport: recv: %w", err)
	}
	return m, nil
}

// Close tears down the connection and its writer goroutine.
func (c *Conn) Close() error {
	c.stop.Do(func() { close(c.stopCh) })
	return c.raw.Close()
}

// SetReadDeadline bounds the next Recv, letting a single-threaded driver
// loop poll a connection instead of blocking on it forever. A zero value
// disables the deadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.raw.SetReadDeadline(t)
}
