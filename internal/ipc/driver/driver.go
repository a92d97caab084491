// Package driver runs the single-threaded, per-connection call loop the IPC
// runtime is built on: it multiplexes a framed connection between incoming
// requests (dispatched to objectstore-registered stubs) and incoming
// responses/exceptions (routed back to the asyncresult.Result a local Call
// returned), entirely from whichever goroutine calls RunOnce or Run. Nothing
// here reads or writes the connection except that goroutine; a driver is not
// safe to drive from two goroutines at once, matching the "one goroutine per
// connection" contract the rest of internal/ipc is built to.
package driver

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wago-dev/wdx/internal/asyncresult"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/wire"
)

// Conn is the slice of transport.Conn a Driver needs; declared here so tests
// can drive a Driver against a fake without a real socket.
type Conn interface {
	Send(wire.Message) error
	Recv() (wire.Message, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Stub is a local object an incoming request may call into. It builds and
// returns the full response (or exception) message itself, since only the
// stub knows whether its answer is JSON or, for a bulk-byte method like a
// file read, a binary payload in the stub's own layout. Returning a non-nil error sends an
// Exception with that error's message as the reason instead of resp.
type Stub interface {
	Call(req wire.Message) (resp wire.Message, err error)
}

// RemoteError is the error a Call's Result fails with when the peer answers
// with an Exception rather than a Response. Reason is whatever text the
// remote stub gave driver.Stub.Call's error.
type RemoteError struct {
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ipc: remote exception: %s", e.Reason)
}

// Driver owns one connection's call loop.
type Driver struct {
	conn  Conn
	store *objectstore.Store

	nextSeq uint64

	mu          sync.Mutex
	outstanding map[uint64]*asyncresult.Result[wire.Message]

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New returns a Driver for conn, dispatching incoming requests against
// store's registered stubs.
func New(conn Conn, store *objectstore.Store) *Driver {
	return &Driver{
		conn:        conn,
		store:       store,
		outstanding: make(map[uint64]*asyncresult.Result[wire.Message]),
		stopCh:      make(chan struct{}),
	}
}

// Call sends a JSON-encoded request to objectID.methodID and returns a
// Result completed when the matching response or exception arrives, or
// failed if the connection is torn down first.
func (d *Driver) Call(objectID, methodID uint32, body any) *asyncresult.Result[wire.Message] {
	seq := atomic.AddUint64(&d.nextSeq, 1)
	req, err := wire.NewRequest(objectID, methodID, seq, body)
	if err != nil {
		return asyncresult.Failed[wire.Message](err)
	}
	return d.send(seq, req)
}

// CallBinary is Call for a request whose payload the caller has already
// encoded in the method's own binary layout, for bulk-byte methods.
func (d *Driver) CallBinary(objectID, methodID uint32, payload []byte) *asyncresult.Result[wire.Message] {
	seq := atomic.AddUint64(&d.nextSeq, 1)
	req := wire.NewBinaryRequest(objectID, methodID, seq, payload)
	return d.send(seq, req)
}

func (d *Driver) send(seq uint64, req wire.Message) *asyncresult.Result[wire.Message] {
	result := asyncresult.New[wire.Message]()
	d.mu.Lock()
	d.outstanding[seq] = result
	d.mu.Unlock()

	if err := d.conn.Send(req); err != nil {
		d.mu.Lock()
		delete(d.outstanding, seq)
		d.mu.Unlock()
		result.Fail(fmt.Errorf("ipc: sending request: %w", err))
	}
	return result
}

// RunOnce waits up to timeout for the next frame and dispatches it: a
// request goes to objectstore, a response or exception completes the
// matching outstanding Call. Returns nil on a timeout with nothing to do, or
// the error that tore the connection down. A zero timeout blocks
// indefinitely.
func (d *Driver) RunOnce(timeout time.Duration) error {
	if timeout > 0 {
		if err := d.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("ipc: setting read deadline: %w", err)
		}
	} else if err := d.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("ipc: clearing read deadline: %w", err)
	}

	m, err := d.conn.Recv()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		return err
	}

	switch m.Direction {
	case wire.Request:
		d.dispatchRequest(m)
	default:
		d.dispatchReply(m)
	}
	return nil
}

// Run drives RunOnce in a loop, polling in pollInterval slices so Stop can
// interrupt it promptly, until Stop is called or the connection fails. Every
// still-outstanding Call is failed with the terminating error before Run
// returns.
func (d *Driver) Run(pollInterval time.Duration) error {
	for {
		select {
		case <-d.stopCh:
			d.failAll(fmt.Errorf("ipc: driver stopped"))
			return nil
		default:
		}
		if err := d.RunOnce(pollInterval); err != nil {
			d.failAll(fmt.Errorf("ipc: connection failed: %w", err))
			return err
		}
	}
}

// Stop interrupts a concurrent Run, which returns nil once it notices.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		_ = d.conn.SetReadDeadline(time.Now())
	})
}

// FailAll fails every outstanding Call with err. Used by the reconnect
// manager when a connection drops out from under the driver, rather than
// letting those Calls hang forever waiting for a reply that will never come.
func (d *Driver) FailAll(err error) {
	d.failAll(err)
}

func (d *Driver) failAll(err error) {
	d.mu.Lock()
	outstanding := d.outstanding
	d.outstanding = make(map[uint64]*asyncresult.Result[wire.Message])
	d.mu.Unlock()
	for _, result := range outstanding {
		result.Fail(err)
	}
}

func (d *Driver) dispatchRequest(req wire.Message) {
	obj, ok := d.store.Get(req.ObjectID)
	if !ok {
		d.reply(wire.NewException(req.ObjectID, req.MethodID, req.Seq, fmt.Sprintf("ipc: no object registered for id %d", req.ObjectID)))
		return
	}
	stub, ok := obj.(Stub)
	if !ok {
		d.reply(wire.NewException(req.ObjectID, req.MethodID, req.Seq, fmt.Sprintf("ipc: object %d is not callable", req.ObjectID)))
		return
	}
	resp, err := stub.Call(req)
	if err != nil {
		d.reply(wire.NewException(req.ObjectID, req.MethodID, req.Seq, err.Error()))
		return
	}
	d.reply(resp)
}

func (d *Driver) reply(m wire.Message) {
	if err := d.conn.Send(m); err != nil {
		// The peer that asked is also the peer we can no longer reach;
		// nothing local to report this to. Run's caller will see the
		// same failure on its next RunOnce.
		return
	}
}

func (d *Driver) dispatchReply(m wire.Message) {
	d.mu.Lock()
	result, ok := d.outstanding[m.Seq]
	if ok {
		delete(d.outstanding, m.Seq)
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	if m.Direction == wire.Exception {
		result.Fail(&RemoteError{Reason: m.Reason()})
		return
	}
	result.Complete(m)
}
