// Package authz is the single seam the core's stubs call through before
// acting on a request. spec.md keeps authentication and authorization
// policy itself out of the core's scope ("does not perform
// authentication itself, it only propagates an opaque user credential
// across IPC") but requires that whatever policy a deployment plugs in
// has exactly one call site: "the authorization wrapper is the only
// place the core invokes authorization checks." Wrapper is that seam.
package authz

import "github.com/wago-dev/wdx/internal/ipc/transport"

// OperationKind names the category of access an Operation represents.
type OperationKind uint8

const (
	Read OperationKind = iota
	Write
	Invoke
)

func (k OperationKind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case Invoke:
		return "invoke"
	default:
		return "unknown"
	}
}

// Operation describes one call a Wrapper is asked to authorize. Path is
// the parameter or method path being acted on, empty for calls with no
// single resource (e.g. get_all_devices).
type Operation struct {
	Kind OperationKind
	Path string
}

// Wrapper authorizes one call under the credentials read off its
// connection at accept time (see transport.Conn.Credentials). A Wrapper
// must be reentrant: spec.md calls for it to be shared, and invoked
// concurrently, across every connection's own single-threaded dispatch
// loop — the only state the runtime shares across connections besides
// the registry itself.
type Wrapper interface {
	Authorize(creds transport.Credentials, op Operation) bool
}

// AllowAll is the zero-policy Wrapper: every call is authorized. It is
// the default a Stub uses when no Wrapper has been installed, matching a
// standalone deployment that relies on the listening socket's own
// filesystem permissions rather than a further access-control layer.
type AllowAll struct{}

// Authorize always returns true.
func (AllowAll) Authorize(transport.Credentials, Operation) bool { return true }
