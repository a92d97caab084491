package auth

import (
	"os/user"
	"strconv"

	"github.com/wago-dev/wdx/internal/authz"
	"github.com/wago-dev/wdx/internal/ipc/transport"
)

// Wrapper adapts Checker into internal/authz.Wrapper, the single seam
// the IPC stubs invoke authorization checks through. It resolves the
// calling connection's OS uid (read off the socket at accept time) to a
// username, then checks that username's permission for the operation's
// kind, scoped by the operation's path as the permission context's
// Resource.
type Wrapper struct {
	checker *Checker
}

// NewWrapper returns a Wrapper that authorizes calls against checker.
func NewWrapper(checker *Checker) *Wrapper {
	return &Wrapper{checker: checker}
}

// Authorize implements internal/authz.Wrapper.
func (w *Wrapper) Authorize(creds transport.Credentials, op authz.Operation) bool {
	username, err := uidToUsername(creds.UID)
	if err != nil {
		return false
	}
	perm := PermParameterRead
	switch op.Kind {
	case authz.Write:
		perm = PermParameterWrite
	case authz.Invoke:
		perm = PermParameterInvoke
	}
	ctx := NewContext()
	if op.Path != "" {
		ctx = ctx.WithResource(op.Path)
	}
	return w.checker.CheckUser(username, perm, ctx) == nil
}

func uidToUsername(uid uint32) (string, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
