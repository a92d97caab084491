package transport

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Credentials is the peer's OS-level identity, read once via SO_PEERCRED at
// accept time. Every authorized call on the connection executes under this
// credential; see pkg/auth for the wrapper that consults it.
type Credentials struct {
	UID uint32
	GID uint32
	PID int32
}

// peerCredentials reads raw's SO_PEERCRED. raw must be a *net.UnixConn
// backed by an actual kernel socket (not, e.g., an in-memory net.Pipe),
// since SO_PEERCRED is answered by the kernel's own accept-time bookkeeping.
func peerCredentials(raw net.Conn) (Credentials, error) {
	uc, ok := raw.(*net.UnixConn)
	if !ok {
		return Credentials{}, fmt.Errorf("transport: peer credentials require a unix socket connection")
	}
	sysConn, err := uc.SyscallConn()
	if err != nil {
		return Credentials{}, fmt.Errorf("transport: SyscallConn: %w", err)
	}

	var ucred *unix.Ucred
	var sockErr error
	err = sysConn.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), syscall.SOL_SOCKET, syscall.SO_PEERCRED)
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("transport: Control: %w", err)
	}
	if sockErr != nil {
		return Credentials{}, fmt.Errorf("transport: SO_PEERCRED: %w", sockErr)
	}
	return Credentials{UID: ucred.Uid, GID: ucred.Gid, PID: ucred.Pid}, nil
}
