package transport

import "testing"

func TestVerifyRemoteIdentity(t *testing.T) {
	identities := []RemoteIdentity{
		{SSHUser: "alice", Credentials: Credentials{UID: 1000, GID: 1000}},
		{SSHUser: "bob", Credentials: Credentials{UID: 1001, GID: 1001}},
	}

	got, err := VerifyRemoteIdentity("alice", identities)
	if err != nil {
		t.Fatalf("VerifyRemoteIdentity(alice) error: %v", err)
	}
	if got != (Credentials{UID: 1000, GID: 1000}) {
		t.Errorf("VerifyRemoteIdentity(alice) = %+v, want UID/GID 1000", got)
	}
}

func TestVerifyRemoteIdentity_Unknown(t *testing.T) {
	identities := []RemoteIdentity{
		{SSHUser: "alice", Credentials: Credentials{UID: 1000, GID: 1000}},
	}

	if _, err := VerifyRemoteIdentity("mallory", identities); err == nil {
		t.Error("VerifyRemoteIdentity(mallory) should error for an unconfigured SSH user")
	}
}

func TestDialRemote_UnreachableAddr(t *testing.T) {
	_, err := DialRemote(RemoteConfig{
		Addr:       "127.0.0.1:1",
		User:       "nobody",
		Password:   "nopass",
		SocketPath: "/tmp/does-not-exist.sock",
		Timeout:    1,
	})
	if err == nil {
		t.Error("DialRemote against an unreachable address should error")
	}
}
