// Package claimcache mirrors the registry's in-memory provider claims into
// Redis, the way the teacher's pkg/device.ConfigDBClient mirrors SONiC's
// authoritative config into a Redis-backed config_db: a side channel an
// external tool can inspect, never a dependency the core logic needs to
// function. A nil *Mirror (no address configured) makes every method a
// no-op, so Registry can hold one unconditionally.
package claimcache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/wago-dev/wdx/pkg/util"
)

// claimsKey is the single Redis hash every claim is written into, field
// "<device>|<path>" -> provider display name, mirroring the teacher's
// "<table>|<key>" config_db key convention collapsed to one table since
// there's only one kind of record to mirror.
const claimsKey = "WDX_CLAIMS"

// Mirror writes a best-effort copy of the registry's provider claims to
// Redis for external observability (e.g. a fleet dashboard watching which
// provider backs which parameter). It is never consulted to answer a
// registry call.
type Mirror struct {
	client *redis.Client
	ctx    context.Context
}

// New returns a Mirror connected to addr, or nil if addr is empty.
func New(addr string) *Mirror {
	if addr == "" {
		return nil
	}
	return &Mirror{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ctx:    context.Background(),
	}
}

// Connect verifies the Redis connection is reachable.
func (m *Mirror) Connect() error {
	if m == nil {
		return nil
	}
	return m.client.Ping(m.ctx).Err()
}

// Close releases the underlying Redis client.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}

// field builds the "<device>|<path>" hash field claims are keyed by.
func field(device, path string) string {
	return fmt.Sprintf("%s|%s", device, path)
}

// SetClaim records that provider claims path on device. Runs in its own
// goroutine: a slow or unreachable Redis must never delay the registry
// call that triggered it.
func (m *Mirror) SetClaim(device, path, provider string) {
	if m == nil {
		return
	}
	go func() {
		if err := m.client.HSet(m.ctx, claimsKey, field(device, path), provider).Err(); err != nil {
			util.WithField("error", err).Debug("claimcache: set claim failed")
		}
	}()
}

// ClearClaim removes the mirrored claim for path on device, if any.
func (m *Mirror) ClearClaim(device, path string) {
	if m == nil {
		return
	}
	go func() {
		if err := m.client.HDel(m.ctx, claimsKey, field(device, path)).Err(); err != nil {
			util.WithField("error", err).Debug("claimcache: clear claim failed")
		}
	}()
}

// ClearDevice removes every mirrored claim recorded for device. Used when
// a device disconnects and every claim against it is released.
func (m *Mirror) ClearDevice(device string) {
	if m == nil {
		return
	}
	go func() {
		all, err := m.client.HGetAll(m.ctx, claimsKey).Result()
		if err != nil {
			util.WithField("error", err).Debug("claimcache: clear device scan failed")
			return
		}
		prefix := device + "|"
		for key := range all {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				m.client.HDel(m.ctx, claimsKey, key)
			}
		}
	}()
}

// GetAll reads every mirrored claim back, keyed by "<device>|<path>". Used
// by external tooling and tests; the registry itself never calls this.
func (m *Mirror) GetAll() (map[string]string, error) {
	if m == nil {
		return map[string]string{}, nil
	}
	return m.client.HGetAll(m.ctx, claimsKey).Result()
}
