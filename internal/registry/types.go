// Package registry is the provider registry and call dispatcher: it tracks
// which provider claims which parameter instances, enforces each provider's
// declared call mode (concurrent or serialized), validates values and
// method arguments against the resolved model before a call ever reaches a
// provider, and tracks the pending-upload-id handshake a file-valued
// parameter write goes through before its bytes are staged.
package registry

import (
	"time"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

// CallMode controls how concurrent calls into one provider are scheduled.
type CallMode uint8

const (
	// Concurrent lets the registry call the provider from as many
	// goroutines as there are in-flight requests naming its parameters.
	Concurrent CallMode = iota
	// Serialized runs at most one call into the provider at a time; a
	// second caller blocks until the first call's provider round-trip
	// completes. Providers that are not internally reentrant (a single
	// fieldbus session, a serial line) declare this mode.
	Serialized
)

func (m CallMode) String() string {
	if m == Serialized {
		return "serialized"
	}
	return "concurrent"
}

// ProviderEntry describes a registered provider: its identity, its call
// mode, and the selectors/ids it claims.
type ProviderEntry struct {
	DisplayName      string
	CallMode         CallMode
	ClaimedSelectors []addressing.ParameterSelector
}

// ParameterReadResult is one parameter's outcome from a GetParameters call,
// either a value or a non-Success status code explaining why there isn't
// one (ParameterNotProvided, ParameterValueUnavailable, ...).
type ParameterReadResult struct {
	ID    addressing.ParameterInstanceID
	Value *value.Value
	Code  status.Code
}

// ParameterWriteRequest is one parameter value a caller wants applied.
// Defer asks the provider to stage the change and apply it together with
// every other deferred request in the same SetParameterValues batch, per
// the model's defer_wda_web_connection_changes two-pass protocol.
type ParameterWriteRequest struct {
	ID    addressing.ParameterInstanceID
	Value *value.Value
	Defer bool
}

// ParameterWriteResult is one parameter's outcome from a
// SetParameterValues call.
type ParameterWriteResult struct {
	ID   addressing.ParameterInstanceID
	Code status.Code
}

// PendingUpload is a reserved file-upload slot: a client has been handed
// FileID and must stage the file's bytes with the IPC file API before
// committing them with a set_parameter_values write to ParamID naming
// FileID, at which point the registry releases the slot. Expiry is when
// the registry is permitted to reclaim the slot unconsumed.
type PendingUpload struct {
	FileID   string
	ParamID  addressing.ParameterInstanceID
	Provider string
	Expiry   time.Time
}
