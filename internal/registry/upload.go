package registry

import (
	"time"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

// defaultUploadTTL is how long a reserved upload slot stays valid before
// the registry is free to reclaim it unconsumed.
const defaultUploadTTL = 5 * time.Minute

// maxPendingUploads bounds how many upload ids may be reserved and not yet
// consumed or reaped at once, the case spec.md's upload_id_max_exceeded
// status code names.
const maxPendingUploads = 256

// ReserveUploadID mints a fresh file id for an upcoming upload to the
// file_id-typed parameter id, so a later SetParameterValues carrying that
// file id against the same parameter is recognized as "the bytes for this
// are staged, not missing." id must name a writeable, file_id-typed
// parameter currently claimed by a provider; ReserveUploadID reports the
// same status codes SetParameterValues would for an unknown, unwriteable,
// wrong-typed, or unclaimed parameter, plus status.UploadIDMaxExceeded once
// maxPendingUploads reservations are outstanding.
func (r *Registry) ReserveUploadID(id addressing.ParameterInstanceID) (string, status.Code) {
	p, ok := r.model.ParameterByID(model.DefinitionID(id.ID.DefinitionID()))
	if !ok {
		return "", status.UnknownParameterID
	}
	if !p.Writeable {
		return "", status.ParameterNotWriteable
	}
	if p.Type != value.FileID {
		return "", status.NotAFileID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	provider, ok := r.claims[id]
	if !ok {
		return "", status.ParameterNotProvided
	}
	if len(r.pendingUploads) >= maxPendingUploads {
		return "", status.UploadIDMaxExceeded
	}

	fileID := value.MintFileID()
	r.pendingUploads[fileID] = &PendingUpload{
		FileID:   fileID,
		ParamID:  id,
		Provider: provider.entry.DisplayName,
		Expiry:   time.Now().Add(defaultUploadTTL),
	}
	return fileID, status.Success
}

// RemoveUploadID withdraws a reservation before it is ever consumed by a
// write, the explicit remove_parameter_upload_id operation spec.md names
// as one of the two ways an upload id is released (the other being
// consumption by a matching SetParameterValues write).
func (r *Registry) RemoveUploadID(fileID string) status.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pendingUploads[fileID]; !ok {
		return status.UnknownFileID
	}
	delete(r.pendingUploads, fileID)
	return status.Success
}

// checkPendingUpload validates a file_id-typed write against the
// reservation ReserveUploadID created, consuming it on a match. Per
// spec.md §4.6 step 4: a file id naming no known reservation at all
// surfaces as status.LogicError (mirroring the original provider
// interface's "no upload file_id is known" case), a reservation for a
// different parameter surfaces as status.FileIDMismatch, and a reservation
// whose Expiry has already passed is reclaimed as if it had never existed.
func (r *Registry) checkPendingUpload(req ParameterWriteRequest) status.Code {
	fileID, err := req.Value.GetFileID()
	if err != nil {
		return status.NotAFileID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	up, ok := r.pendingUploads[fileID]
	if !ok {
		return status.LogicError
	}
	if time.Now().After(up.Expiry) {
		delete(r.pendingUploads, fileID)
		return status.LogicError
	}
	if up.ParamID != req.ID {
		return status.FileIDMismatch
	}
	delete(r.pendingUploads, fileID)
	return status.NoErrorYet
}

// ReapExpiredUploads removes every pending upload whose Expiry has passed
// without being consumed or explicitly removed. internal/ipc/server.Server
// calls this on a periodic ticker for the lifetime of its Serve loop; an
// upload still stale here is one whose client vanished mid-transfer.
func (r *Registry) ReapExpiredUploads(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, up := range r.pendingUploads {
		if now.After(up.Expiry) {
			delete(r.pendingUploads, id)
		}
	}
}
