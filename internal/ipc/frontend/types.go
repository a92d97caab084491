// Package frontend implements the client-facing IPC interface: wdxctl (or
// any other client process) discovers devices and parameters, reads and
// writes parameter values, and invokes methods through this package's
// Proxy, answered by its Stub hosted at objectstore.Frontend inside wdxd.
// Unlike internal/ipc/backend, traffic flows one way — the frontend never
// calls back into the client — so its Stub needs no per-connection
// registration bookkeeping to reap on disconnect; it does still hold the
// connection's peer credentials, checked against internal/authz before
// every call.
package frontend

import (
	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/ipc/wire"
)

// Method ids for the frontend object (objectstore.Frontend).
const (
	MethodGetAllDevices uint32 = iota + 1
	MethodGetAllParameters
	MethodGetParameters
	MethodGetParametersByPath
	MethodInvokeMethod
	MethodInvokeMethodByPath
	MethodSetParameterValues
	MethodSetParameterValuesByPath
	MethodCreateParameterUploadID
	MethodRemoveParameterUploadID
)

// ParameterEntry is one parameter instance's current value, as returned by
// GetAllParameters/GetParameters.
type ParameterEntry struct {
	ID    addressing.ParameterInstanceID `json:"id"`
	Path  string                         `json:"path"`
	Value *wire.WireValue                `json:"value,omitempty"`
	Code  int                            `json:"code"` // status.Code
}

// ParameterPathEntry is one resolved-by-path parameter instance's current
// value, as returned by GetParametersByPath. Path echoes the request's
// path so a caller can zip results back against the paths it asked for
// even when resolution itself failed.
type ParameterPathEntry struct {
	Path  addressing.ParameterInstancePath `json:"path"`
	Value *wire.WireValue                  `json:"value,omitempty"`
	Code  int                              `json:"code"`
}

// WriteResult answers one parameter write, by id.
type WriteResult struct {
	ID   addressing.ParameterInstanceID `json:"id"`
	Code int                            `json:"code"`
}

// WritePathResult answers one parameter write, by path.
type WritePathResult struct {
	Path addressing.ParameterInstancePath `json:"path"`
	Code int                              `json:"code"`
}

// WriteValueRequest is one parameter value a caller wants applied, by id.
type WriteValueRequest struct {
	ID    addressing.ParameterInstanceID `json:"id"`
	Value wire.WireValue                 `json:"value"`
	Defer bool                           `json:"defer"`
}

// WritePathValueRequest is one parameter value a caller wants applied, by
// path.
type WritePathValueRequest struct {
	Path  addressing.ParameterInstancePath `json:"path"`
	Value wire.WireValue                   `json:"value"`
	Defer bool                             `json:"defer"`
}

type getAllDevicesResponse struct {
	Devices []addressing.DeviceID `json:"devices"`
}

type getAllParametersRequest struct {
	Filter addressing.ParameterFilter `json:"filter"`
	Offset int                        `json:"offset"`
	Limit  int                        `json:"limit"`
}

// getAllParametersResponse mirrors spec.md's parameter_response_list_response:
// TotalEntries may be a lower bound when dynamic instantiations exist beyond
// the current window (see Stub.getAllParameters).
type getAllParametersResponse struct {
	Entries      []ParameterEntry `json:"entries"`
	TotalEntries int              `json:"total_entries"`
}

type getParametersRequest struct {
	IDs []addressing.ParameterInstanceID `json:"ids"`
}

type getParametersResponse struct {
	Entries []ParameterEntry `json:"entries"`
}

type getParametersByPathRequest struct {
	Paths []addressing.ParameterInstancePath `json:"paths"`
}

type getParametersByPathResponse struct {
	Entries []ParameterPathEntry `json:"entries"`
}

type invokeMethodRequest struct {
	ID   addressing.ParameterInstanceID `json:"id"`
	Args map[string]wire.WireValue      `json:"args"`
}

type invokeMethodByPathRequest struct {
	Path addressing.ParameterInstancePath `json:"path"`
	Args map[string]wire.WireValue        `json:"args"`
}

type invokeMethodResponse struct {
	Out  map[string]wire.WireValue `json:"out"`
	Code int                       `json:"code"`
}

type setParameterValuesRequest struct {
	Requests []WriteValueRequest `json:"requests"`
}

type setParameterValuesResponse struct {
	Results []WriteResult `json:"results"`
}

type setParameterValuesByPathRequest struct {
	Requests []WritePathValueRequest `json:"requests"`
}

type setParameterValuesByPathResponse struct {
	Results []WritePathResult `json:"results"`
}

// createParameterUploadIDRequest asks for a fresh upload id bound to a
// file_id-typed parameter, staged ahead of a later SetParameterValues that
// commits it.
type createParameterUploadIDRequest struct {
	ID addressing.ParameterInstanceID `json:"id"`
}

type createParameterUploadIDResponse struct {
	FileID string `json:"file_id"`
	Code   int    `json:"code"` // status.Code
}

// removeParameterUploadIDRequest withdraws a previously-created upload id
// before it is ever consumed.
type removeParameterUploadIDRequest struct {
	FileID string `json:"file_id"`
}

type removeParameterUploadIDResponse struct {
	Code int `json:"code"` // status.Code
}
