package frontend

import (
	"fmt"
	"time"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/authz"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/internal/ipc/wire"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
	"github.com/wago-dev/wdx/pkg/audit"
)

// Stub is the server-side frontend object, hosted at objectstore.Frontend.
// One Stub serves exactly one connection (so it can authorize calls under
// that connection's own peer credentials), but holds no other
// per-connection state — unlike internal/ipc/backend.Stub, a client's
// disconnect reaps nothing.
type Stub struct {
	reg    *registry.Registry
	creds  transport.Credentials
	authz  authz.Wrapper
	audit  audit.Logger
	lookup func(uint32) string
}

// NewStub returns a Stub answering frontend calls against reg, serving
// the connection creds was read from at accept time. Authorization
// defaults to authz.AllowAll; call SetAuthorizer to install a real
// policy.
func NewStub(reg *registry.Registry, creds transport.Credentials) *Stub {
	return &Stub{reg: reg, creds: creds, authz: authz.AllowAll{}}
}

// SetAuthorizer installs w as the policy every subsequent call checks
// against, replacing the default authz.AllowAll.
func (s *Stub) SetAuthorizer(w authz.Wrapper) {
	s.authz = w
}

// SetAuditLogger installs logger to receive a parameter.write/invoke Event
// for every write and invoke this Stub answers by parameter path, and
// lookup to resolve the connection's peer uid to a username on each logged
// event. Writes and invokes addressed by parameter instance id, and upload
// id calls, are not logged. Nothing is logged until this is called.
func (s *Stub) SetAuditLogger(logger audit.Logger, lookup func(uint32) string) {
	s.audit = logger
	s.lookup = lookup
}

func (s *Stub) logMutation(op audit.Operation, device, path string, start time.Time, callErr error) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(s.creds.UID, device, path, op).WithDuration(time.Since(start))
	if s.lookup != nil {
		event = event.WithUser(s.lookup(s.creds.UID))
	}
	if callErr != nil {
		event = event.WithError(callErr)
	} else {
		event = event.WithSuccess()
	}
	s.audit.Log(event)
}

func (s *Stub) Call(req wire.Message) (wire.Message, error) {
	switch req.MethodID {
	case MethodGetAllDevices:
		return s.getAllDevices(req)
	case MethodGetAllParameters:
		return s.getAllParameters(req)
	case MethodGetParameters:
		return s.getParameters(req)
	case MethodGetParametersByPath:
		return s.getParametersByPath(req)
	case MethodInvokeMethod:
		return s.invokeMethod(req)
	case MethodInvokeMethodByPath:
		return s.invokeMethodByPath(req)
	case MethodSetParameterValues:
		return s.setParameterValues(req)
	case MethodSetParameterValuesByPath:
		return s.setParameterValuesByPath(req)
	case MethodCreateParameterUploadID:
		return s.createParameterUploadID(req)
	case MethodRemoveParameterUploadID:
		return s.removeParameterUploadID(req)
	default:
		return wire.Message{}, fmt.Errorf("frontend: unknown method id %d", req.MethodID)
	}
}

// authorize reports whether the connection this Stub serves may perform
// op, consulting the installed authz.Wrapper — the only place this
// package invokes an authorization check.
func (s *Stub) authorize(kind authz.OperationKind, path string) bool {
	return s.authz.Authorize(s.creds, authz.Operation{Kind: kind, Path: path})
}

func (s *Stub) getAllDevices(req wire.Message) (wire.Message, error) {
	if !s.authorize(authz.Read, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "get_all_devices"))
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, getAllDevicesResponse{Devices: s.reg.Devices()})
}

// getAllParameters enumerates every (parameter, device) pair passing in.Filter,
// pages it by in.Offset/in.Limit, and reads the current value of each
// entry in the page. TotalEntries counts only parameters defined by the
// resolved model against currently-registered devices — a class with
// dynamically-instantiated members (instance ids assigned at runtime by
// its provider) is represented here by its single definition, not by
// however many instances actually exist, so TotalEntries is a lower bound
// whenever such a class is in scope, exactly as spec.md allows.
func (s *Stub) getAllParameters(req wire.Message) (wire.Message, error) {
	if !s.authorize(authz.Read, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "get_all_parameters"))
	}
	var in getAllParametersRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}

	named := s.reg.Model().AllParameters()
	devices := s.reg.Devices()

	var ids []addressing.ParameterInstanceID
	var paths []string
	for _, np := range named {
		for _, d := range devices {
			if !addressing.Matches(in.Filter, np.Param, d, np.Feature) {
				continue
			}
			ids = append(ids, addressing.ParameterInstanceID{
				ID:     addressing.ApplyPrefix(addressing.PrefixWago, np.Param.ID),
				Device: d,
			})
			paths = append(paths, np.Param.Path)
		}
	}

	total := len(ids)
	start := in.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if in.Limit > 0 && start+in.Limit < total {
		end = start + in.Limit
	}
	pageIDs := ids[start:end]
	pagePaths := paths[start:end]

	reads := s.reg.GetParameters(pageIDs)
	entries := make([]ParameterEntry, len(reads))
	for i, r := range reads {
		entry := ParameterEntry{ID: r.ID, Path: pagePaths[i], Code: int(r.Code)}
		if r.Value != nil {
			wv, err := wire.EncodeValue(r.Value)
			if err != nil {
				return wire.Message{}, err
			}
			entry.Value = &wv
		}
		entries[i] = entry
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, getAllParametersResponse{Entries: entries, TotalEntries: total})
}

func (s *Stub) getParameters(req wire.Message) (wire.Message, error) {
	if !s.authorize(authz.Read, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "get_parameters"))
	}
	var in getParametersRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	reads := s.reg.GetParameters(in.IDs)
	entries, err := encodeReads(reads, func(r registry.ParameterReadResult) string {
		if p, ok := s.reg.Model().ParameterByID(model.DefinitionID(r.ID.ID.DefinitionID())); ok {
			return p.Path
		}
		return ""
	})
	if err != nil {
		return wire.Message{}, err
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, getParametersResponse{Entries: entries})
}

func (s *Stub) getParametersByPath(req wire.Message) (wire.Message, error) {
	if !s.authorize(authz.Read, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "get_parameters_by_path"))
	}
	var in getParametersByPathRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}

	entries := make([]ParameterPathEntry, len(in.Paths))
	var toRead []addressing.ParameterInstanceID
	readIdx := make([]int, 0, len(in.Paths))
	for i, p := range in.Paths {
		id, ok := s.resolvePath(p)
		if !ok {
			entries[i] = ParameterPathEntry{Path: p, Code: int(status.UnknownParameterID)}
			continue
		}
		toRead = append(toRead, id)
		readIdx = append(readIdx, i)
	}

	reads := s.reg.GetParameters(toRead)
	for j, r := range reads {
		i := readIdx[j]
		entry := ParameterPathEntry{Path: in.Paths[i], Code: int(r.Code)}
		if r.Value != nil {
			wv, err := wire.EncodeValue(r.Value)
			if err != nil {
				return wire.Message{}, err
			}
			entry.Value = &wv
		}
		entries[i] = entry
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, getParametersByPathResponse{Entries: entries})
}

func (s *Stub) invokeMethod(req wire.Message) (wire.Message, error) {
	var in invokeMethodRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Invoke, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "invoke_method"))
	}
	return s.invoke(req, in.ID, in.Args)
}

func (s *Stub) invokeMethodByPath(req wire.Message) (wire.Message, error) {
	var in invokeMethodByPathRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Invoke, in.Path.ParameterPath) {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "invoke_method_by_path"))
	}
	start := time.Now()
	id, ok := s.resolvePath(in.Path)
	if !ok {
		s.logMutation(audit.OperationInvoke, in.Path.DevicePath, in.Path.ParameterPath, start, fmt.Errorf("unknown parameter path"))
		return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, invokeMethodResponse{Code: int(status.UnknownParameterID)})
	}
	resp, err := s.invoke(req, id, in.Args)
	s.logMutation(audit.OperationInvoke, in.Path.DevicePath, in.Path.ParameterPath, start, err)
	return resp, err
}

func (s *Stub) invoke(req wire.Message, id addressing.ParameterInstanceID, wireArgs map[string]wire.WireValue) (wire.Message, error) {
	args := make(map[string]*value.Value, len(wireArgs))
	for name, wv := range wireArgs {
		v, err := wv.Decode()
		if err != nil {
			return wire.Message{}, err
		}
		args[name] = v
	}
	out, code := s.reg.InvokeMethod(id, args)
	wireOut := make(map[string]wire.WireValue, len(out))
	for name, v := range out {
		wv, err := wire.EncodeValue(v)
		if err != nil {
			return wire.Message{}, err
		}
		wireOut[name] = wv
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, invokeMethodResponse{Out: wireOut, Code: int(code)})
}

func (s *Stub) setParameterValues(req wire.Message) (wire.Message, error) {
	var in setParameterValuesRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Write, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "set_parameter_values"))
	}
	reqs := make([]registry.ParameterWriteRequest, len(in.Requests))
	for i, r := range in.Requests {
		v, err := r.Value.Decode()
		if err != nil {
			return wire.Message{}, err
		}
		reqs[i] = registry.ParameterWriteRequest{ID: r.ID, Value: v, Defer: r.Defer}
	}
	got := s.reg.SetParameterValues(reqs)
	results := make([]WriteResult, len(got))
	for i, r := range got {
		results[i] = WriteResult{ID: r.ID, Code: int(r.Code)}
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, setParameterValuesResponse{Results: results})
}

func (s *Stub) setParameterValuesByPath(req wire.Message) (wire.Message, error) {
	var in setParameterValuesByPathRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Write, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "set_parameter_values_by_path"))
	}

	start := time.Now()
	results := make([]WritePathResult, len(in.Requests))
	var reqs []registry.ParameterWriteRequest
	idx := make([]int, 0, len(in.Requests))
	for i, r := range in.Requests {
		id, ok := s.resolvePath(r.Path)
		if !ok {
			results[i] = WritePathResult{Path: r.Path, Code: int(status.UnknownParameterID)}
			s.logMutation(audit.OperationWrite, r.Path.DevicePath, r.Path.ParameterPath, start, fmt.Errorf("unknown parameter path"))
			continue
		}
		v, err := r.Value.Decode()
		if err != nil {
			return wire.Message{}, err
		}
		reqs = append(reqs, registry.ParameterWriteRequest{ID: id, Value: v, Defer: r.Defer})
		idx = append(idx, i)
	}

	got := s.reg.SetParameterValues(reqs)
	for j, r := range got {
		i := idx[j]
		path := in.Requests[i].Path
		results[i] = WritePathResult{Path: path, Code: int(r.Code)}
		var callErr error
		if r.Code != status.Success {
			callErr = status.New(r.Code, "set_parameter_values_by_path")
		}
		s.logMutation(audit.OperationWrite, path.DevicePath, path.ParameterPath, start, callErr)
	}
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, setParameterValuesByPathResponse{Results: results})
}

// createParameterUploadID mints an upload id bound to in.ID via
// registry.ReserveUploadID, the client-reachable counterpart to the
// upload-id handshake registry.SetParameterValues later validates against.
func (s *Stub) createParameterUploadID(req wire.Message) (wire.Message, error) {
	var in createParameterUploadIDRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Write, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "create_parameter_upload_id"))
	}
	fileID, code := s.reg.ReserveUploadID(in.ID)
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, createParameterUploadIDResponse{FileID: fileID, Code: int(code)})
}

// removeParameterUploadID withdraws in.FileID before it is ever consumed,
// the remove_parameter_upload_id operation spec.md names.
func (s *Stub) removeParameterUploadID(req wire.Message) (wire.Message, error) {
	var in removeParameterUploadIDRequest
	if err := req.DecodeJSON(&in); err != nil {
		return wire.Message{}, err
	}
	if !s.authorize(authz.Write, "") {
		return wire.Message{}, fmt.Errorf("frontend: %w", status.New(status.Unauthorized, "remove_parameter_upload_id"))
	}
	code := s.reg.RemoveUploadID(in.FileID)
	return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, removeParameterUploadIDResponse{Code: int(code)})
}

// resolvePath turns a human-readable path into the id/device pair the
// registry operates on, looking the parameter up by its resolved
// definition path and the path's own device segment.
func (s *Stub) resolvePath(p addressing.ParameterInstancePath) (addressing.ParameterInstanceID, bool) {
	def, ok := s.reg.Model().ParameterByPath(p.ParameterPath)
	if !ok {
		return addressing.ParameterInstanceID{}, false
	}
	device, err := p.Device()
	if err != nil {
		return addressing.ParameterInstanceID{}, false
	}
	return addressing.ParameterInstanceID{
		ID:     addressing.ApplyPrefix(addressing.PrefixWago, def.ID),
		Device: device,
	}, true
}

func encodeReads(reads []registry.ParameterReadResult, pathOf func(registry.ParameterReadResult) string) ([]ParameterEntry, error) {
	entries := make([]ParameterEntry, len(reads))
	for i, r := range reads {
		entry := ParameterEntry{ID: r.ID, Path: pathOf(r), Code: int(r.Code)}
		if r.Value != nil {
			wv, err := wire.EncodeValue(r.Value)
			if err != nil {
				return nil, err
			}
			entry.Value = &wv
		}
		entries[i] = entry
	}
	return entries, nil
}
