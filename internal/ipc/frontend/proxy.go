package frontend

import (
	"fmt"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/asyncresult"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/wire"
	"github.com/wago-dev/wdx/internal/value"
)

// Proxy is the client-side handle wdxctl (or any client process) uses to
// talk to wdxd's frontend object. Every call blocks until answered.
type Proxy struct {
	d *driver.Driver
}

// NewProxy returns a Proxy that issues calls over d to objectstore.Frontend.
func NewProxy(d *driver.Driver) *Proxy {
	return &Proxy{d: d}
}

func (p *Proxy) call(methodID uint32, body any) (wire.Message, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.Frontend, methodID, body))
	if err != nil {
		return wire.Message{}, fmt.Errorf("frontend: %w", err)
	}
	return msg, nil
}

// GetAllDevices lists every currently-registered device.
func (p *Proxy) GetAllDevices() ([]addressing.DeviceID, error) {
	msg, err := p.call(MethodGetAllDevices, struct{}{})
	if err != nil {
		return nil, err
	}
	var resp getAllDevicesResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetAllParameters lists every parameter instance matching filter, paged
// by offset/limit. TotalEntries may be a lower bound — see Stub.getAllParameters.
func (p *Proxy) GetAllParameters(filter addressing.ParameterFilter, offset, limit int) ([]ParameterEntry, int, error) {
	msg, err := p.call(MethodGetAllParameters, getAllParametersRequest{Filter: filter, Offset: offset, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	var resp getAllParametersResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, 0, err
	}
	return resp.Entries, resp.TotalEntries, nil
}

// GetParameters reads every id in ids.
func (p *Proxy) GetParameters(ids []addressing.ParameterInstanceID) ([]ParameterEntry, error) {
	msg, err := p.call(MethodGetParameters, getParametersRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	var resp getParametersResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// GetParametersByPath reads every path in paths.
func (p *Proxy) GetParametersByPath(paths []addressing.ParameterInstancePath) ([]ParameterPathEntry, error) {
	msg, err := p.call(MethodGetParametersByPath, getParametersByPathRequest{Paths: paths})
	if err != nil {
		return nil, err
	}
	var resp getParametersByPathResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// InvokeMethod calls the method named by id with the given named arguments.
func (p *Proxy) InvokeMethod(id addressing.ParameterInstanceID, args map[string]*value.Value) (map[string]*value.Value, int, error) {
	wireArgs, err := encodeArgs(args)
	if err != nil {
		return nil, 0, err
	}
	msg, err := p.call(MethodInvokeMethod, invokeMethodRequest{ID: id, Args: wireArgs})
	if err != nil {
		return nil, 0, err
	}
	return decodeInvokeResponse(msg)
}

// InvokeMethodByPath calls the method named by path with the given named
// arguments.
func (p *Proxy) InvokeMethodByPath(path addressing.ParameterInstancePath, args map[string]*value.Value) (map[string]*value.Value, int, error) {
	wireArgs, err := encodeArgs(args)
	if err != nil {
		return nil, 0, err
	}
	msg, err := p.call(MethodInvokeMethodByPath, invokeMethodByPathRequest{Path: path, Args: wireArgs})
	if err != nil {
		return nil, 0, err
	}
	return decodeInvokeResponse(msg)
}

// SetParameterValues applies every write request, by id.
func (p *Proxy) SetParameterValues(requests []WriteValueRequest) ([]WriteResult, error) {
	msg, err := p.call(MethodSetParameterValues, setParameterValuesRequest{Requests: requests})
	if err != nil {
		return nil, err
	}
	var resp setParameterValuesResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SetParameterValuesByPath applies every write request, by path.
func (p *Proxy) SetParameterValuesByPath(requests []WritePathValueRequest) ([]WritePathResult, error) {
	msg, err := p.call(MethodSetParameterValuesByPath, setParameterValuesByPathRequest{Requests: requests})
	if err != nil {
		return nil, err
	}
	var resp setParameterValuesByPathResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CreateParameterUploadID reserves a fresh upload id bound to the
// file_id-typed parameter id, returning it alongside a status.Code carried
// as an int.
func (p *Proxy) CreateParameterUploadID(id addressing.ParameterInstanceID) (string, int, error) {
	msg, err := p.call(MethodCreateParameterUploadID, createParameterUploadIDRequest{ID: id})
	if err != nil {
		return "", 0, err
	}
	var resp createParameterUploadIDResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return "", 0, err
	}
	return resp.FileID, resp.Code, nil
}

// RemoveParameterUploadID withdraws fileID before it is ever consumed by a
// SetParameterValues write.
func (p *Proxy) RemoveParameterUploadID(fileID string) (int, error) {
	msg, err := p.call(MethodRemoveParameterUploadID, removeParameterUploadIDRequest{FileID: fileID})
	if err != nil {
		return 0, err
	}
	var resp removeParameterUploadIDResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return 0, err
	}
	return resp.Code, nil
}

func encodeArgs(args map[string]*value.Value) (map[string]wire.WireValue, error) {
	out := make(map[string]wire.WireValue, len(args))
	for name, v := range args {
		wv, err := wire.EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out[name] = wv
	}
	return out, nil
}

func decodeInvokeResponse(msg wire.Message) (map[string]*value.Value, int, error) {
	var resp invokeMethodResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, 0, err
	}
	out := make(map[string]*value.Value, len(resp.Out))
	for name, wv := range resp.Out {
		v, err := wv.Decode()
		if err != nil {
			return nil, 0, err
		}
		out[name] = v
	}
	return out, resp.Code, nil
}
