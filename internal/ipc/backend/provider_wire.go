package backend

import (
	"fmt"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/asyncresult"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/wire"
	"github.com/wago-dev/wdx/internal/registry"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

type wireReadResult struct {
	ID    addressing.ParameterInstanceID `json:"id"`
	Value *wire.WireValue                `json:"value,omitempty"`
	Code  int                            `json:"code"`
}

type wireWriteRequest struct {
	ID    addressing.ParameterInstanceID `json:"id"`
	Value wire.WireValue                 `json:"value"`
	Defer bool                           `json:"defer"`
}

type wireWriteResult struct {
	ID   addressing.ParameterInstanceID `json:"id"`
	Code int                            `json:"code"`
}

type getValuesRequest struct {
	IDs []addressing.ParameterInstanceID `json:"ids"`
}

type getValuesResponse struct {
	Results []wireReadResult `json:"results"`
}

type setValuesRequest struct {
	Requests []wireWriteRequest `json:"requests"`
}

type setValuesResponse struct {
	Results []wireWriteResult `json:"results"`
}

type invokeMethodRequest struct {
	ID   addressing.ParameterInstanceID `json:"id"`
	Args map[string]wire.WireValue      `json:"args"`
}

type invokeMethodResponse struct {
	Out  map[string]wire.WireValue `json:"out"`
	Code int                       `json:"code"`
}

// NewProviderStub adapts impl, a plain Go registry.ParameterProvider, into
// a driver.Stub a provider process registers in its own objectstore (see
// ProviderRegistration.ObjectID) so wdxd can call back into it over the
// same backend connection.
func NewProviderStub(impl registry.ParameterProvider) driver.Stub {
	return providerStub{impl: impl}
}

type providerStub struct {
	impl registry.ParameterProvider
}

func (s providerStub) Call(req wire.Message) (wire.Message, error) {
	switch req.MethodID {
	case MethodGetParameterValues:
		var in getValuesRequest
		if err := req.DecodeJSON(&in); err != nil {
			return wire.Message{}, err
		}
		got := s.impl.GetParameterValues(in.IDs)
		results := make([]wireReadResult, len(got))
		for i, r := range got {
			item := wireReadResult{ID: r.ID, Code: int(r.Code)}
			if r.Value != nil {
				wv, err := wire.EncodeValue(r.Value)
				if err != nil {
					return wire.Message{}, err
				}
				item.Value = &wv
			}
			results[i] = item
		}
		return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, getValuesResponse{Results: results})

	case MethodSetParameterValues:
		var in setValuesRequest
		if err := req.DecodeJSON(&in); err != nil {
			return wire.Message{}, err
		}
		reqs := make([]registry.ParameterWriteRequest, len(in.Requests))
		for i, r := range in.Requests {
			v, err := r.Value.Decode()
			if err != nil {
				return wire.Message{}, err
			}
			reqs[i] = registry.ParameterWriteRequest{ID: r.ID, Value: v, Defer: r.Defer}
		}
		got := s.impl.SetParameterValues(reqs)
		results := make([]wireWriteResult, len(got))
		for i, r := range got {
			results[i] = wireWriteResult{ID: r.ID, Code: int(r.Code)}
		}
		return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, setValuesResponse{Results: results})

	case MethodInvokeMethod:
		var in invokeMethodRequest
		if err := req.DecodeJSON(&in); err != nil {
			return wire.Message{}, err
		}
		args := make(map[string]*value.Value, len(in.Args))
		for name, wv := range in.Args {
			v, err := wv.Decode()
			if err != nil {
				return wire.Message{}, err
			}
			args[name] = v
		}
		out, code := s.impl.InvokeMethod(in.ID, args)
		wireOut := make(map[string]wire.WireValue, len(out))
		for name, v := range out {
			wv, err := wire.EncodeValue(v)
			if err != nil {
				return wire.Message{}, err
			}
			wireOut[name] = wv
		}
		return wire.NewResponse(req.ObjectID, req.MethodID, req.Seq, invokeMethodResponse{Out: wireOut, Code: int(code)})

	default:
		return wire.Message{}, fmt.Errorf("backend: provider stub: unknown method id %d", req.MethodID)
	}
}

// remoteProvider is the registry-facing adapter for a provider registered
// by a remote backend connection: every registry.ParameterProvider call is
// forwarded to the provider's own registered ProviderRegistration.ObjectID
// over that same connection's driver and awaited synchronously. Safe only
// because it is invoked from a registry dispatch goroutine spawned by a
// *different* connection's (the frontend's) driver loop, never from the
// backend connection's own — see internal/asyncresult.Await's doc comment.
type remoteProvider struct {
	d        *driver.Driver
	objectID uint32
}

func (p *remoteProvider) GetParameterValues(ids []addressing.ParameterInstanceID) []registry.ParameterReadResult {
	result := p.d.Call(p.objectID, MethodGetParameterValues, getValuesRequest{IDs: ids})
	msg, err := asyncresult.Await(result)
	if err != nil {
		return unavailableReads(ids)
	}
	var resp getValuesResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return unavailableReads(ids)
	}
	out := make([]registry.ParameterReadResult, len(resp.Results))
	for i, r := range resp.Results {
		item := registry.ParameterReadResult{ID: r.ID, Code: status.Code(r.Code)}
		if r.Value != nil {
			if v, err := r.Value.Decode(); err == nil {
				item.Value = v
			}
		}
		out[i] = item
	}
	return out
}

func (p *remoteProvider) SetParameterValues(requests []registry.ParameterWriteRequest) []registry.ParameterWriteResult {
	wireReqs := make([]wireWriteRequest, len(requests))
	for i, r := range requests {
		wv, err := wire.EncodeValue(r.Value)
		if err != nil {
			return unavailableWrites(requests, status.InvalidValue)
		}
		wireReqs[i] = wireWriteRequest{ID: r.ID, Value: wv, Defer: r.Defer}
	}
	result := p.d.Call(p.objectID, MethodSetParameterValues, setValuesRequest{Requests: wireReqs})
	msg, err := asyncresult.Await(result)
	if err != nil {
		return unavailableWrites(requests, status.CouldNotSetParameter)
	}
	var resp setValuesResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return unavailableWrites(requests, status.CouldNotSetParameter)
	}
	out := make([]registry.ParameterWriteResult, len(resp.Results))
	for i, r := range resp.Results {
		out[i] = registry.ParameterWriteResult{ID: r.ID, Code: status.Code(r.Code)}
	}
	return out
}

func (p *remoteProvider) InvokeMethod(id addressing.ParameterInstanceID, args map[string]*value.Value) (map[string]*value.Value, status.Code) {
	wireArgs := make(map[string]wire.WireValue, len(args))
	for name, v := range args {
		wv, err := wire.EncodeValue(v)
		if err != nil {
			return nil, status.InvalidValue
		}
		wireArgs[name] = wv
	}
	result := p.d.Call(p.objectID, MethodInvokeMethod, invokeMethodRequest{ID: id, Args: wireArgs})
	msg, err := asyncresult.Await(result)
	if err != nil {
		return nil, status.CouldNotInvokeMethod
	}
	var resp invokeMethodResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, status.CouldNotInvokeMethod
	}
	out := make(map[string]*value.Value, len(resp.Out))
	for name, wv := range resp.Out {
		v, err := wv.Decode()
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out, status.Code(resp.Code)
}

func unavailableReads(ids []addressing.ParameterInstanceID) []registry.ParameterReadResult {
	out := make([]registry.ParameterReadResult, len(ids))
	for i, id := range ids {
		out[i] = registry.ParameterReadResult{ID: id, Code: status.ParameterValueUnavailable}
	}
	return out
}

func unavailableWrites(requests []registry.ParameterWriteRequest, code status.Code) []registry.ParameterWriteResult {
	out := make([]registry.ParameterWriteResult, len(requests))
	for i, r := range requests {
		out[i] = registry.ParameterWriteResult{ID: r.ID, Code: code}
	}
	return out
}
