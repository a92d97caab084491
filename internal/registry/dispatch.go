package registry

import (
	"sync"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

// GetParameters reads every id, fanning the request out to each claiming
// provider (concurrently across providers; within one provider, governed by
// its CallMode) and joining the results back into ids' original order. An
// id with no claiming provider comes back with status.ParameterNotProvided
// rather than being omitted, so callers can zip the result against ids
// positionally.
func (r *Registry) GetParameters(ids []addressing.ParameterInstanceID) []ParameterReadResult {
	groups, unclaimed := r.groupByProvider(ids)

	results := make(map[addressing.ParameterInstanceID]ParameterReadResult, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for p, group := range groups {
		p, group := p, group
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got []ParameterReadResult
			p.call(func() { got = p.impl.GetParameterValues(group) })
			mu.Lock()
			for _, res := range got {
				results[res.ID] = res
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	out := make([]ParameterReadResult, len(ids))
	for i, id := range ids {
		if unclaimed[id] {
			out[i] = ParameterReadResult{ID: id, Code: status.ParameterNotProvided}
			continue
		}
		if res, ok := results[id]; ok {
			out[i] = res
		} else {
			out[i] = ParameterReadResult{ID: id, Code: status.ParameterValueUnavailable}
		}
	}
	return out
}

// SetParameterValues validates each request's value against the resolved
// model, then dispatches the validated subset to its claiming provider the
// same way GetParameters does. A request that fails validation never
// reaches its provider; its result carries the validation status code
// directly.
func (r *Registry) SetParameterValues(requests []ParameterWriteRequest) []ParameterWriteResult {
	out := make([]ParameterWriteResult, len(requests))
	valid := make([]ParameterWriteRequest, 0, len(requests))
	validIdx := make([]int, 0, len(requests))

	for i, req := range requests {
		code := r.validateWrite(req)
		if code != status.NoErrorYet {
			out[i] = ParameterWriteResult{ID: req.ID, Code: code}
			continue
		}
		valid = append(valid, req)
		validIdx = append(validIdx, i)
	}

	ids := make([]addressing.ParameterInstanceID, len(valid))
	for i, req := range valid {
		ids[i] = req.ID
	}
	groups, unclaimed := r.groupByProvider(ids)

	byProviderReqs := make(map[*registeredProvider][]ParameterWriteRequest, len(groups))
	for p, group := range groups {
		reqs := make([]ParameterWriteRequest, 0, len(group))
		for _, req := range valid {
			for _, id := range group {
				if req.ID == id {
					reqs = append(reqs, req)
					break
				}
			}
		}
		byProviderReqs[p] = reqs
	}

	results := make(map[addressing.ParameterInstanceID]ParameterWriteResult, len(valid))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for p, reqs := range byProviderReqs {
		p, reqs := p, reqs
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got []ParameterWriteResult
			p.call(func() { got = p.impl.SetParameterValues(reqs) })
			mu.Lock()
			for _, res := range got {
				results[res.ID] = res
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	for j, req := range valid {
		i := validIdx[j]
		if unclaimed[req.ID] {
			out[i] = ParameterWriteResult{ID: req.ID, Code: status.ParameterNotProvided}
			continue
		}
		if res, ok := results[req.ID]; ok {
			out[i] = res
		} else {
			out[i] = ParameterWriteResult{ID: req.ID, Code: status.CouldNotSetParameter}
		}
	}
	return out
}

// validateWrite checks req.Value's type, rank, pattern, range, and
// writeability against the resolved model before a write is allowed to
// reach its provider. A file_id-typed write additionally has to name a
// known, unexpired upload reservation for req.ID, per checkPendingUpload;
// on a match, passing validation here is what consumes that reservation.
func (r *Registry) validateWrite(req ParameterWriteRequest) status.Code {
	p, ok := r.model.ParameterByID(model.DefinitionID(req.ID.ID.DefinitionID()))
	if !ok {
		return status.UnknownParameterID
	}
	if !p.Writeable {
		return status.ParameterNotWriteable
	}
	if code := value.CheckParameterValue(req.Value, model.Constraint(p)); code != status.NoErrorYet {
		return code
	}
	if p.Type == value.FileID {
		return r.checkPendingUpload(req)
	}
	return status.NoErrorYet
}

// InvokeMethod validates args against the method's registered argument
// list, then dispatches to the claiming provider.
func (r *Registry) InvokeMethod(id addressing.ParameterInstanceID, args map[string]*value.Value) (map[string]*value.Value, status.Code) {
	p, ok := r.model.ParameterByID(model.DefinitionID(id.ID.DefinitionID()))
	if !ok {
		return nil, status.UnknownParameterID
	}
	if p.Type != value.Method {
		return nil, status.NotAMethod
	}
	md, ok := r.model.MethodArgs(p.ID)
	if !ok {
		return nil, status.NotAMethod
	}
	if len(args) != len(md.InArgs) {
		return nil, status.WrongArgumentCount
	}
	for _, arg := range md.InArgs {
		v, ok := args[arg.Name]
		if !ok {
			return nil, status.MissingArgument
		}
		if code := value.CheckParameterValue(v, model.ArgumentConstraint(&arg)); code != status.NoErrorYet {
			return nil, code
		}
	}

	r.mu.Lock()
	provider, ok := r.claims[id]
	r.mu.Unlock()
	if !ok {
		return nil, status.ParameterNotProvided
	}

	var out map[string]*value.Value
	var code status.Code
	provider.call(func() { out, code = provider.impl.InvokeMethod(id, args) })
	return out, code
}

// groupByProvider splits ids by claiming provider, reporting any id
// with no claiming provider separately. It takes r.mu itself rather than
// requiring the caller to hold it, since it is only ever called at the top
// of a dispatch operation.
func (r *Registry) groupByProvider(ids []addressing.ParameterInstanceID) (map[*registeredProvider][]addressing.ParameterInstanceID, map[addressing.ParameterInstanceID]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	groups := make(map[*registeredProvider][]addressing.ParameterInstanceID)
	unclaimed := make(map[addressing.ParameterInstanceID]bool)
	for _, id := range ids {
		p, ok := r.claims[id]
		if !ok {
			unclaimed[id] = true
			continue
		}
		groups[p] = append(groups[p], id)
	}
	return groups, unclaimed
}
