package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/registry/claimcache"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
	"github.com/wago-dev/wdx/pkg/util"
)

// ParameterProvider is the registry-facing half of the provider contract: a
// provider implementation the IPC backend stub dispatches into once its
// ProviderEntry has been registered.
type ParameterProvider interface {
	GetParameterValues(ids []addressing.ParameterInstanceID) []ParameterReadResult
	SetParameterValues(requests []ParameterWriteRequest) []ParameterWriteResult
	InvokeMethod(id addressing.ParameterInstanceID, args map[string]*value.Value) (map[string]*value.Value, status.Code)
}

type registeredProvider struct {
	entry ProviderEntry
	impl  ParameterProvider

	// callMu serializes calls into impl when entry.CallMode is Serialized.
	// Concurrent-mode providers never touch it, so concurrent calls never
	// block each other on this provider's account.
	callMu sync.Mutex
}

func (p *registeredProvider) call(f func()) {
	if p.entry.CallMode == Serialized {
		p.callMu.Lock()
		defer p.callMu.Unlock()
	}
	f()
}

// Registry tracks provider claims against the resolved device model and
// dispatches reads, writes, and method invocations to the claiming
// provider. One Registry serves one running wdxd process; the backend IPC
// stub is its only caller.
type Registry struct {
	mu sync.Mutex

	model *model.Model

	devices   map[addressing.DeviceID]bool
	providers map[string]*registeredProvider // keyed by ProviderEntry.DisplayName

	// claims maps a claimed parameter instance to the provider that
	// claims it, recomputed whenever a provider registers/unregisters or
	// a device registers/unregisters, since selectors are resolved
	// against the model's feature/class membership plus the live device
	// set, not fixed at claim time.
	claims map[addressing.ParameterInstanceID]*registeredProvider

	pendingUploads map[string]*PendingUpload

	mirror *claimcache.Mirror
}

// New returns an empty Registry bound to m. m must already have had
// ResolveAll called on it; the registry consults it read-only to expand
// feature/class selectors into concrete parameter ids.
func New(m *model.Model) *Registry {
	return &Registry{
		model:          m,
		devices:        make(map[addressing.DeviceID]bool),
		providers:      make(map[string]*registeredProvider),
		claims:         make(map[addressing.ParameterInstanceID]*registeredProvider),
		pendingUploads: make(map[string]*PendingUpload),
	}
}

// SetClaimCache installs mirror as the registry's optional Redis claim
// mirror. A nil mirror (the default) leaves claim mirroring disabled; the
// registry never requires one to function.
func (r *Registry) SetClaimCache(mirror *claimcache.Mirror) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror = mirror
}

// RegisterDevice adds device to the live device set and re-evaluates every
// provider's claimed selectors against it, so a provider that claimed
// AllOfFeature("power", addressing.AllOfCollection(addressing.KBusCollection))
// before the device connected picks up its parameters the moment it does.
func (r *Registry) RegisterDevice(id addressing.DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[id] = true
	for _, p := range r.providers {
		r.claimDeviceLocked(p, id)
	}
}

// UnregisterDevice drops device from the live set and releases every claim
// held against it.
func (r *Registry) UnregisterDevice(id addressing.DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
	for instID := range r.claims {
		if instID.Device == id {
			delete(r.claims, instID)
		}
	}
	r.mirror.ClearDevice(id.String())
}

// RegisterProvider registers entry and its implementation, claiming every
// parameter instance entry.ClaimedSelectors resolves to against the
// currently live device set. Returns an error wrapping
// errParameterAlreadyProvided if doing so would claim a parameter
// instance another provider already claims, or a plain error if
// DisplayName collides with an existing provider. The IPC backend stub
// reports either failure as status.ProviderNotOperational.
func (r *Registry) RegisterProvider(entry ProviderEntry, impl ParameterProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[entry.DisplayName]; exists {
		return fmt.Errorf("registry: provider %q already registered", entry.DisplayName)
	}

	rp := &registeredProvider{entry: entry, impl: impl}

	// Dry-run the claim against every live device first: a provider that
	// would steal even one parameter instance from an existing provider
	// is rejected wholesale, not partially registered.
	for device := range r.devices {
		for _, instID := range r.resolveSelectorsLocked(entry.ClaimedSelectors, device) {
			if owner, claimed := r.claims[instID]; claimed {
				return fmt.Errorf("registry: %w: %s already provided by %q",
					errParameterAlreadyProvided, instID, owner.entry.DisplayName)
			}
		}
	}

	r.providers[entry.DisplayName] = rp
	for device := range r.devices {
		r.claimDeviceLocked(rp, device)
	}
	util.WithField("provider", entry.DisplayName).WithField("callMode", entry.CallMode.String()).
		Info("registry: provider registered")
	return nil
}

// UnregisterProvider releases every claim held by displayName and removes
// it from the registry.
func (r *Registry) UnregisterProvider(displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rp, ok := r.providers[displayName]
	if !ok {
		return
	}
	delete(r.providers, displayName)
	for instID, owner := range r.claims {
		if owner == rp {
			delete(r.claims, instID)
			r.mirror.ClearClaim(instID.Device.String(), instID.String())
		}
	}
	util.WithField("provider", displayName).Info("registry: provider unregistered")
}

// claimDeviceLocked resolves p's selectors against device and records any
// newly-matched, not-yet-claimed parameter instances. Called with r.mu
// held. Collisions here (a second provider's selector newly matching a
// device another provider already claims against) are resolved
// first-claimed-wins and logged, since RegisterProvider already rejected
// colliding claims against devices live at registration time.
func (r *Registry) claimDeviceLocked(p *registeredProvider, device addressing.DeviceID) {
	for _, instID := range r.resolveSelectorsLocked(p.entry.ClaimedSelectors, device) {
		if _, claimed := r.claims[instID]; claimed {
			continue
		}
		r.claims[instID] = p
		r.mirror.SetClaim(device.String(), instID.String(), p.entry.DisplayName)
	}
}

// resolveSelectorsLocked expands selectors into the parameter instance ids
// they name on device, consulting the resolved model for feature/class
// membership. Called with r.mu held.
func (r *Registry) resolveSelectorsLocked(selectors []addressing.ParameterSelector, device addressing.DeviceID) []addressing.ParameterInstanceID {
	var out []addressing.ParameterInstanceID
	for _, sel := range selectors {
		if !sel.Devices.IsAny() && !sel.Devices.Matches(device) {
			continue
		}
		switch sel.Kind {
		case addressing.SelectDeviceCollection:
			continue // a pure device-collection selector claims no parameters by itself.
		case addressing.SelectDefinition:
			out = append(out, addressing.ParameterInstanceID{ID: sel.DefinitionID, Device: device})
		case addressing.SelectFeature:
			feat, ok := r.model.Feature(sel.Name)
			if !ok {
				continue
			}
			for _, p := range feat.ResolvedParameterDefinitions() {
				out = append(out, r.instanceIDsForLocked(p, device)...)
			}
			// A feature's own parameter list never includes its classes':
			// Model.ResolveAll only unions class *names* into
			// FeatureDefinition.Classes, so a feature selector must walk
			// each named class's resolved parameters itself.
			for _, className := range feat.Classes {
				cls, ok := r.model.Class(className)
				if !ok {
					continue
				}
				for _, p := range cls.ResolvedParameterDefinitions() {
					out = append(out, r.instanceIDsForLocked(p, device)...)
				}
			}
		case addressing.SelectClass:
			cls, ok := r.model.Class(sel.Name)
			if !ok {
				continue
			}
			for _, p := range cls.ResolvedParameterDefinitions() {
				out = append(out, r.instanceIDsForLocked(p, device)...)
			}
		}
	}
	return out
}

// instanceIDsForLocked expands one resolved parameter definition to the
// instance ids it occupies on device. The model does not track live
// instantiation counts per device, so every parameter, instance-keyed or
// not, expands to the single id {p.ID, device}; per-instance claiming
// beyond that is a provider-side concern expressed through explicit
// SelectDefinition selectors.
func (r *Registry) instanceIDsForLocked(p *model.ParameterDefinition, device addressing.DeviceID) []addressing.ParameterInstanceID {
	return []addressing.ParameterInstanceID{{ID: addressing.ParameterID(p.ID), Device: device}}
}

// Model returns the resolved device model the registry consults, so the
// frontend stub can enumerate feature/class parameters directly rather
// than duplicating that knowledge.
func (r *Registry) Model() *model.Model {
	return r.model
}

// Devices returns every currently-registered device id, in Less order.
func (r *Registry) Devices() []addressing.DeviceID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]addressing.DeviceID, 0, len(r.devices))
	for id := range r.devices {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// ProviderFor returns the provider claiming id, if any.
func (r *Registry) ProviderFor(id addressing.ParameterInstanceID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.claims[id]
	if !ok {
		return "", false
	}
	return p.entry.DisplayName, true
}
