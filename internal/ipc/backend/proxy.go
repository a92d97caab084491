package backend

import (
	"fmt"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/asyncresult"
	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
)

// Proxy is the client-side handle a provider process uses to register its
// devices and parameters with wdxd's backend object (objectstore.Backend).
// Every call blocks until answered; callers on an event loop of their own
// should run these from a worker goroutine rather than their own driver's
// Run loop.
type Proxy struct {
	d *driver.Driver
}

// NewProxy returns a Proxy that issues calls over d to objectstore.Backend.
func NewProxy(d *driver.Driver) *Proxy {
	return &Proxy{d: d}
}

// RegisterDevices registers every device in devices and returns one result
// per device, in order.
func (p *Proxy) RegisterDevices(devices []addressing.DeviceID) ([]DeviceRegistrationResult, error) {
	regs := make([]DeviceRegistration, len(devices))
	for i, d := range devices {
		regs[i] = DeviceRegistration{Device: d}
	}
	msg, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodRegisterDevices, registerDevicesRequest{Devices: regs}))
	if err != nil {
		return nil, fmt.Errorf("backend: register devices: %w", err)
	}
	var resp registerDevicesResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UnregisterDevices unregisters every device in devices.
func (p *Proxy) UnregisterDevices(devices []addressing.DeviceID) error {
	_, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodUnregisterDevices, unregisterDevicesRequest{Devices: devices}))
	return err
}

// UnregisterAllDevices unregisters every device this connection registered
// in the given collection.
func (p *Proxy) UnregisterAllDevices(collection addressing.Collection) error {
	_, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodUnregisterAllDevices, unregisterAllDevicesRequest{Collection: collection}))
	return err
}

// RegisterProviders registers every provider in providers; each
// registration's ObjectID must already be registered in the caller's own
// object store as a backend.NewProviderStub-wrapped implementation.
func (p *Proxy) RegisterProviders(providers []ProviderRegistration) ([]ProviderRegistrationResult, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodRegisterParameterProviders, registerProvidersRequest{Providers: providers}))
	if err != nil {
		return nil, fmt.Errorf("backend: register providers: %w", err)
	}
	var resp registerProvidersResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UnregisterProviders unregisters the named providers.
func (p *Proxy) UnregisterProviders(displayNames []string) error {
	_, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodUnregisterParameterProviders, unregisterProvidersRequest{DisplayNames: displayNames}))
	return err
}

// RegisterDeviceExtensionProviders registers device-extension providers,
// the analogous pair to RegisterProviders for the device-extension kind.
func (p *Proxy) RegisterDeviceExtensionProviders(providers []DeviceExtensionRegistration) ([]DeviceExtensionRegistrationResult, error) {
	msg, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodRegisterDeviceExtensionProviders, registerDeviceExtensionProvidersRequest{Providers: providers}))
	if err != nil {
		return nil, fmt.Errorf("backend: register device extension providers: %w", err)
	}
	var resp registerDeviceExtensionProvidersResponse
	if err := msg.DecodeJSON(&resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// UnregisterDeviceExtensionProviders withdraws the named device-extension
// providers.
func (p *Proxy) UnregisterDeviceExtensionProviders(displayNames []string) error {
	_, err := asyncresult.Await(p.d.Call(objectstore.Backend, MethodUnregisterDeviceExtensionProviders, unregisterDeviceExtensionProvidersRequest{DisplayNames: displayNames}))
	return err
}
