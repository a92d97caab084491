// Package backend implements the producer-facing IPC interface: the proxy
// a provider process uses to register the devices and parameters it
// offers, and the stub, hosted by wdxd, that applies those registrations
// to the running internal/registry.Registry. A registered provider's
// actual read/write/invoke traffic flows back over the same connection,
// in the opposite direction, via remoteProvider (see provider_wire.go) — wdxd
// proxies into the provider's own stub object rather than the provider
// proxying into wdxd for those calls.
package backend

import (
	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/registry"
)

// Method ids for the backend object (objectstore.Backend), server-side
// calls the client (provider process) makes.
const (
	MethodRegisterDevices uint32 = iota + 1
	MethodUnregisterDevices
	MethodUnregisterAllDevices
	MethodRegisterParameterProviders
	MethodUnregisterParameterProviders
	MethodRegisterDeviceExtensionProviders
	MethodUnregisterDeviceExtensionProviders
)

// Method ids wdxd calls back on a provider's own registered object, the
// reverse direction of traffic on the same connection.
const (
	MethodGetParameterValues uint32 = iota + 1
	MethodSetParameterValues
	MethodInvokeMethod
)

// DeviceRegistration names one device a provider offers.
type DeviceRegistration struct {
	Device addressing.DeviceID `json:"device"`
}

// DeviceRegistrationResult answers one DeviceRegistration.
type DeviceRegistrationResult struct {
	Device addressing.DeviceID `json:"device"`
	Code   int                 `json:"code"` // status.Code
}

// ProviderRegistration declares a provider's claims and the client-side
// object id wdxd proxies GetParameterValues/SetParameterValues/InvokeMethod
// calls to (that object must already be registered in the client's own
// objectstore as a backend.NewProviderStub before this call is sent).
type ProviderRegistration struct {
	DisplayName      string                         `json:"display_name"`
	CallMode         registry.CallMode              `json:"call_mode"`
	ClaimedSelectors []addressing.ParameterSelector `json:"claimed_selectors"`
	ObjectID         uint32                         `json:"object_id"`
}

// ProviderRegistrationResult answers one ProviderRegistration. Code is
// status.ProviderNotOperational on failure (a claim collision or a
// duplicate display name), status.Success otherwise.
type ProviderRegistrationResult struct {
	DisplayName string `json:"display_name"`
	Code        int    `json:"code"`
}

type registerDevicesRequest struct {
	Devices []DeviceRegistration `json:"devices"`
}

type registerDevicesResponse struct {
	Results []DeviceRegistrationResult `json:"results"`
}

type unregisterDevicesRequest struct {
	Devices []addressing.DeviceID `json:"devices"`
}

type unregisterAllDevicesRequest struct {
	Collection addressing.Collection `json:"collection"`
}

type registerProvidersRequest struct {
	Providers []ProviderRegistration `json:"providers"`
}

type registerProvidersResponse struct {
	Results []ProviderRegistrationResult `json:"results"`
}

type unregisterProvidersRequest struct {
	DisplayNames []string `json:"display_names"`
}

// DeviceExtensionRegistration names a device-extension provider. Unlike
// ProviderRegistration it carries no ObjectID: a device-extension provider
// has no concrete callback contract (the original interface it descends
// from forward-declares device_extension_provider_i with no methods), so
// registering one is pure bookkeeping on wdxd's side.
type DeviceExtensionRegistration struct {
	DisplayName string `json:"display_name"`
}

// DeviceExtensionRegistrationResult reports the outcome of registering one
// DeviceExtensionRegistration.
type DeviceExtensionRegistrationResult struct {
	DisplayName string `json:"display_name"`
	Code        int    `json:"code"`
}

type registerDeviceExtensionProvidersRequest struct {
	Providers []DeviceExtensionRegistration `json:"providers"`
}

type registerDeviceExtensionProvidersResponse struct {
	Results []DeviceExtensionRegistrationResult `json:"results"`
}

type unregisterDeviceExtensionProvidersRequest struct {
	DisplayNames []string `json:"display_names"`
}
