package backend

import (
	"context"
	"sync"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/ipc/driver"
)

// Client wraps Proxy with the bookkeeping internal/ipc/reconnect needs to
// replay backend registrations after a reconnect: spec.md requires that
// "after reconnect, the backend proxy replays its state: all
// currently-registered devices and all currently-registered providers are
// re-registered with the remote side before any new call is sent." Client
// remembers every device and provider its caller has registered (until
// explicitly unregistered) so its Replay method — passed as a
// reconnect.ReplayFunc — can re-issue them against the fresh connection.
type Client struct {
	mu               sync.Mutex
	devices          map[addressing.DeviceID]struct{}
	providers        map[string]ProviderRegistration
	deviceExtensions map[string]DeviceExtensionRegistration
}

// NewClient returns an empty Client.
func NewClient() *Client {
	return &Client{
		devices:          make(map[addressing.DeviceID]struct{}),
		providers:        make(map[string]ProviderRegistration),
		deviceExtensions: make(map[string]DeviceExtensionRegistration),
	}
}

// RegisterDevices registers devices over p and remembers them for replay.
func (c *Client) RegisterDevices(p *Proxy, devices []addressing.DeviceID) ([]DeviceRegistrationResult, error) {
	results, err := p.RegisterDevices(devices)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, d := range devices {
		c.devices[d] = struct{}{}
	}
	c.mu.Unlock()
	return results, nil
}

// UnregisterDevices unregisters devices over p and forgets them.
func (c *Client) UnregisterDevices(p *Proxy, devices []addressing.DeviceID) error {
	if err := p.UnregisterDevices(devices); err != nil {
		return err
	}
	c.mu.Lock()
	for _, d := range devices {
		delete(c.devices, d)
	}
	c.mu.Unlock()
	return nil
}

// RegisterProviders registers providers over p and remembers them for
// replay, keyed by DisplayName (mirroring the server side's own
// uniqueness constraint on that field).
func (c *Client) RegisterProviders(p *Proxy, providers []ProviderRegistration) ([]ProviderRegistrationResult, error) {
	results, err := p.RegisterProviders(providers)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, reg := range providers {
		c.providers[reg.DisplayName] = reg
	}
	c.mu.Unlock()
	return results, nil
}

// UnregisterProviders unregisters the named providers over p and forgets
// them.
func (c *Client) UnregisterProviders(p *Proxy, displayNames []string) error {
	if err := p.UnregisterProviders(displayNames); err != nil {
		return err
	}
	c.mu.Lock()
	for _, name := range displayNames {
		delete(c.providers, name)
	}
	c.mu.Unlock()
	return nil
}

// RegisterDeviceExtensionProviders registers device-extension providers
// over p and remembers them for replay, keyed by DisplayName.
func (c *Client) RegisterDeviceExtensionProviders(p *Proxy, providers []DeviceExtensionRegistration) ([]DeviceExtensionRegistrationResult, error) {
	results, err := p.RegisterDeviceExtensionProviders(providers)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, reg := range providers {
		c.deviceExtensions[reg.DisplayName] = reg
	}
	c.mu.Unlock()
	return results, nil
}

// UnregisterDeviceExtensionProviders unregisters the named device-extension
// providers over p and forgets them.
func (c *Client) UnregisterDeviceExtensionProviders(p *Proxy, displayNames []string) error {
	if err := p.UnregisterDeviceExtensionProviders(displayNames); err != nil {
		return err
	}
	c.mu.Lock()
	for _, name := range displayNames {
		delete(c.deviceExtensions, name)
	}
	c.mu.Unlock()
	return nil
}

// Replay re-registers every device and provider remembered so far against
// d, the fresh connection a reconnect.Manager just established. It
// satisfies reconnect.ReplayFunc's signature.
func (c *Client) Replay(ctx context.Context, d *driver.Driver) error {
	c.mu.Lock()
	devices := make([]addressing.DeviceID, 0, len(c.devices))
	for dv := range c.devices {
		devices = append(devices, dv)
	}
	providers := make([]ProviderRegistration, 0, len(c.providers))
	for _, reg := range c.providers {
		providers = append(providers, reg)
	}
	deviceExtensions := make([]DeviceExtensionRegistration, 0, len(c.deviceExtensions))
	for _, reg := range c.deviceExtensions {
		deviceExtensions = append(deviceExtensions, reg)
	}
	c.mu.Unlock()

	p := NewProxy(d)
	if len(devices) > 0 {
		if _, err := p.RegisterDevices(devices); err != nil {
			return err
		}
	}
	if len(providers) > 0 {
		if _, err := p.RegisterProviders(providers); err != nil {
			return err
		}
	}
	if len(deviceExtensions) > 0 {
		if _, err := p.RegisterDeviceExtensionProviders(deviceExtensions); err != nil {
			return err
		}
	}
	return nil
}
