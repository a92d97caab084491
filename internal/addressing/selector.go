package addressing

import "encoding/json"

// DeviceSelector describes a (possibly not-yet-registered) set of devices:
// every device, every device of one collection, or one specific device.
// Evaluated lazily — a provider's claimed selector is checked against each
// device as it registers, not just the devices present when the selector
// was built.
// The zero value is AnyDevice, so a ParameterFilter built from a single
// toggle (e.g. OnlyWriteable()) leaves its embedded DeviceSelector
// unrestricted without callers needing to set it explicitly — mirroring
// the original request API, where parameter_filter::_device defaults to
// device_selector::any.
type DeviceSelector struct {
	device       DeviceID
	isSpecific   bool
	isCollection bool
}

// AnyDevice selects every device, including ones registered later.
var AnyDevice = DeviceSelector{}

// HeadstationSelector selects the controller itself.
func HeadstationSelector() DeviceSelector {
	return DeviceSelector{device: Headstation, isSpecific: true}
}

// AllOfCollection selects every device of the given collection.
func AllOfCollection(collection Collection) DeviceSelector {
	return DeviceSelector{device: DeviceID{Collection: collection}, isCollection: true}
}

// SpecificDevice selects exactly one device.
func SpecificDevice(device DeviceID) DeviceSelector {
	return DeviceSelector{device: device, isSpecific: true}
}

// IsAny reports whether s selects every device.
func (s DeviceSelector) IsAny() bool { return !s.isSpecific && !s.isCollection }

// IsCollection reports whether s selects a whole collection.
func (s DeviceSelector) IsCollection() bool { return s.isCollection }

// SelectedDevice returns the device s names (specific selectors), or the
// collection's DeviceID{Collection: c} placeholder (collection selectors).
// Meaningless for AnyDevice.
func (s DeviceSelector) SelectedDevice() DeviceID { return s.device }

// wireDeviceSelector is DeviceSelector's JSON shape: its fields are
// unexported so lazily-evaluated selectors can't be constructed wrong by
// callers reaching past the AnyDevice/AllOfCollection/SpecificDevice
// constructors, but that same privacy would silently marshal to `{}` and
// lose the selection over the wire without this explicit round trip.
type wireDeviceSelector struct {
	Device       DeviceID `json:"device"`
	IsSpecific   bool     `json:"is_specific"`
	IsCollection bool     `json:"is_collection"`
}

func (s DeviceSelector) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDeviceSelector{Device: s.device, IsSpecific: s.isSpecific, IsCollection: s.isCollection})
}

func (s *DeviceSelector) UnmarshalJSON(data []byte) error {
	var w wireDeviceSelector
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.device, s.isSpecific, s.isCollection = w.Device, w.IsSpecific, w.IsCollection
	return nil
}

// Matches reports whether device is selected by s.
func (s DeviceSelector) Matches(device DeviceID) bool {
	switch {
	case s.isCollection:
		return device.Collection == s.device.Collection
	case s.isSpecific:
		return device == s.device
	default:
		return true
	}
}

// ParameterSelectorKind distinguishes the four ways to name a set of
// parameter instances.
type ParameterSelectorKind uint8

const (
	SelectFeature ParameterSelectorKind = iota
	SelectClass
	SelectDefinition
	SelectDeviceCollection
)

// ParameterSelector names a subset of parameter instances, optionally
// narrowed to a DeviceSelector.
type ParameterSelector struct {
	Kind         ParameterSelectorKind
	Name         string // feature or class name, for SelectFeature/SelectClass
	DefinitionID ParameterID
	Devices      DeviceSelector
}

// AllOfFeature selects every parameter instance of the named feature.
func AllOfFeature(feature string, devices DeviceSelector) ParameterSelector {
	return ParameterSelector{Kind: SelectFeature, Name: feature, Devices: devices}
}

// AllOfClass selects every parameter instance of the named class,
// regardless of instance id.
func AllOfClass(class string, devices DeviceSelector) ParameterSelector {
	return ParameterSelector{Kind: SelectClass, Name: class, Devices: devices}
}

// AllWithDefinition selects every parameter instance of the given
// definition, regardless of instance id.
func AllWithDefinition(definitionID ParameterID, devices DeviceSelector) ParameterSelector {
	return ParameterSelector{Kind: SelectDefinition, DefinitionID: definitionID, Devices: devices}
}

// AllOfDevices selects every parameter instance on matching devices.
func AllOfDevices(devices DeviceSelector) ParameterSelector {
	return ParameterSelector{Kind: SelectDeviceCollection, Devices: devices}
}
