package addressing

import (
	"fmt"
	"strconv"
	"strings"
)

// InstanceIDDynamicPlaceholder is the instance id a dynamic class's single
// placeholder instance carries until it is populated with real instances.
const InstanceIDDynamicPlaceholder uint16 = 0xFFFF

// InstanceIDMax is the largest instance id available for a real instance.
const InstanceIDMax uint16 = 0xFFFE

// ParameterInstanceID addresses one parameter instance on one device: a
// definition id, disambiguated by an instance id for parameters that exist
// more than once per device (e.g. once per channel of a module).
type ParameterInstanceID struct {
	ID         ParameterID
	InstanceID uint16
	Device     DeviceID
}

// EqualsIgnoringDevice compares id and instance id only, ignoring which
// device they're on.
func (p ParameterInstanceID) EqualsIgnoringDevice(other ParameterInstanceID) bool {
	return p.ID == other.ID && p.InstanceID == other.InstanceID
}

// Less orders by device, then definition id, then instance id — matching
// the firmware's operator< (used for deterministic response ordering).
func (p ParameterInstanceID) Less(other ParameterInstanceID) bool {
	if p.Device != other.Device {
		return p.Device.Less(other.Device)
	}
	if p.ID != other.ID {
		return p.ID < other.ID
	}
	return p.InstanceID < other.InstanceID
}

// String renders p as "<collection>-<slot>-<paramId>-<instId>".
func (p ParameterInstanceID) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", p.Device.Collection, p.Device.Slot, p.ID, p.InstanceID)
}

// ParseParameterInstanceID parses the "<coll>-<slot>-<paramId>-<instId>"
// form produced by String, the exact inverse.
func ParseParameterInstanceID(s string) (ParameterInstanceID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return ParameterInstanceID{}, fmt.Errorf("addressing: malformed parameter instance id %q", s)
	}
	coll, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return ParameterInstanceID{}, fmt.Errorf("addressing: malformed collection in %q: %w", s, err)
	}
	slot, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return ParameterInstanceID{}, fmt.Errorf("addressing: malformed slot in %q: %w", s, err)
	}
	paramID, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return ParameterInstanceID{}, fmt.Errorf("addressing: malformed parameter id in %q: %w", s, err)
	}
	instID, err := strconv.ParseUint(parts[3], 10, 16)
	if err != nil {
		return ParameterInstanceID{}, fmt.Errorf("addressing: malformed instance id in %q: %w", s, err)
	}
	return ParameterInstanceID{
		ID:         ParameterID(paramID),
		InstanceID: uint16(instID),
		Device:     DeviceID{Collection: Collection(coll), Slot: uint16(slot)},
	}, nil
}
