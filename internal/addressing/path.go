package addressing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParameterInstancePath is the human-readable alternative to
// ParameterInstanceID. ParameterPath's segments are delimited by '/'; if
// the parameter is defined on a class, the full path is
// "<classBasePath>/<instanceId>/<parameterPath>". Matching is
// case-insensitive.
type ParameterInstancePath struct {
	ParameterPath string
	DevicePath    string // "<collection>-<slot>", "" or "0-0" for the head station
}

// Equal compares two paths the way the firmware does: device paths exactly,
// parameter paths case-insensitively (and only once their lengths match, a
// cheap early-out before the case-fold compare).
func (p ParameterInstancePath) Equal(other ParameterInstancePath) bool {
	return len(p.ParameterPath) == len(other.ParameterPath) &&
		p.DevicePath == other.DevicePath &&
		strings.EqualFold(p.ParameterPath, other.ParameterPath)
}

// Device parses p's DevicePath, defaulting to the head station.
func (p ParameterInstancePath) Device() (DeviceID, error) {
	return ParseDeviceID(p.DevicePath)
}

// URLPath renders the combined, lowercased, dash-joined form used by the
// URL-facing REST layer: "<device_path>-<segments joined by '-'>".
func (p ParameterInstancePath) URLPath() string {
	device, _ := p.Device()
	segments := strings.Split(p.ParameterPath, "/")
	return strings.ToLower(device.String() + "-" + strings.Join(segments, "-"))
}

// ParseURLPath reverses ParameterInstancePath.URLPath: the first two
// dash-separated tokens are the device's collection and slot: the
// remainder, rejoined with '/', is the parameter path. The original case is
// not restored, and a '-' inside a path segment comes back as '/'.
func ParseURLPath(s string) (ParameterInstancePath, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return ParameterInstancePath{}, fmt.Errorf("addressing: malformed parameter instance path %q", s)
	}
	if _, err := strconv.ParseUint(parts[0], 10, 8); err != nil {
		return ParameterInstancePath{}, fmt.Errorf("addressing: malformed device collection in %q: %w", s, err)
	}
	if _, err := strconv.ParseUint(parts[1], 10, 16); err != nil {
		return ParameterInstancePath{}, fmt.Errorf("addressing: malformed device slot in %q: %w", s, err)
	}
	return ParameterInstancePath{
		DevicePath:    parts[0] + "-" + parts[1],
		ParameterPath: strings.Join(parts[2:], "/"),
	}, nil
}
