package addressing

import (
	"strings"

	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/value"
)

// noFeatureAllowed is inserted into OnlyFeatures when combining two filters
// narrows the common feature set to empty, so the combined filter matches
// nothing rather than (incorrectly) falling back to "no restriction".
const noFeatureAllowed = "no_feature_allowed_by_filter"

// ParameterFilter is a set of toggles get_all_parameters applies to narrow
// which parameter instances are returned. The zero value matches every
// parameter on every device. Combine two filters with Merge — the result
// requires what either side required ("|" composes by AND, not OR, per the
// original request API).
type ParameterFilter struct {
	Devices DeviceSelector

	WithoutUserSettings bool
	OnlyUserSettings    bool
	WithoutWriteable    bool
	OnlyWriteable       bool
	WithoutMethods      bool
	OnlyMethods         bool
	WithoutFileIDs      bool
	OnlyFileIDs         bool
	WithoutBeta         bool
	OnlyBeta            bool
	WithoutDeprecated   bool
	OnlyDeprecated      bool

	OnlyFeatures map[string]bool
	OnlySubpath  string
}

// AnyParameter matches every parameter on every device.
var AnyParameter = ParameterFilter{Devices: AnyDevice}

func OnlyDevice(selector DeviceSelector) ParameterFilter  { return ParameterFilter{Devices: selector} }
func WithoutUserSettings() ParameterFilter                { return ParameterFilter{WithoutUserSettings: true} }
func OnlyUserSettings() ParameterFilter                   { return ParameterFilter{OnlyUserSettings: true} }
func WithoutWriteable() ParameterFilter                   { return ParameterFilter{WithoutWriteable: true} }
func OnlyWriteable() ParameterFilter                      { return ParameterFilter{OnlyWriteable: true} }
func WithoutMethods() ParameterFilter                     { return ParameterFilter{WithoutMethods: true} }
func OnlyMethods() ParameterFilter                        { return ParameterFilter{OnlyMethods: true} }
func WithoutFileIDs() ParameterFilter                     { return ParameterFilter{WithoutFileIDs: true} }
func OnlyFileIDs() ParameterFilter                        { return ParameterFilter{OnlyFileIDs: true} }
func WithoutBeta() ParameterFilter                        { return ParameterFilter{WithoutBeta: true} }
func OnlyBeta() ParameterFilter                           { return ParameterFilter{OnlyBeta: true} }
func WithoutDeprecated() ParameterFilter                  { return ParameterFilter{WithoutDeprecated: true} }
func OnlyDeprecated() ParameterFilter                     { return ParameterFilter{OnlyDeprecated: true} }

// OnlyFeature matches only parameters of the named feature.
func OnlyFeature(name string) ParameterFilter {
	return ParameterFilter{OnlyFeatures: map[string]bool{name: true}}
}

// OnlyFeaturesSet matches only parameters of one of the named features.
func OnlyFeaturesSet(names ...string) ParameterFilter {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return ParameterFilter{OnlyFeatures: set}
}

// OnlySubpath matches only parameters whose path starts with prefix.
func OnlySubpath(prefix string) ParameterFilter {
	return ParameterFilter{OnlySubpath: prefix}
}

// Merge combines f with other, requiring what either side required. Where
// OnlyFeatures is set on both sides, the result is their intersection,
// replaced by a set holding only a never-matching sentinel name if that
// intersection is empty — a filter narrowed to nothing stays narrowed to
// nothing rather than silently reverting to "no restriction".
func (f ParameterFilter) Merge(other ParameterFilter) ParameterFilter {
	m := f
	if !other.Devices.IsAny() {
		m.Devices = other.Devices
	}
	m.WithoutUserSettings = m.WithoutUserSettings || other.WithoutUserSettings
	m.OnlyUserSettings = m.OnlyUserSettings || other.OnlyUserSettings
	m.WithoutWriteable = m.WithoutWriteable || other.WithoutWriteable
	m.OnlyWriteable = m.OnlyWriteable || other.OnlyWriteable
	m.WithoutMethods = m.WithoutMethods || other.WithoutMethods
	m.OnlyMethods = m.OnlyMethods || other.OnlyMethods
	m.WithoutFileIDs = m.WithoutFileIDs || other.WithoutFileIDs
	m.OnlyFileIDs = m.OnlyFileIDs || other.OnlyFileIDs
	m.WithoutBeta = m.WithoutBeta || other.WithoutBeta
	m.OnlyBeta = m.OnlyBeta || other.OnlyBeta
	m.WithoutDeprecated = m.WithoutDeprecated || other.WithoutDeprecated
	m.OnlyDeprecated = m.OnlyDeprecated || other.OnlyDeprecated

	if len(other.OnlyFeatures) > 0 {
		if len(m.OnlyFeatures) == 0 {
			m.OnlyFeatures = other.OnlyFeatures
		} else {
			common := map[string]bool{}
			for name := range m.OnlyFeatures {
				if other.OnlyFeatures[name] {
					common[name] = true
				}
			}
			if len(common) == 0 {
				common[noFeatureAllowed] = true
			} else {
				delete(common, noFeatureAllowed)
			}
			m.OnlyFeatures = common
		}
	}
	if other.OnlySubpath != "" {
		m.OnlySubpath = other.OnlySubpath
	}
	return m
}

// Matches reports whether p, owned by the given device and feature name
// (empty if p belongs directly to a class outside any feature grouping),
// passes every toggle set on f.
func Matches(f ParameterFilter, p *model.ParameterDefinition, device DeviceID, featureName string) bool {
	if !f.Devices.IsAny() && !f.Devices.Matches(device) {
		return false
	}
	if f.WithoutUserSettings && p.UserSetting {
		return false
	}
	if f.OnlyUserSettings && !p.UserSetting {
		return false
	}
	if f.WithoutWriteable && p.Writeable {
		return false
	}
	if f.OnlyWriteable && !p.Writeable {
		return false
	}
	isMethod := p.Type == value.Method
	if f.WithoutMethods && isMethod {
		return false
	}
	if f.OnlyMethods && !isMethod {
		return false
	}
	isFileID := p.Type == value.FileID
	if f.WithoutFileIDs && isFileID {
		return false
	}
	if f.OnlyFileIDs && !isFileID {
		return false
	}
	if f.WithoutBeta && p.IsBeta {
		return false
	}
	if f.OnlyBeta && !p.IsBeta {
		return false
	}
	if f.WithoutDeprecated && p.IsDeprecated {
		return false
	}
	if f.OnlyDeprecated && !p.IsDeprecated {
		return false
	}
	if len(f.OnlyFeatures) > 0 && !f.OnlyFeatures[featureName] {
		return false
	}
	if f.OnlySubpath != "" && !strings.HasPrefix(strings.ToLower(p.Path), strings.ToLower(f.OnlySubpath)) {
		return false
	}
	return true
}
