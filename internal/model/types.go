// Package model resolves parsed feature/class/enum/parameter definitions
// into the flattened resolved_* triples used by the registry and value
// validator: transitive include resolution, override propagation, and
// cross-reference linking (enum, class, and feature back-references).
package model

import "github.com/wago-dev/wdx/internal/value"

// DefinitionID is the 16-bit id a parameter carries within its owner,
// before a device-collection/slot prefix is applied to form a full
// ParameterID (see package internal/addressing).
type DefinitionID = uint16

// OverrideableAttributes are the parameter attributes a WDD or an
// including owner may override on top of a parameter's own declaration.
// Each field pairs a value with an explicit "set" flag so OverrideWith can
// tell "not present" from "present but zero".
type OverrideableAttributes struct {
	Pattern    string
	PatternSet bool

	Inactive    bool
	InactiveSet bool

	DefaultValue *value.Value

	AllowedValues    *value.AllowedValues
	AllowedValuesSet bool

	AllowedLength    *value.AllowedValues
	AllowedLengthSet bool
}

// OverrideWith applies other on top of a, field by field, wherever other
// has the corresponding *Set flag (or, for DefaultValue, wherever other
// has a non-nil value). Later calls win: callers apply overrides in the
// order they should take effect, not in resolution order.
func (a *OverrideableAttributes) OverrideWith(other OverrideableAttributes) {
	if other.PatternSet {
		a.Pattern = other.Pattern
		a.PatternSet = true
	}
	if other.InactiveSet {
		a.Inactive = other.Inactive
		a.InactiveSet = true
	}
	if other.DefaultValue != nil {
		a.DefaultValue = other.DefaultValue
	}
	if other.AllowedValuesSet {
		a.AllowedValues = other.AllowedValues
		a.AllowedValuesSet = true
	}
	if other.AllowedLengthSet {
		a.AllowedLength = other.AllowedLength
		a.AllowedLengthSet = true
	}
}

// Override is a named owner's (or a WDD's, when OwnerName is empty)
// override of one parameter's overrideable attributes.
type Override struct {
	OwnerName    string
	DefinitionID DefinitionID
	Attributes   OverrideableAttributes
}

// ParameterDefinition describes one parameter owned by a feature or class.
type ParameterDefinition struct {
	ID          DefinitionID
	Path        string
	Type        value.Type
	Rank        value.Rank
	OnlyOnline  bool
	UserSetting bool
	Writeable   bool
	InstanceKey bool

	EnumName  string   // for Type == EnumMember
	RefClasses []string // for Type == InstanceRef / InstanceIdentityRef

	// Resolved during Model.Resolve / Model.PrepareAttributes.
	EnumDef       *EnumDefinition
	ClassDef      *ClassDefinition
	FeatureDef    *FeatureDefinition
	RefClassesDef []*ClassDefinition

	Overrideables OverrideableAttributes

	IsBeta       bool
	IsDeprecated bool
}

// MethodArgumentDefinition describes one in- or out-argument of a method.
type MethodArgumentDefinition struct {
	Name         string
	Type         value.Type
	Rank         value.Rank
	DefaultValue *value.Value
	EnumName     string
	RefClasses   []string

	EnumDef       *EnumDefinition
	RefClassesDef []*ClassDefinition
}

// MethodDefinition is a ParameterDefinition of Type Method, additionally
// carrying the argument lists the registry validates a call against.
type MethodDefinition struct {
	ParameterDefinition
	InArgs  []MethodArgumentDefinition
	OutArgs []MethodArgumentDefinition
}

// EnumMember is one named, numbered value of an EnumDefinition.
type EnumMember struct {
	Name string
	ID   uint16
}

// EnumDefinition is a closed, named set of EnumMember values referenced by
// parameters of Type EnumMember.
type EnumDefinition struct {
	Name    string
	Members []EnumMember
}

// Contains reports whether id names a member of the enum.
func (e *EnumDefinition) Contains(id uint16) bool {
	for _, m := range e.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the member ids, for building a value.Constraint.
func (e *EnumDefinition) IDs() []uint16 {
	ids := make([]uint16, len(e.Members))
	for i, m := range e.Members {
		ids[i] = m.ID
	}
	return ids
}

// owner holds the fields shared by FeatureDefinition and ClassDefinition:
// its own declarations plus, once resolved, the flattened include closure.
// Resolution leaves the owner's own ParameterDefinitions/Overrides
// untouched; the resolved_* fields hold the merged result.
type owner struct {
	Name         string
	Includes     []string
	Parameters   []*ParameterDefinition
	Overrides    []*Override
	IsBeta       bool
	IsDeprecated bool

	resolved                     bool
	resolvedIncludes             []string
	resolvedParameterDefinitions []*ParameterDefinition
	resolvedOverrides            []*Override
}

// ResolvedParameterDefinitions returns the flattened parameter set
// (own plus transitively included), valid only after Model.Resolve.
func (o *owner) ResolvedParameterDefinitions() []*ParameterDefinition {
	return o.resolvedParameterDefinitions
}

// ResolvedIncludes returns the transitive closure of include names.
func (o *owner) ResolvedIncludes() []string {
	return o.resolvedIncludes
}

// ResolvedOverrides returns the flattened override set, include overrides
// (reverse include order, first-wins among includes) followed by the
// owner's own overrides.
func (o *owner) ResolvedOverrides() []*Override {
	return o.resolvedOverrides
}

// FeatureDefinition groups related classes under a name a device
// description can include wholesale.
type FeatureDefinition struct {
	owner
	Classes []string
}

// NewFeatureDefinition returns an unresolved feature ready for registration
// via Model.AddFeature. Name/Includes/Parameters/Overrides are exported
// fields of the embedded owner and may be set directly.
func NewFeatureDefinition(name string, classes ...string) *FeatureDefinition {
	return &FeatureDefinition{owner: owner{Name: name}, Classes: classes}
}

// ClassDefinition describes one instantiable (or singleton) class of
// parameters, optionally dynamic (a variable-size set of instances).
type ClassDefinition struct {
	owner
	BasePath      string
	BaseID        uint32
	IsDynamic     bool
	IsWritable    bool
	IsUserSetting bool
	IsInstanceKey bool

	FeatureDef *FeatureDefinition

	// InstantiationsParameter is the pseudo-parameter representing this
	// class's instantiation list (Type == value.Instantiations).
	InstantiationsParameter *ParameterDefinition
}

// NewClassDefinition returns an unresolved class ready for registration via
// Model.AddClass.
func NewClassDefinition(name, basePath string) *ClassDefinition {
	return &ClassDefinition{owner: owner{Name: name}, BasePath: basePath}
}

// BuildInstantiationsParameter populates c.InstantiationsParameter from c's
// own base path/id and writability flags.
func (c *ClassDefinition) BuildInstantiationsParameter() {
	c.InstantiationsParameter = &ParameterDefinition{
		ID:          DefinitionID(c.BaseID),
		Path:        c.BasePath,
		Type:        value.Instantiations,
		Rank:        value.Scalar,
		Writeable:   c.IsWritable,
		UserSetting: c.IsUserSetting,
		OnlyOnline:  c.IsDynamic && !c.IsUserSetting,
	}
}
