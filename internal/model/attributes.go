package model

import (
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

// prepareAttributesLocked is step 5 of resolution: link each resolved
// parameter definition's enum/class/feature back-references, hoist
// is_beta/is_deprecated from the owning feature down to class parameters,
// and type-qualify any default value against the definition it belongs to.
// Called once, after every registered owner has gone through steps 1-4.
// Caller holds m.mu.
func (m *Model) prepareAttributesLocked() {
	for _, f := range m.features {
		for _, p := range f.resolvedParameterDefinitions {
			m.linkParameter(p, nil, f)
		}
	}
	for _, c := range m.classes {
		for _, p := range c.resolvedParameterDefinitions {
			m.linkParameter(p, c, c.FeatureDef)
		}
		if c.InstantiationsParameter != nil {
			m.linkParameter(c.InstantiationsParameter, c, c.FeatureDef)
		}
	}
}

func (m *Model) linkParameter(p *ParameterDefinition, cls *ClassDefinition, feat *FeatureDefinition) {
	p.ClassDef = cls
	p.FeatureDef = feat
	if feat != nil {
		p.IsBeta = p.IsBeta || feat.IsBeta
		p.IsDeprecated = p.IsDeprecated || feat.IsDeprecated
	}
	if p.EnumName != "" {
		if e, ok := m.enums[p.EnumName]; ok {
			p.EnumDef = e
		} else {
			m.Incomplete = appendUnique(m.Incomplete, p.EnumName)
		}
	}
	if len(p.RefClasses) > 0 {
		p.RefClassesDef = p.RefClassesDef[:0]
		for _, name := range p.RefClasses {
			if rc, ok := m.classes[name]; ok {
				p.RefClassesDef = append(p.RefClassesDef, rc)
			} else {
				m.Incomplete = appendUnique(m.Incomplete, name)
			}
		}
	}
	if p.Overrideables.DefaultValue != nil {
		c := Constraint(p)
		if code := value.CheckParameterValue(p.Overrideables.DefaultValue, c); code != status.NoErrorYet {
			// A malformed default in the model is a model-authoring bug,
			// not a runtime value-validation failure; surface via the
			// incomplete list rather than panicking or dropping it silently.
			m.Incomplete = appendUnique(m.Incomplete, p.Path+" (invalid default value)")
		}
	}
}

// Constraint builds a value.Constraint describing what values a
// ParameterDefinition accepts, for use with value.CheckParameterValue.
func Constraint(p *ParameterDefinition) *value.Constraint {
	c := &value.Constraint{
		Type:    p.Type,
		Rank:    p.Rank,
		Pattern: p.Overrideables.Pattern,
	}
	if p.Type == value.EnumMember {
		c.EnumMembersResolved = p.EnumDef != nil
		if p.EnumDef != nil {
			c.EnumMembers = p.EnumDef.IDs()
		}
	}
	if p.Type == value.InstanceRef || p.Type == value.InstanceIdentityRef {
		c.RefClassResolved = len(p.RefClassesDef) > 0
		for _, rc := range p.RefClassesDef {
			c.RefClassBasePaths = append(c.RefClassBasePaths, rc.BasePath)
		}
	}
	if p.Overrideables.AllowedValuesSet {
		c.AllowedValues = p.Overrideables.AllowedValues
	}
	if p.Overrideables.AllowedLengthSet {
		c.AllowedLength = p.Overrideables.AllowedLength
	}
	return c
}

// ArgumentConstraint builds a value.Constraint for a method argument; it
// carries no pattern or allowed-values restriction, mirroring the reference
// method_argument_definition's narrower validation surface.
func ArgumentConstraint(a *MethodArgumentDefinition) *value.Constraint {
	c := &value.Constraint{Type: a.Type, Rank: a.Rank}
	if a.Type == value.EnumMember {
		c.EnumMembersResolved = a.EnumDef != nil
		if a.EnumDef != nil {
			c.EnumMembers = a.EnumDef.IDs()
		}
	}
	if a.Type == value.InstanceRef || a.Type == value.InstanceIdentityRef {
		c.RefClassResolved = len(a.RefClassesDef) > 0
		for _, rc := range a.RefClassesDef {
			c.RefClassBasePaths = append(c.RefClassBasePaths, rc.BasePath)
		}
	}
	return c
}
