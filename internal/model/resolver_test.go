package model

import (
	"testing"

	"github.com/wago-dev/wdx/internal/value"
)

func param(id DefinitionID, path string) *ParameterDefinition {
	return &ParameterDefinition{ID: id, Path: path, Type: value.String, Rank: value.Scalar}
}

func TestResolveClassIncludesMergeUnique(t *testing.T) {
	m := New()
	base := &ClassDefinition{owner: owner{Name: "base", Parameters: []*ParameterDefinition{param(1, "base/a")}}}
	derived := &ClassDefinition{owner: owner{Name: "derived", Includes: []string{"base"}, Parameters: []*ParameterDefinition{param(2, "derived/b")}}}
	m.AddClass(base)
	m.AddClass(derived)

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	got := derived.ResolvedParameterDefinitions()
	if len(got) != 2 {
		t.Fatalf("expected 2 resolved parameters, got %d", len(got))
	}
	ids := map[DefinitionID]bool{}
	for _, p := range got {
		ids[p.ID] = true
	}
	if !ids[1] || !ids[2] {
		t.Errorf("expected ids {1,2}, got %v", ids)
	}
	if len(derived.ResolvedIncludes()) != 1 || derived.ResolvedIncludes()[0] != "base" {
		t.Errorf("expected resolved includes [base], got %v", derived.ResolvedIncludes())
	}
}

func TestResolveClassOwnParameterShadowsInclude(t *testing.T) {
	m := New()
	base := &ClassDefinition{owner: owner{Name: "base", Parameters: []*ParameterDefinition{param(1, "base/a")}}}
	derived := &ClassDefinition{owner: owner{
		Name:       "derived",
		Includes:   []string{"base"},
		Parameters: []*ParameterDefinition{{ID: 1, Path: "derived/shadow", Type: value.Uint8, Rank: value.Scalar}},
	}}
	m.AddClass(base)
	m.AddClass(derived)

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	got := derived.ResolvedParameterDefinitions()
	if len(got) != 1 {
		t.Fatalf("expected the owner's own definition to shadow the include's, got %d entries", len(got))
	}
	if got[0].Path != "derived/shadow" {
		t.Errorf("expected shadowing definition, got %q", got[0].Path)
	}
}

func TestResolveClassAmbiguousBasePath(t *testing.T) {
	m := New()
	a := &ClassDefinition{owner: owner{Name: "a"}, BasePath: "x"}
	b := &ClassDefinition{owner: owner{Name: "b"}, BasePath: "x"}
	c := &ClassDefinition{owner: owner{Name: "c", Includes: []string{"a", "b"}}}
	m.AddClass(a)
	m.AddClass(b)
	m.AddClass(c)

	if err := m.ResolveAll(); err == nil {
		t.Fatalf("expected ambiguous base path error")
	}
}

func TestResolveClassIsDynamicIsWritableMonotonicOr(t *testing.T) {
	m := New()
	base := &ClassDefinition{owner: owner{Name: "base"}, IsDynamic: true}
	derived := &ClassDefinition{owner: owner{Name: "derived", Includes: []string{"base"}}, IsWritable: true}
	m.AddClass(base)
	m.AddClass(derived)

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if !derived.IsDynamic {
		t.Errorf("expected derived.IsDynamic to be true (inherited from base)")
	}
	if !derived.IsWritable {
		t.Errorf("expected derived.IsWritable to remain true")
	}
}

func TestResolveClassInstantiationsParameterInheritance(t *testing.T) {
	m := New()
	base := &ClassDefinition{owner: owner{Name: "base"}, BasePath: "module", BaseID: 10, IsDynamic: true}
	base.BuildInstantiationsParameter()
	derived := &ClassDefinition{owner: owner{Name: "derived", Includes: []string{"base"}}}
	m.AddClass(base)
	m.AddClass(derived)

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if derived.InstantiationsParameter == nil {
		t.Fatalf("expected derived to inherit base's instantiations parameter")
	}
	if derived.InstantiationsParameter.Path != "module" {
		t.Errorf("expected inherited instantiations parameter path 'module', got %q", derived.InstantiationsParameter.Path)
	}
}

func TestResolveFeatureUnionsClasses(t *testing.T) {
	m := New()
	m.AddClass(&ClassDefinition{owner: owner{Name: "c1"}})
	m.AddClass(&ClassDefinition{owner: owner{Name: "c2"}})
	base := &FeatureDefinition{owner: owner{Name: "base"}, Classes: []string{"c1"}}
	derived := &FeatureDefinition{owner: owner{Name: "derived", Includes: []string{"base"}}, Classes: []string{"c2"}}
	m.AddFeature(base)
	m.AddFeature(derived)

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(derived.Classes) != 2 {
		t.Fatalf("expected 2 classes in union, got %v", derived.Classes)
	}
}

func TestUnknownIncludeIsTolerated(t *testing.T) {
	m := New()
	m.AddClass(&ClassDefinition{owner: owner{Name: "derived", Includes: []string{"missing"}}})
	if err := m.ResolveAll(); err == nil {
		t.Fatalf("expected an error surfacing the unknown include")
	}
	if len(m.Incomplete) == 0 {
		t.Errorf("expected 'missing' to be recorded as incomplete")
	}
}

func TestConstraintFromParameterDefinition(t *testing.T) {
	m := New()
	m.AddEnum(&EnumDefinition{Name: "Color", Members: []EnumMember{{Name: "red", ID: 0}, {Name: "green", ID: 1}}})
	p := &ParameterDefinition{ID: 1, Path: "p", Type: value.EnumMember, Rank: value.Scalar, EnumName: "Color"}
	m.AddClass(&ClassDefinition{owner: owner{Name: "c", Parameters: []*ParameterDefinition{p}}})

	if err := m.ResolveAll(); err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if p.EnumDef == nil {
		t.Fatalf("expected enum_def to be linked")
	}
	c := Constraint(p)
	if !c.EnumMembersResolved || len(c.EnumMembers) != 2 {
		t.Errorf("expected constraint to carry 2 resolved enum members, got %+v", c)
	}
}
