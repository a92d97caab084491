package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wago-dev/wdx/internal/status"
)

// Model holds the parsed, not-yet-resolved feature/class/enum definitions
// for one device model (plus any device description overlays applied on
// top, see package overlay), and the per-owner memoized resolution results.
//
// Resolution is grounded on the teacher's resolved_specs.go lower-level-
// wins merge pattern (network → zone → node), generalized here to
// include → include → owner instead of a three-level hierarchy.
type Model struct {
	mu       sync.RWMutex
	features map[string]*FeatureDefinition
	classes  map[string]*ClassDefinition
	enums    map[string]*EnumDefinition

	// methodArgs holds each Type == value.Method parameter's argument
	// lists, keyed by definition id. A method still flows through its
	// owner's Parameters/resolvedParameterDefinitions like any other
	// parameter (for path resolution, filtering, and overrides); its
	// argument list lives separately because the reference
	// method_argument_definition shape has nothing in common with
	// OverrideableAttributes and would only ever be nil for every other
	// parameter type.
	methodArgs map[DefinitionID]*MethodDefinition

	// Incomplete names what ResolveAll found referenced but never
	// registered (includes, enums, ref_classes), plus parameters whose
	// default value does not parse. An unknown include is recorded here
	// and still makes ResolveAll return an error; the other entries do not
	// fail it. Nothing re-resolves the model when a missing name is
	// registered later.
	Incomplete []string
}

// New returns an empty Model ready for feature/class/enum registration.
func New() *Model {
	return &Model{
		features:   make(map[string]*FeatureDefinition),
		classes:    make(map[string]*ClassDefinition),
		enums:      make(map[string]*EnumDefinition),
		methodArgs: make(map[DefinitionID]*MethodDefinition),
	}
}

// AddMethodArgs registers the argument lists for the method parameter
// identified by id. id must name a parameter of Type == value.Method
// already added via a feature's or class's Parameters; the argument list
// otherwise sits unreferenced.
func (m *Model) AddMethodArgs(id DefinitionID, method *MethodDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methodArgs[id] = method
}

// MethodArgs returns the registered argument lists for the method
// parameter identified by id.
func (m *Model) MethodArgs(id DefinitionID) (*MethodDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.methodArgs[id]
	return md, ok
}

// ParameterByID searches every resolved feature and class for the
// parameter with the given definition id, returning the first match. Used
// by the registry to look up a constraint or method argument list from a
// bare ParameterInstanceID.
func (m *Model) ParameterByID(id DefinitionID) (*ParameterDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.features {
		for _, p := range f.resolvedParameterDefinitions {
			if p.ID == id {
				return p, true
			}
		}
	}
	for _, c := range m.classes {
		for _, p := range c.resolvedParameterDefinitions {
			if p.ID == id {
				return p, true
			}
		}
		if c.InstantiationsParameter != nil && c.InstantiationsParameter.ID == id {
			return c.InstantiationsParameter, true
		}
	}
	return nil, false
}

// ParameterByPath searches every resolved feature and class for the
// parameter whose Path matches the given path case-insensitively,
// returning the first match. Used by the frontend's by_path call
// variants to turn a human-readable path into a definition before it is
// paired with a device into a full addressing.ParameterInstanceID.
func (m *Model) ParameterByPath(path string) (*ParameterDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.features {
		for _, p := range f.resolvedParameterDefinitions {
			if len(p.Path) == len(path) && strings.EqualFold(p.Path, path) {
				return p, true
			}
		}
	}
	for _, c := range m.classes {
		for _, p := range c.resolvedParameterDefinitions {
			if len(p.Path) == len(path) && strings.EqualFold(p.Path, path) {
				return p, true
			}
		}
	}
	return nil, false
}

// NamedParameter pairs a resolved parameter definition with the feature
// name it is reached through, empty if the parameter belongs to a class
// that stands outside any feature grouping — the same featureName
// addressing.Matches filters ParameterFilter.OnlyFeatures against.
type NamedParameter struct {
	Feature string
	Param   *ParameterDefinition
}

// AllParameters returns every resolved parameter definition reachable from
// a registered feature or class, each paired with the feature name it was
// reached through (empty for a class referenced by no feature). Used by
// the frontend's get_all_parameters to build its unfiltered candidate set
// before ParameterFilter and paging are applied.
func (m *Model) AllParameters() []NamedParameter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []NamedParameter
	seen := map[DefinitionID]bool{}
	featureNames := make([]string, 0, len(m.features))
	for name := range m.features {
		featureNames = append(featureNames, name)
	}
	sort.Strings(featureNames)

	classReachedByFeature := map[string]bool{}
	for _, name := range featureNames {
		f := m.features[name]
		for _, p := range f.resolvedParameterDefinitions {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, NamedParameter{Feature: f.Name, Param: p})
			}
		}
		for _, clsName := range f.Classes {
			classReachedByFeature[clsName] = true
			cls, ok := m.classes[clsName]
			if !ok {
				continue
			}
			for _, p := range cls.resolvedParameterDefinitions {
				if !seen[p.ID] {
					seen[p.ID] = true
					out = append(out, NamedParameter{Feature: f.Name, Param: p})
				}
			}
		}
	}

	classNames := make([]string, 0, len(m.classes))
	for name := range m.classes {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)
	for _, name := range classNames {
		if classReachedByFeature[name] {
			continue
		}
		cls := m.classes[name]
		for _, p := range cls.resolvedParameterDefinitions {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, NamedParameter{Feature: "", Param: p})
			}
		}
	}
	return out
}

// AddFeature registers a parsed, unresolved feature definition.
func (m *Model) AddFeature(f *FeatureDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[f.Name] = f
}

// AddClass registers a parsed, unresolved class definition.
func (m *Model) AddClass(c *ClassDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[c.Name] = c
}

// AddEnum registers an enum definition; enums carry no includes and need
// no resolution step.
func (m *Model) AddEnum(e *EnumDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enums[e.Name] = e
}

// Feature returns the named feature, resolved if Resolve has already been
// called for it (directly or transitively).
func (m *Model) Feature(name string) (*FeatureDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.features[name]
	return f, ok
}

// Class returns the named class.
func (m *Model) Class(name string) (*ClassDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[name]
	return c, ok
}

// Enum returns the named enum.
func (m *Model) Enum(name string) (*EnumDefinition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enums[name]
	return e, ok
}

// ResolveAll resolves every registered feature and class (steps 1-4) and
// then links cross-references and qualifies default values (step 5).
// Safe to call again after registering more definitions: already-resolved
// owners are memoized and skipped.
func (m *Model) ResolveAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name := range m.classes {
		if _, err := m.resolveClassLocked(name, map[string]bool{}); err != nil {
			return err
		}
	}
	for name := range m.features {
		if _, err := m.resolveFeatureLocked(name, map[string]bool{}); err != nil {
			return err
		}
	}
	m.prepareAttributesLocked()
	return nil
}

// resolveFeatureLocked implements steps 1-3 (parameter/include/override
// merge) generically, then step 4's feature-specific union of Classes and
// beta/deprecated tolerance. Caller holds m.mu.
func (m *Model) resolveFeatureLocked(name string, visiting map[string]bool) (*FeatureDefinition, error) {
	f, ok := m.features[name]
	if !ok {
		m.Incomplete = appendUnique(m.Incomplete, name)
		return nil, status.Newf(status.UnknownFeatureName, "unknown feature %q", name)
	}
	if f.resolved {
		return f, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("include cycle involving feature %q", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	var includeOwners []*owner
	classSet := map[string]bool{}
	for _, cls := range f.Classes {
		classSet[cls] = true
	}

	for _, inc := range f.Includes {
		incFeature, err := m.resolveFeatureLocked(inc, visiting)
		if err != nil {
			return nil, fmt.Errorf("resolving include %q of feature %q: %w", inc, name, err)
		}
		includeOwners = append(includeOwners, &incFeature.owner)
		for _, cls := range incFeature.Classes {
			classSet[cls] = true
		}
		if (incFeature.IsBeta || incFeature.IsDeprecated) && !(f.IsBeta || f.IsDeprecated) {
			// Tolerated per spec: an including feature may pull in a
			// beta/deprecated include without itself being flagged.
		}
	}

	mergeOwner(&f.owner, includeOwners)

	classes := make([]string, 0, len(classSet))
	for cls := range classSet {
		classes = append(classes, cls)
	}
	sort.Strings(classes)
	f.Classes = classes

	f.resolved = true
	return f, nil
}

// resolveClassLocked implements steps 1-3 generically, then step 4's
// class-specific base-path uniqueness check, is_dynamic/is_writable
// monotonic OR, and instantiations_parameter inheritance. Caller holds
// m.mu.
func (m *Model) resolveClassLocked(name string, visiting map[string]bool) (*ClassDefinition, error) {
	c, ok := m.classes[name]
	if !ok {
		m.Incomplete = appendUnique(m.Incomplete, name)
		return nil, status.Newf(status.UnknownInclude, "unknown class %q", name)
	}
	if c.resolved {
		return c, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("include cycle involving class %q", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	var includeOwners []*owner
	basePaths := map[string]string{} // base path -> owning class name
	claim := func(basePath, owningClass string) error {
		if basePath == "" {
			return nil
		}
		if prev, ok := basePaths[basePath]; ok && prev != owningClass {
			return status.Newf(status.AmbiguousBasePath,
				"base path %q claimed by both %q and %q", basePath, prev, owningClass)
		}
		basePaths[basePath] = owningClass
		return nil
	}
	if err := claim(c.BasePath, c.Name); err != nil {
		return nil, err
	}

	for _, inc := range c.Includes {
		incClass, err := m.resolveClassLocked(inc, visiting)
		if err != nil {
			return nil, fmt.Errorf("resolving include %q of class %q: %w", inc, name, err)
		}
		if err := claim(incClass.BasePath, incClass.Name); err != nil {
			return nil, err
		}
		includeOwners = append(includeOwners, &incClass.owner)
		c.IsDynamic = c.IsDynamic || incClass.IsDynamic
		c.IsWritable = c.IsWritable || incClass.IsWritable
		if c.InstantiationsParameter == nil && incClass.InstantiationsParameter != nil {
			c.InstantiationsParameter = incClass.InstantiationsParameter
		}
	}

	mergeOwner(&c.owner, includeOwners)

	if c.InstantiationsParameter == nil && c.BasePath != "" {
		c.BuildInstantiationsParameter()
	}

	c.resolved = true
	return c, nil
}

// mergeOwner performs steps 1-3 of the resolution algorithm in place on o,
// given its already-resolved includes in declaration order.
func mergeOwner(o *owner, includes []*owner) {
	// Step 1+2: own parameters first, then each include's resolved
	// parameters, merged unique by definition id (first writer wins, i.e.
	// the owner's own definition shadows anything an include would add).
	seen := map[DefinitionID]bool{}
	merged := make([]*ParameterDefinition, 0, len(o.Parameters))
	for _, p := range o.Parameters {
		seen[p.ID] = true
		merged = append(merged, p)
	}
	var resolvedIncludes []string
	for _, inc := range includes {
		for _, p := range inc.resolvedParameterDefinitions {
			if !seen[p.ID] {
				seen[p.ID] = true
				merged = append(merged, p)
			}
		}
		resolvedIncludes = appendUnique(resolvedIncludes, inc.Name)
		resolvedIncludes = appendUnique(resolvedIncludes, inc.resolvedIncludes...)
	}

	// Step 3: includes processed in reverse order, propagating their
	// resolved overrides forward, first-wins among includes; the owner's
	// own overrides are appended last so they take final effect.
	type overrideKey struct {
		owner string
		id    DefinitionID
	}
	overrideSeen := map[overrideKey]bool{}
	var resolvedOverrides []*Override
	for i := len(includes) - 1; i >= 0; i-- {
		for _, ov := range includes[i].resolvedOverrides {
			k := overrideKey{ov.OwnerName, ov.DefinitionID}
			if overrideSeen[k] {
				continue
			}
			overrideSeen[k] = true
			resolvedOverrides = append(resolvedOverrides, ov)
		}
	}
	resolvedOverrides = append(resolvedOverrides, o.Overrides...)

	o.resolvedParameterDefinitions = merged
	o.resolvedIncludes = resolvedIncludes
	o.resolvedOverrides = resolvedOverrides
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
