// Package overlay loads device description (WDD) fragments — named JSON
// files naming the features a device exposes plus WDD-level and
// instance-level attribute overrides — and merges them onto a
// internal/model.Model the way package configlet loads named JSON
// fragments from a directory and merges them onto a ConfigDB baseline.
// Here the fragments carry feature/override data instead of ConfigDB
// tables, and merging follows resolution-order precedence (WDD-level
// overrides flow through the normal include/override merge; instance-level
// overrides are applied last, directly to a single instance's copy of a
// parameter definition) instead of configlet's flat key replace.
package overlay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wago-dev/wdx/internal/model"
)

// InstanceOverride narrows OverrideableAttributes further for one specific
// class instance, identified by its instance path (e.g. "module/3").
type InstanceOverride struct {
	Path         string                      `json:"path"`
	DefinitionID model.DefinitionID          `json:"definition_id"`
	Attributes   model.OverrideableAttributes `json:"attributes"`
}

// Fragment is one WDD file: the features a device exposes, plus
// device-wide and per-instance attribute overrides layered on top.
type Fragment struct {
	Name              string                `json:"name"`
	Features          []string              `json:"features"`
	Overrides         []*model.Override     `json:"overrides"`
	InstanceOverrides []InstanceOverride    `json:"instance_overrides"`
}

// Load reads and parses a WDD fragment named "<name>.json" from dir.
func Load(dir, name string) (*Fragment, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device description %s: %w", name, err)
	}
	var f Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing device description %s: %w", name, err)
	}
	if f.Name == "" {
		f.Name = name
	}
	return &f, nil
}

// List returns the names of all WDD fragment files in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading device description directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	return names, nil
}

// ApplyBefore attaches f's WDD-level overrides onto their named owners
// (a feature or class name) and unions f's Features into the device-local
// aggregate, before Model.ResolveAll runs. Unknown owner names are
// tolerated (model_incomplete, per the overlay contract) rather than
// failing the whole fragment: the rest of the device still comes up, and
// the unresolved names are returned in incomplete. Nothing here retries
// them after a later model update.
//
// Call this before m.ResolveAll so the overrides propagate through the
// normal include/override merge (step 3) exactly like an owner's own
// overrides.
func ApplyBefore(m *model.Model, f *Fragment) (aggregateFeatures []string, incomplete []string) {
	for _, ov := range f.Overrides {
		if c, ok := m.Class(ov.OwnerName); ok {
			c.Overrides = append(c.Overrides, ov)
			continue
		}
		if feat, ok := m.Feature(ov.OwnerName); ok {
			feat.Overrides = append(feat.Overrides, ov)
			continue
		}
		incomplete = append(incomplete, ov.OwnerName)
	}

	seen := map[string]bool{}
	for _, name := range f.Features {
		feat, ok := m.Feature(name)
		if !ok {
			incomplete = append(incomplete, name)
			continue
		}
		if !seen[name] {
			seen[name] = true
			aggregateFeatures = append(aggregateFeatures, name)
		}
		for _, cls := range feat.Classes {
			if !seen[cls] {
				seen[cls] = true
				aggregateFeatures = append(aggregateFeatures, cls)
			}
		}
	}
	return aggregateFeatures, incomplete
}

// ApplyInstance returns a copy of def with any InstanceOverride matching
// instancePath and def.ID applied on top of its resolved attributes. Call
// after Model.ResolveAll, once per concrete instance of a dynamic class,
// to obtain the per-instance parameter definition the registry should
// expose for that instance.
func ApplyInstance(f *Fragment, instancePath string, def *model.ParameterDefinition) *model.ParameterDefinition {
	for _, io := range f.InstanceOverrides {
		if io.Path != instancePath || io.DefinitionID != def.ID {
			continue
		}
		cp := *def
		cp.Overrideables.OverrideWith(io.Attributes)
		return &cp
	}
	return def
}
