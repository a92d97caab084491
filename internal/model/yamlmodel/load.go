// Package yamlmodel loads device-description and device-model fragments
// from YAML files into an internal/model.Model, the concrete
// model.DeviceDescriptionProvider/DeviceModelProvider collaborator surface
// spec.md leaves to an external loader: wdxd reads a directory of fragment
// files at startup and builds the resolved model from them, the way the
// teacher's pkg/newtest parses a directory of YAML scenario files.
package yamlmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wago-dev/wdx/internal/model"
	"github.com/wago-dev/wdx/internal/value"
)

// parameterFragment is one parameter's YAML shape within a feature or
// class fragment file.
type parameterFragment struct {
	ID          model.DefinitionID `yaml:"id"`
	Path        string             `yaml:"path"`
	Type        string             `yaml:"type"`
	Rank        string             `yaml:"rank,omitempty"`
	Writeable   bool               `yaml:"writeable,omitempty"`
	UserSetting bool               `yaml:"user_setting,omitempty"`
	OnlyOnline  bool               `yaml:"only_online,omitempty"`
	InstanceKey bool               `yaml:"instance_key,omitempty"`
	EnumName    string             `yaml:"enum,omitempty"`
	RefClasses  []string           `yaml:"ref_classes,omitempty"`
}

func (p parameterFragment) build() (*model.ParameterDefinition, error) {
	typ, err := value.ParseType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", p.Path, err)
	}
	rank, err := value.ParseRank(p.Rank)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", p.Path, err)
	}
	return &model.ParameterDefinition{
		ID:          p.ID,
		Path:        p.Path,
		Type:        typ,
		Rank:        rank,
		Writeable:   p.Writeable,
		UserSetting: p.UserSetting,
		OnlyOnline:  p.OnlyOnline,
		InstanceKey: p.InstanceKey,
		EnumName:    p.EnumName,
		RefClasses:  p.RefClasses,
	}, nil
}

// enumFragment is one EnumDefinition's YAML shape.
type enumFragment struct {
	Name    string `yaml:"name"`
	Members []struct {
		Name string `yaml:"name"`
		ID   uint16 `yaml:"id"`
	} `yaml:"members"`
}

// featureFragment is a top-level feature file: `kind: feature`.
type featureFragment struct {
	Kind       string              `yaml:"kind"`
	Name       string              `yaml:"name"`
	Classes    []string            `yaml:"classes,omitempty"`
	Includes   []string            `yaml:"includes,omitempty"`
	Parameters []parameterFragment `yaml:"parameters,omitempty"`
}

// classFragment is a top-level class file: `kind: class`.
type classFragment struct {
	Kind       string              `yaml:"kind"`
	Name       string              `yaml:"name"`
	BasePath   string              `yaml:"base_path"`
	IsDynamic  bool                `yaml:"dynamic,omitempty"`
	IsWritable bool                `yaml:"writable,omitempty"`
	Includes   []string            `yaml:"includes,omitempty"`
	Parameters []parameterFragment `yaml:"parameters,omitempty"`
}

// enumFileFragment is a top-level enum file: `kind: enum`.
type enumFileFragment struct {
	Kind string       `yaml:"kind"`
	Enum enumFragment `yaml:"enum"`
}

// kindProbe reads just the `kind` discriminator field, so Load can decide
// which concrete fragment type to unmarshal the rest of the document into.
type kindProbe struct {
	Kind string `yaml:"kind"`
}

// Load reads every *.yaml/*.yml file in dir (non-recursive) and builds a
// resolved model.Model from the feature/class/enum fragments they
// contain. Each file holds exactly one fragment, discriminated by its
// top-level `kind` field ("feature", "class", or "enum").
func Load(dir string) (*model.Model, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("yamlmodel: reading %s: %w", dir, err)
	}

	m := model.New()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := loadFragment(m, path); err != nil {
			return nil, err
		}
	}

	if err := m.ResolveAll(); err != nil {
		return nil, fmt.Errorf("yamlmodel: resolving model loaded from %s: %w", dir, err)
	}
	return m, nil
}

func loadFragment(m *model.Model, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("yamlmodel: reading %s: %w", path, err)
	}

	var probe kindProbe
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("yamlmodel: parsing %s: %w", path, err)
	}

	switch probe.Kind {
	case "feature":
		var frag featureFragment
		if err := yaml.Unmarshal(data, &frag); err != nil {
			return fmt.Errorf("yamlmodel: parsing feature %s: %w", path, err)
		}
		feat := model.NewFeatureDefinition(frag.Name, frag.Classes...)
		feat.Includes = frag.Includes
		params, err := buildParameters(frag.Parameters)
		if err != nil {
			return fmt.Errorf("yamlmodel: %s: %w", path, err)
		}
		feat.Parameters = params
		m.AddFeature(feat)

	case "class":
		var frag classFragment
		if err := yaml.Unmarshal(data, &frag); err != nil {
			return fmt.Errorf("yamlmodel: parsing class %s: %w", path, err)
		}
		cls := model.NewClassDefinition(frag.Name, frag.BasePath)
		cls.Includes = frag.Includes
		cls.IsDynamic = frag.IsDynamic
		cls.IsWritable = frag.IsWritable
		params, err := buildParameters(frag.Parameters)
		if err != nil {
			return fmt.Errorf("yamlmodel: %s: %w", path, err)
		}
		cls.Parameters = params
		m.AddClass(cls)

	case "enum":
		var frag enumFileFragment
		if err := yaml.Unmarshal(data, &frag); err != nil {
			return fmt.Errorf("yamlmodel: parsing enum %s: %w", path, err)
		}
		members := make([]model.EnumMember, len(frag.Enum.Members))
		for i, mem := range frag.Enum.Members {
			members[i] = model.EnumMember{Name: mem.Name, ID: mem.ID}
		}
		m.AddEnum(&model.EnumDefinition{Name: frag.Enum.Name, Members: members})

	default:
		return fmt.Errorf("yamlmodel: %s: unknown fragment kind %q", path, probe.Kind)
	}
	return nil
}

func buildParameters(frags []parameterFragment) ([]*model.ParameterDefinition, error) {
	out := make([]*model.ParameterDefinition, len(frags))
	for i, f := range frags {
		p, err := f.build()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
