package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicy reads a PolicySpec from a YAML file at path.
func LoadPolicy(path string) (*PolicySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading policy %s: %w", path, err)
	}
	var policy PolicySpec
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("auth: parsing policy %s: %w", path, err)
	}
	return &policy, nil
}
