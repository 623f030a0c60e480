package aisle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides maps a normalized description to the aisle it must always land in.
type Overrides map[string]Aisle

// DefaultOverrides holds ingredients the food database is known to misfile.
func DefaultOverrides() Overrides {
	return Overrides{
		"steak": MeatAndSeafood,
	}
}

type overridesFile struct {
	Overrides map[string]string `yaml:"overrides"`
}

// LoadOverrides reads a YAML override table and layers it over the defaults.
// An empty path returns the defaults.
//
//	overrides:
//	  steak: Meat and Seafood
//	  frozen peas: Frozen
func LoadOverrides(path string) (Overrides, error) {
	out := DefaultOverrides()
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aisle overrides %s: %w", path, err)
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse aisle overrides %s: %w", path, err)
	}

	for desc, name := range file.Overrides {
		a := Aisle(name)
		if !a.Valid() {
			return nil, fmt.Errorf("aisle override %q: unknown aisle %q", desc, name)
		}
		out[Normalize(desc)] = a
	}
	return out, nil
}
