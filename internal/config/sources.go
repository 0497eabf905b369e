package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gojsd/internal/errors"
)

// SourceManifest lists the dataset sources to load at startup
type SourceManifest struct {
	Sources []SourceSpec `yaml:"sources"`
}

// SourceSpec describes one dataset source in the manifest
type SourceSpec struct {
	Name             string                       `yaml:"name"`
	Path             string                       `yaml:"path"`
	Kind             string                       `yaml:"kind"`
	DateColumn       string                       `yaml:"date_column,omitempty"`
	NumericColumns   []string                     `yaml:"numeric_columns,omitempty"`
	EnsureCategories []string                     `yaml:"ensure_categories,omitempty"`
	Remap            map[string]map[string]string `yaml:"remap,omitempty"`
}

// LoadManifest reads and validates a YAML source manifest
func LoadManifest(path string) (*SourceManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sources file %s", path)
	}

	var manifest SourceManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, "failed to parse sources file %s", path)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks manifest entries for completeness and unique names
func (m *SourceManifest) Validate() error {
	seen := make(map[string]bool, len(m.Sources))
	for i, src := range m.Sources {
		if src.Name == "" {
			return errors.ConfigInvalid(fmt.Sprintf("source %d is missing a name", i))
		}
		if src.Path == "" {
			return errors.ConfigInvalid(fmt.Sprintf("source %q is missing a path", src.Name))
		}
		switch src.Kind {
		case "", "workbook", "records":
		default:
			return errors.ConfigInvalid(fmt.Sprintf("source %q has unknown kind %q", src.Name, src.Kind))
		}
		if seen[src.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate source name %q", src.Name))
		}
		seen[src.Name] = true
	}
	return nil
}
