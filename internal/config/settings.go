package config

import (
	"fmt"
	"mission-planner-service/internal/domain"
	"mission-planner-service/internal/services"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings are the planning defaults applied to requests that omit them.
type Settings struct {
	Policy domain.Policy        `yaml:"policy"`
	Fuel   services.FuelProfile `yaml:"fuel"`
}

func DefaultSettings() Settings {
	return Settings{Policy: domain.DefaultPolicy(), Fuel: services.DefaultFuelProfile()}
}

// LoadSettings overlays the YAML file at path on the defaults. An empty path
// yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("load settings: parse %q: %w", path, err)
	}
	if err := s.Policy.Validate(); err != nil {
		return Settings{}, fmt.Errorf("load settings: %q: %w", path, err)
	}

	return s, nil
}
