package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. Unknown
// keys are rejected so typos do not silently fall back to defaults.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{}
	if err := yaml.UnmarshalStrict(cfgFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}

	y.config = config
	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetDisplay returns the display section
func (y *YAMLProvider) GetDisplay() (*DisplayData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Display, nil
}

// GetCompanion returns the companion section
func (y *YAMLProvider) GetCompanion() (*CompanionData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Companion, nil
}

// GetHost returns the host section
func (y *YAMLProvider) GetHost() (*HostData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return &c.Host, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// MarshalYAML renders cfg in the format LoadConfig reads.
func MarshalYAML(cfg *ConfigData) ([]byte, error) {
	return yaml.Marshal(cfg)
}
