package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileValues is the optional YAML configuration file. Environment variables
// take precedence over any value set here.
type FileValues struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	AppName        string   `yaml:"app_name"`
	DataFolder     string   `yaml:"data_folder"`
	Env            string   `yaml:"env"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"` // Go duration, e.g. "10s"
	} `yaml:"api"`

	Credentials struct {
		Backend string `yaml:"backend"` // file | sqlite | redis | memory
		Slot    string `yaml:"slot"`
		Path    string `yaml:"path"`
		Key     string `yaml:"key"`
	} `yaml:"credentials"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads the YAML file at path and layers environment variables on top.
// An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var values FileValues
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return newConfig(&values), nil
}
