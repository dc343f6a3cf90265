package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads the configuration from a yaml file. Fields absent from the
// file keep their zero values, so callers normally start from Load() and use
// the file only for deployments where environment variables are inconvenient.
func LoadFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &Config{}
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}
