package config

import (
	"os"

	"github.com/engramhq/engram/errors"
	"github.com/goccy/go-yaml"
)

// Config aggregates every engine concern. Zero-config works out of the box
// (in-memory sqlite, no redis, openai defaults read from the environment).
type Config struct {
	Log        *LogConfig        `yaml:"log"`
	Database   *DatabaseConfig   `yaml:"database"`
	Memory     *MemoryConfig     `yaml:"memory"`
	Extraction *ExtractionConfig `yaml:"extraction"`
	Auth       *AuthConfig       `yaml:"auth"`
	OpenAI     *OpenAIConfig     `yaml:"openai"`
}

func NewConfig() *Config {
	return &Config{
		Log:        NewLogConfig(),
		Database:   NewDatabaseConfig(),
		Memory:     NewMemoryConfig(),
		Extraction: NewExtractionConfig(),
		Auth:       NewAuthConfig(),
		OpenAI:     NewOpenAIConfig(),
	}
}

// LoadFromFile overlays a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	config := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return config, nil
}
