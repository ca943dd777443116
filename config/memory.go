package config

type MemoryConfig struct {
	// SearchLimit caps search results when the caller does not set one.
	SearchLimit int `yaml:"searchLimit"`

	// SearchThreshold is the default minimum cosine similarity. Zero means
	// no filtering.
	SearchThreshold float64 `yaml:"searchThreshold"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		SearchLimit:     20,
		SearchThreshold: 0,
	}
}
