package config

type ExtractionConfig struct {
	// MinConfidence drops extracted entities and relations scoring below it.
	MinConfidence float64 `yaml:"minConfidence"`
}

func NewExtractionConfig() *ExtractionConfig {
	return &ExtractionConfig{
		MinConfidence: 0.5,
	}
}
