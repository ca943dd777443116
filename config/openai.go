package config

import "os"

type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`

	// BaseURL allows any OpenAI-compatible endpoint.
	BaseURL string `yaml:"baseURL"`

	EmbeddingModel      string `yaml:"embeddingModel"`
	EmbeddingDimensions int    `yaml:"embeddingDimensions"`

	ExtractionModel string  `yaml:"extractionModel"`
	MaxTokens       int     `yaml:"maxTokens"`
	Temperature     float32 `yaml:"temperature"`
}

func NewOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		APIKey:              os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		ExtractionModel:     "gpt-4o-mini",
		MaxTokens:           2048,
		Temperature:         0,
	}
}
