package extraction

import (
	"context"
)

type (
	// RawEntity is a provider-extracted entity, still keyed by name rather
	// than id.
	RawEntity struct {
		Name       string         `json:"name"`
		Type       string         `json:"type"`
		Confidence float64        `json:"confidence"`
		Properties map[string]any `json:"properties,omitempty"`
	}

	// RawRelation references its endpoints by entity name.
	RawRelation struct {
		Source     string  `json:"source"`
		Target     string  `json:"target"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}

	Extraction struct {
		Entities  []RawEntity   `json:"entities"`
		Relations []RawRelation `json:"relations"`
	}

	ProviderOptions struct {
		EntityTypes   []string
		RelationTypes []string
	}

	// Provider is the LLM capability behind the pipeline. Implementations
	// must default a missing confidence to 1.0.
	Provider interface {
		ExtractEntitiesAndRelations(ctx context.Context, text string, opts ProviderOptions) (*Extraction, error)
	}

	Options struct {
		UserID        string
		EntityTypes   []string
		RelationTypes []string

		// MinConfidence overrides the configured floor (default 0.5).
		MinConfidence *float64

		// SaveToGraph persists the surviving extraction; nil means true.
		SaveToGraph *bool
	}
)
