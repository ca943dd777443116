package memory

import (
	"context"

	"github.com/engramhq/engram/entity"
)

type (
	// Embedder is the embedding provider capability. A single call covers the
	// batch path; implementations should use their provider's batch endpoint
	// when more than one text is passed.
	Embedder interface {
		Embed(ctx context.Context, texts ...string) ([][]float32, error)
	}

	CreateInput struct {
		UserID     string
		AgentID    string
		SessionID  string
		Content    string
		Metadata   map[string]any
		Source     string
		Importance *float64
		Tags       []string
		APIKeyName string
	}

	// ListOptions filters tenant-scoped reads. Every field is optional except
	// where an operation states otherwise.
	ListOptions struct {
		UserID    string
		AgentID   string
		SessionID string
		Limit     int
	}

	SearchOptions struct {
		// UserID narrows the scan to one end user. Empty searches the whole
		// tenant; callers serving end-user requests must set it.
		UserID    string
		AgentID   string
		SessionID string

		// Threshold overrides the configured minimum similarity. Zero means
		// no filtering.
		Threshold *float64

		// MinImportance drops memories stored with a lower importance.
		MinImportance *float64

		Limit int
	}

	// SearchResult pairs a memory with its cosine similarity to the query.
	SearchResult struct {
		Memory *entity.Memory `json:"memory"`
		Score  float64        `json:"score"`
	}

	ExportFormat string
)

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
)
