package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Memory is a stored text fragment with its embedding vector. Content is
// immutable after creation; the only mutation is deletion.
type Memory struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string `gorm:"index:idx_memories_tenant_user,priority:1;not null"`
	UserID    string `gorm:"index:idx_memories_tenant_user,priority:2;not null"`
	AgentID   string
	SessionID string

	Content    string `gorm:"type:text"`
	Embedding  datatypes.JSONType[[]float32]
	Metadata   datatypes.JSONType[map[string]any]
	Source     string
	Importance float64 `gorm:"default:0.5"`
	Tags       datatypes.JSONType[[]string]

	// APIKeyName records which credential wrote the memory; surfaced in exports.
	APIKeyName string

	CreatedAt time.Time
	UpdatedAt time.Time
}
