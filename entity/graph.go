package entity

import (
	"time"

	"gorm.io/datatypes"
)

type (
	// Entity is a named, typed node in the knowledge graph. The dedup identity
	// for upserts is (tenant, user, type, name) with name compared
	// case-insensitively; the name is stored as provided.
	Entity struct {
		ID       string `gorm:"primaryKey"`
		TenantID string `gorm:"index:idx_entities_tenant_user,priority:1;not null"`
		UserID   string `gorm:"index:idx_entities_tenant_user,priority:2;not null"`

		Type       string `gorm:"index:idx_entities_type"`
		Name       string
		Properties datatypes.JSONType[map[string]any]
		Confidence float64 `gorm:"default:1"`

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Relation is a typed directed edge between two entities. Source and
	// target ids are not validated at the storage layer so callers may write
	// speculative or external references.
	Relation struct {
		ID       string `gorm:"primaryKey"`
		TenantID string `gorm:"index:idx_relations_tenant_user,priority:1;not null"`
		UserID   string `gorm:"index:idx_relations_tenant_user,priority:2;not null"`

		SourceID string `gorm:"index:idx_relations_source"`
		TargetID string `gorm:"index:idx_relations_target"`

		Type       string
		Properties datatypes.JSONType[map[string]any]
		Confidence float64 `gorm:"default:1"`

		// Optional temporal validity window. No ordering is enforced between
		// the two when both are present.
		ValidFrom *time.Time
		ValidTo   *time.Time

		CreatedAt time.Time
		UpdatedAt time.Time
	}
)
