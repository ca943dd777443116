package entity

import (
	"time"
)

// APIKey is the tenant credential. The key id doubles as the tenant id that
// partitions every other table; the raw key is never stored, only its hash.
type APIKey struct {
	ID      string `gorm:"primaryKey"`
	Name    string
	KeyHash string `gorm:"uniqueIndex:idx_api_keys_hash"`

	Active    bool `gorm:"default:true"`
	ExpiresAt *time.Time

	// Set when the owning account is soft-deleted by the account subsystem.
	UserDeletedAt *time.Time

	LastUsedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
