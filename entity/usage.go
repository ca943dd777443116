package entity

import (
	"time"
)

// UsageCounter tracks a tenant's API calls for the current billing period.
// One row per tenant; increments must go through an atomic upsert.
type UsageCounter struct {
	TenantID string `gorm:"primaryKey"`

	MonthlyAPIUsed int64

	// First day of the calendar month following creation.
	PeriodEndAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
