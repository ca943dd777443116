package quota

import (
	"context"
	"time"
)

type (
	// Tier is the subscription plan resolved for a tenant. Unlimited tiers
	// bypass every counter.
	Tier struct {
		Name            string
		Unlimited       bool
		MemoryLimit     int64
		MonthlyAPILimit int64
	}

	// TierLookup resolves a tenant's subscription tier. Implemented by the
	// billing subsystem.
	TierLookup interface {
		TierOf(ctx context.Context, tenantID string) (Tier, error)
	}

	// MemoryCounter reports how many memories a tenant currently stores.
	// The memory store satisfies this.
	MemoryCounter interface {
		CountMemories(ctx context.Context, tenantID string) (int64, error)
	}

	// UsageRecorder receives usage events for metered (unlimited) tiers.
	// Implemented by the billing subsystem.
	UsageRecorder interface {
		RecordMemoryUsage(ctx context.Context, tenantID string, quantity int64) error
	}

	// Decision is the outcome of a quota check. Reason is human-readable and
	// only set when disallowed.
	Decision struct {
		Allowed bool
		Reason  string
		Tier    Tier
	}
)

// NextPeriodEnd returns the first day of the calendar month following t,
// in t's location. December rolls over into January of the next year.
func NextPeriodEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
}
