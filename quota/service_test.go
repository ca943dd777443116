package quota_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/engramhq/engram/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTiers struct {
	tier quota.Tier
}

func (s staticTiers) TierOf(ctx context.Context, tenantID string) (quota.Tier, error) {
	return s.tier, nil
}

type staticCounts map[string]int64

func (c staticCounts) CountMemories(ctx context.Context, tenantID string) (int64, error) {
	return c[tenantID], nil
}

func newQuotaService(tier quota.Tier, counts staticCounts) (quota.Service, *quota.InMemoryCounterStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	counters := quota.NewInMemoryCounterStore()
	return quota.NewService(staticTiers{tier}, counts, counters, logger), counters
}

func TestService_CheckMemoryQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("unlimited tier always allows", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "pro", Unlimited: true}, staticCounts{"t1": 1 << 30})
		decision, err := svc.CheckMemoryQuota(ctx, "t1", 1)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Empty(t, decision.Reason)
	})

	t.Run("disallows when the write would hit the limit", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "free", MemoryLimit: 10}, staticCounts{"t1": 9})
		decision, err := svc.CheckMemoryQuota(ctx, "t1", 1)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "memory limit of 10")
		assert.Contains(t, decision.Reason, "free")
	})

	t.Run("allows below the limit", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "free", MemoryLimit: 10}, staticCounts{"t1": 8})
		decision, err := svc.CheckMemoryQuota(ctx, "t1", 1)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("quantity counts toward the limit", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "free", MemoryLimit: 10}, staticCounts{"t1": 5})
		decision, err := svc.CheckMemoryQuota(ctx, "t1", 5)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	})
}

func TestService_CheckAPIQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("unlimited tier skips the counter", func(t *testing.T) {
		svc, counters := newQuotaService(quota.Tier{Name: "pro", Unlimited: true}, staticCounts{})
		decision, err := svc.CheckAPIQuota(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)

		counter, err := counters.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Nil(t, counter)
	})

	t.Run("disallows at the monthly limit", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "free", MonthlyAPILimit: 2}, staticCounts{})

		for i := 0; i < 2; i++ {
			decision, err := svc.CheckAPIQuota(ctx, "t1")
			require.NoError(t, err)
			assert.True(t, decision.Allowed)
			require.NoError(t, svc.IncrementAPIUsage(ctx, "t1"))
		}

		decision, err := svc.CheckAPIQuota(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "monthly API limit of 2")
	})

	t.Run("usage is per tenant", func(t *testing.T) {
		svc, _ := newQuotaService(quota.Tier{Name: "free", MonthlyAPILimit: 1}, staticCounts{})
		require.NoError(t, svc.IncrementAPIUsage(ctx, "t1"))

		decision, err := svc.CheckAPIQuota(ctx, "t2")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("increment by api key hits the same counter", func(t *testing.T) {
		svc, counters := newQuotaService(quota.Tier{Name: "free", MonthlyAPILimit: 10}, staticCounts{})
		require.NoError(t, svc.IncrementAPIUsageByAPIKey(ctx, "key-1"))

		counter, err := counters.Get(ctx, "key-1")
		require.NoError(t, err)
		require.NotNil(t, counter)
		assert.Equal(t, int64(1), counter.MonthlyAPIUsed)
	})
}

func TestNextPeriodEnd(t *testing.T) {
	t.Run("mid month rolls to the first of next month", func(t *testing.T) {
		at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), quota.NextPeriodEnd(at))
	})

	t.Run("december rolls into january", func(t *testing.T) {
		at := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), quota.NextPeriodEnd(at))
	})
}
