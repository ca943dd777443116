package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type (
	// Service is the gate every memory write and API call passes through.
	Service interface {
		CheckMemoryQuota(ctx context.Context, tenantID string, quantity int64) (*Decision, error)
		CheckAPIQuota(ctx context.Context, tenantID string) (*Decision, error)
		IncrementAPIUsage(ctx context.Context, tenantID string) error
		IncrementAPIUsageByAPIKey(ctx context.Context, apiKeyID string) error
	}

	service struct {
		tiers    TierLookup
		memories MemoryCounter
		counters CounterStore
		logger   *slog.Logger
	}
)

var (
	_ Service = (*service)(nil)
)

func NewService(tiers TierLookup, memories MemoryCounter, counters CounterStore, logger *slog.Logger) Service {
	return &service{
		tiers:    tiers,
		memories: memories,
		counters: counters,
		logger:   logger,
	}
}

func (s *service) CheckMemoryQuota(ctx context.Context, tenantID string, quantity int64) (*Decision, error) {
	if quantity <= 0 {
		quantity = 1
	}

	tier, err := s.tiers.TierOf(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tier.Unlimited {
		return &Decision{Allowed: true, Tier: tier}, nil
	}

	count, err := s.memories.CountMemories(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if count+quantity >= tier.MemoryLimit {
		return &Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("memory limit of %d reached for tier %s", tier.MemoryLimit, tier.Name),
			Tier:    tier,
		}, nil
	}

	return &Decision{Allowed: true, Tier: tier}, nil
}

func (s *service) CheckAPIQuota(ctx context.Context, tenantID string) (*Decision, error) {
	tier, err := s.tiers.TierOf(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tier.Unlimited {
		return &Decision{Allowed: true, Tier: tier}, nil
	}

	counter, err := s.counters.GetOrCreate(ctx, tenantID, NextPeriodEnd(time.Now()))
	if err != nil {
		return nil, err
	}

	if counter.MonthlyAPIUsed >= tier.MonthlyAPILimit {
		return &Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("monthly API limit of %d reached for tier %s", tier.MonthlyAPILimit, tier.Name),
			Tier:    tier,
		}, nil
	}

	return &Decision{Allowed: true, Tier: tier}, nil
}

func (s *service) IncrementAPIUsage(ctx context.Context, tenantID string) error {
	return s.counters.Increment(ctx, tenantID, NextPeriodEnd(time.Now()))
}

// IncrementAPIUsageByAPIKey increments the counter keyed by the credential
// that made the call. The key id doubles as the tenant id in this data model.
func (s *service) IncrementAPIUsageByAPIKey(ctx context.Context, apiKeyID string) error {
	return s.IncrementAPIUsage(ctx, apiKeyID)
}
