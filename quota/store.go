package quota

import (
	"context"
	"sync"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// CounterStore persists per-tenant monthly usage counters. Increment must
	// be a single atomic upsert, not read-then-write.
	CounterStore interface {
		Get(ctx context.Context, tenantID string) (*entity.UsageCounter, error)
		GetOrCreate(ctx context.Context, tenantID string, periodEndAt time.Time) (*entity.UsageCounter, error)
		Increment(ctx context.Context, tenantID string, periodEndAt time.Time) error
	}

	GormCounterStore struct {
		db *gorm.DB
	}

	InMemoryCounterStore struct {
		mu       sync.Mutex
		counters map[string]*entity.UsageCounter
	}
)

var (
	_ CounterStore = (*GormCounterStore)(nil)
	_ CounterStore = (*InMemoryCounterStore)(nil)
)

func NewGormCounterStore(db *gorm.DB) *GormCounterStore {
	return &GormCounterStore{db: db}
}

func (s *GormCounterStore) Get(ctx context.Context, tenantID string) (*entity.UsageCounter, error) {
	var counter entity.UsageCounter
	if r := s.db.WithContext(ctx).Find(&counter, "tenant_id = ?", tenantID); r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to get usage counter for tenant %s", tenantID)
	} else if r.RowsAffected == 0 {
		return nil, nil
	}
	return &counter, nil
}

func (s *GormCounterStore) GetOrCreate(ctx context.Context, tenantID string, periodEndAt time.Time) (*entity.UsageCounter, error) {
	counter := entity.UsageCounter{
		TenantID:    tenantID,
		PeriodEndAt: periodEndAt,
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoNothing: true,
		}).
		Create(&counter).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to create usage counter for tenant %s", tenantID)
	}

	existing, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.Errorf("usage counter for tenant %s vanished after upsert", tenantID)
	}
	return existing, nil
}

func (s *GormCounterStore) Increment(ctx context.Context, tenantID string, periodEndAt time.Time) error {
	counter := entity.UsageCounter{
		TenantID:       tenantID,
		MonthlyAPIUsed: 1,
		PeriodEndAt:    periodEndAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"monthly_api_used": gorm.Expr("monthly_api_used + ?", 1),
				"updated_at":       time.Now(),
			}),
		}).
		Create(&counter).Error
	return errors.Wrapf(err, "failed to increment usage for tenant %s", tenantID)
}

func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{counters: make(map[string]*entity.UsageCounter)}
}

func (s *InMemoryCounterStore) Get(ctx context.Context, tenantID string) (*entity.UsageCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[tenantID]
	if !ok {
		return nil, nil
	}
	clone := *counter
	return &clone, nil
}

func (s *InMemoryCounterStore) GetOrCreate(ctx context.Context, tenantID string, periodEndAt time.Time) (*entity.UsageCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[tenantID]
	if !ok {
		now := time.Now()
		counter = &entity.UsageCounter{
			TenantID:    tenantID,
			PeriodEndAt: periodEndAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.counters[tenantID] = counter
	}
	clone := *counter
	return &clone, nil
}

func (s *InMemoryCounterStore) Increment(ctx context.Context, tenantID string, periodEndAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[tenantID]
	if !ok {
		now := time.Now()
		counter = &entity.UsageCounter{
			TenantID:    tenantID,
			PeriodEndAt: periodEndAt,
			CreatedAt:   now,
		}
		s.counters[tenantID] = counter
	}
	counter.MonthlyAPIUsed++
	counter.UpdatedAt = time.Now()
	return nil
}
