package memory

import (
	"context"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"gorm.io/gorm"
)

type (
	// Store is the tenant-scoped memory repository. Every method takes the
	// tenant id explicitly; nothing is readable across tenants. Lookups that
	// miss return nil rather than an error so callers cannot distinguish
	// "not found" from "not owned".
	Store interface {
		Create(ctx context.Context, tenantID string, m *entity.Memory) error
		GetByID(ctx context.Context, tenantID string, id string) (*entity.Memory, error)
		List(ctx context.Context, tenantID string, opts ListOptions) ([]entity.Memory, error)
		Delete(ctx context.Context, tenantID string, id string) error
		DeleteByUser(ctx context.Context, tenantID string, userID string) (int64, error)
		CountMemories(ctx context.Context, tenantID string) (int64, error)
	}

	GormStore struct {
		db *gorm.DB
	}
)

var (
	_ Store = (*GormStore)(nil)
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, tenantID string, m *entity.Memory) error {
	m.TenantID = tenantID
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrapf(err, "failed to create memory")
	}
	return nil
}

func (s *GormStore) GetByID(ctx context.Context, tenantID string, id string) (*entity.Memory, error) {
	var m entity.Memory
	r := s.db.WithContext(ctx).Find(&m, "tenant_id = ? AND id = ?", tenantID, id)
	if r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to get memory %s", id)
	}
	if r.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}

func (s *GormStore) List(ctx context.Context, tenantID string, opts ListOptions) ([]entity.Memory, error) {
	tx := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if opts.UserID != "" {
		tx = tx.Where("user_id = ?", opts.UserID)
	}
	if opts.AgentID != "" {
		tx = tx.Where("agent_id = ?", opts.AgentID)
	}
	if opts.SessionID != "" {
		tx = tx.Where("session_id = ?", opts.SessionID)
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}

	var memories []entity.Memory
	if err := tx.Order("created_at DESC").Find(&memories).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list memories")
	}
	return memories, nil
}

func (s *GormStore) Delete(ctx context.Context, tenantID string, id string) error {
	err := s.db.WithContext(ctx).
		Delete(&entity.Memory{}, "tenant_id = ? AND id = ?", tenantID, id).Error
	return errors.Wrapf(err, "failed to delete memory %s", id)
}

func (s *GormStore) DeleteByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	r := s.db.WithContext(ctx).
		Delete(&entity.Memory{}, "tenant_id = ? AND user_id = ?", tenantID, userID)
	if r.Error != nil {
		return 0, errors.Wrapf(r.Error, "failed to delete memories for user %s", userID)
	}
	return r.RowsAffected, nil
}

func (s *GormStore) CountMemories(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entity.Memory{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count memories")
	}
	return count, nil
}
