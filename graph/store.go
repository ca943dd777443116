package graph

import (
	"context"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"gorm.io/gorm"
)

type (
	// Store is the tenant-scoped graph repository. Entity name matching is
	// case-insensitive where noted; missing rows come back as nil, not as an
	// error, so ownership and existence stay indistinguishable.
	Store interface {
		CreateEntity(ctx context.Context, tenantID string, e *entity.Entity) error
		UpdateEntity(ctx context.Context, tenantID string, e *entity.Entity) error
		GetEntityByID(ctx context.Context, tenantID string, id string) (*entity.Entity, error)
		GetEntitiesByIDs(ctx context.Context, tenantID string, ids []string) ([]entity.Entity, error)
		FindEntityByName(ctx context.Context, tenantID string, userID string, entityType string, name string) (*entity.Entity, error)
		FindEntitiesByType(ctx context.Context, tenantID string, userID string, entityType string) ([]entity.Entity, error)
		ListEntitiesByUser(ctx context.Context, tenantID string, userID string, limit int) ([]entity.Entity, error)
		ListEntityTypes(ctx context.Context, tenantID string, userID string) ([]string, error)
		DeleteEntity(ctx context.Context, tenantID string, id string) error
		DeleteEntitiesByUser(ctx context.Context, tenantID string, userID string) (int64, error)

		CreateRelation(ctx context.Context, tenantID string, r *entity.Relation) error
		FindRelationsByType(ctx context.Context, tenantID string, userID string, relationType string) ([]entity.Relation, error)
		FindRelationsByEntity(ctx context.Context, tenantID string, entityID string) ([]entity.Relation, error)
		FindRelationsBetween(ctx context.Context, tenantID string, a string, b string) ([]entity.Relation, error)
		FindRelationsAmong(ctx context.Context, tenantID string, entityIDs []string) ([]entity.Relation, error)
		DeleteRelation(ctx context.Context, tenantID string, id string) error
		DeleteRelationsByUser(ctx context.Context, tenantID string, userID string) (int64, error)
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

func (s *GormStore) CreateEntity(ctx context.Context, tenantID string, e *entity.Entity) error {
	e.TenantID = tenantID
	return errors.Wrapf(s.db.WithContext(ctx).Create(e).Error, "failed to create entity")
}

func (s *GormStore) UpdateEntity(ctx context.Context, tenantID string, e *entity.Entity) error {
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Save(e).Error
	return errors.Wrapf(err, "failed to update entity %s", e.ID)
}

func (s *GormStore) GetEntityByID(ctx context.Context, tenantID string, id string) (*entity.Entity, error) {
	var e entity.Entity
	r := s.db.WithContext(ctx).Find(&e, "tenant_id = ? AND id = ?", tenantID, id)
	if r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to get entity %s", id)
	}
	if r.RowsAffected == 0 {
		return nil, nil
	}
	return &e, nil
}

func (s *GormStore) GetEntitiesByIDs(ctx context.Context, tenantID string, ids []string) ([]entity.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []entity.Entity
	err := s.db.WithContext(ctx).
		Find(&entities, "tenant_id = ? AND id IN ?", tenantID, ids).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get entities by ids")
	}
	return entities, nil
}

func (s *GormStore) FindEntityByName(ctx context.Context, tenantID string, userID string, entityType string, name string) (*entity.Entity, error) {
	var e entity.Entity
	r := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND type = ? AND LOWER(name) = LOWER(?)",
			tenantID, userID, entityType, name).
		Limit(1).
		Find(&e)
	if r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to find entity by name")
	}
	if r.RowsAffected == 0 {
		return nil, nil
	}
	return &e, nil
}

func (s *GormStore) FindEntitiesByType(ctx context.Context, tenantID string, userID string, entityType string) ([]entity.Entity, error) {
	var entities []entity.Entity
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND type = ?", tenantID, userID, entityType).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find entities by type %s", entityType)
	}
	return entities, nil
}

func (s *GormStore) ListEntitiesByUser(ctx context.Context, tenantID string, userID string, limit int) ([]entity.Entity, error) {
	tx := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Order("created_at DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var entities []entity.Entity
	if err := tx.Find(&entities).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list entities")
	}
	return entities, nil
}

func (s *GormStore) ListEntityTypes(ctx context.Context, tenantID string, userID string) ([]string, error) {
	var types []string
	err := s.db.WithContext(ctx).
		Model(&entity.Entity{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Distinct("type").
		Order("type").
		Pluck("type", &types).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list entity types")
	}
	return types, nil
}

func (s *GormStore) DeleteEntity(ctx context.Context, tenantID string, id string) error {
	err := s.db.WithContext(ctx).
		Delete(&entity.Entity{}, "tenant_id = ? AND id = ?", tenantID, id).Error
	return errors.Wrapf(err, "failed to delete entity %s", id)
}

func (s *GormStore) DeleteEntitiesByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	r := s.db.WithContext(ctx).
		Delete(&entity.Entity{}, "tenant_id = ? AND user_id = ?", tenantID, userID)
	if r.Error != nil {
		return 0, errors.Wrapf(r.Error, "failed to delete entities for user %s", userID)
	}
	return r.RowsAffected, nil
}

func (s *GormStore) CreateRelation(ctx context.Context, tenantID string, r *entity.Relation) error {
	r.TenantID = tenantID
	return errors.Wrapf(s.db.WithContext(ctx).Create(r).Error, "failed to create relation")
}

func (s *GormStore) FindRelationsByType(ctx context.Context, tenantID string, userID string, relationType string) ([]entity.Relation, error) {
	var relations []entity.Relation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND type = ?", tenantID, userID, relationType).
		Order("created_at DESC").
		Find(&relations).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find relations by type %s", relationType)
	}
	return relations, nil
}

func (s *GormStore) FindRelationsByEntity(ctx context.Context, tenantID string, entityID string) ([]entity.Relation, error) {
	var relations []entity.Relation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND (source_id = ? OR target_id = ?)", tenantID, entityID, entityID).
		Find(&relations).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find relations for entity %s", entityID)
	}
	return relations, nil
}

func (s *GormStore) FindRelationsBetween(ctx context.Context, tenantID string, a string, b string) ([]entity.Relation, error) {
	var relations []entity.Relation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND ((source_id = ? AND target_id = ?) OR (source_id = ? AND target_id = ?))",
			tenantID, a, b, b, a).
		Find(&relations).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find relations between %s and %s", a, b)
	}
	return relations, nil
}

func (s *GormStore) FindRelationsAmong(ctx context.Context, tenantID string, entityIDs []string) ([]entity.Relation, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	var relations []entity.Relation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ? AND target_id IN ?", tenantID, entityIDs, entityIDs).
		Find(&relations).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find relations among entities")
	}
	return relations, nil
}

func (s *GormStore) DeleteRelation(ctx context.Context, tenantID string, id string) error {
	err := s.db.WithContext(ctx).
		Delete(&entity.Relation{}, "tenant_id = ? AND id = ?", tenantID, id).Error
	return errors.Wrapf(err, "failed to delete relation %s", id)
}

func (s *GormStore) DeleteRelationsByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	r := s.db.WithContext(ctx).
		Delete(&entity.Relation{}, "tenant_id = ? AND user_id = ?", tenantID, userID)
	if r.Error != nil {
		return 0, errors.Wrapf(r.Error, "failed to delete relations for user %s", userID)
	}
	return r.RowsAffected, nil
}
