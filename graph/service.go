package graph

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/google/uuid"
	"github.com/mokiat/gog"
	"gorm.io/datatypes"
)

type (
	Service interface {
		CreateEntity(ctx context.Context, tenantID string, input EntityInput) (*entity.Entity, error)
		UpsertEntity(ctx context.Context, tenantID string, input EntityInput) (*entity.Entity, error)
		UpsertEntities(ctx context.Context, tenantID string, inputs []EntityInput) ([]entity.Entity, error)
		GetEntity(ctx context.Context, tenantID string, id string) (*entity.Entity, error)
		FindEntitiesByType(ctx context.Context, tenantID string, userID string, entityType string) ([]entity.Entity, error)
		GetEntityTypes(ctx context.Context, tenantID string, userID string) ([]string, error)
		DeleteEntity(ctx context.Context, tenantID string, id string) error
		DeleteEntitiesByUser(ctx context.Context, tenantID string, userID string) (int64, error)

		CreateRelation(ctx context.Context, tenantID string, input RelationInput) (*entity.Relation, error)
		FindRelationsByType(ctx context.Context, tenantID string, userID string, relationType string) ([]entity.Relation, error)
		FindRelationsByEntity(ctx context.Context, tenantID string, entityID string) ([]entity.Relation, error)
		FindRelationsBetween(ctx context.Context, tenantID string, a string, b string) ([]entity.Relation, error)
		DeleteRelation(ctx context.Context, tenantID string, id string) error
		DeleteRelationsByUser(ctx context.Context, tenantID string, userID string) (int64, error)

		GetFullGraph(ctx context.Context, tenantID string, userID string, limit int) (*Graph, error)
		Traverse(ctx context.Context, tenantID string, startID string, opts TraverseOptions) (*Graph, error)
		FindPath(ctx context.Context, tenantID string, fromID string, toID string, maxDepth int) (*Path, error)
		GetNeighbors(ctx context.Context, tenantID string, entityID string, opts NeighborOptions) ([]Neighbor, error)
	}

	service struct {
		store  Store
		logger *slog.Logger
	}
)

var (
	_ Service = (*service)(nil)
)

func NewService(store Store, logger *slog.Logger) Service {
	return &service{store: store, logger: logger}
}

func (s *service) CreateEntity(ctx context.Context, tenantID string, input EntityInput) (*entity.Entity, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "entity name is required")
	}

	now := time.Now()
	e := &entity.Entity{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		UserID:     input.UserID,
		Type:       input.Type,
		Name:       input.Name,
		Properties: datatypes.NewJSONType(input.Properties),
		Confidence: confidenceOrDefault(input.Confidence),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateEntity(ctx, tenantID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpsertEntity deduplicates on (tenant, user, type, name) with the name
// compared case-insensitively. On a match the incoming properties are merged
// over the stored ones and the confidence is replaced.
func (s *service) UpsertEntity(ctx context.Context, tenantID string, input EntityInput) (*entity.Entity, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "entity name is required")
	}

	existing, err := s.store.FindEntityByName(ctx, tenantID, input.UserID, input.Type, input.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.CreateEntity(ctx, tenantID, input)
	}

	if input.Properties != nil {
		existing.Properties = datatypes.NewJSONType(
			gog.Merge(existing.Properties.Data(), input.Properties))
	}
	existing.Confidence = confidenceOrDefault(input.Confidence)
	existing.UpdatedAt = time.Now()

	if err := s.store.UpdateEntity(ctx, tenantID, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// UpsertEntities upserts in input order; the result preserves that order.
func (s *service) UpsertEntities(ctx context.Context, tenantID string, inputs []EntityInput) ([]entity.Entity, error) {
	results := make([]entity.Entity, 0, len(inputs))
	for _, input := range inputs {
		e, err := s.UpsertEntity(ctx, tenantID, input)
		if err != nil {
			return nil, err
		}
		results = append(results, *e)
	}
	return results, nil
}

func (s *service) GetEntity(ctx context.Context, tenantID string, id string) (*entity.Entity, error) {
	return s.store.GetEntityByID(ctx, tenantID, id)
}

func (s *service) FindEntitiesByType(ctx context.Context, tenantID string, userID string, entityType string) ([]entity.Entity, error) {
	return s.store.FindEntitiesByType(ctx, tenantID, userID, entityType)
}

func (s *service) GetEntityTypes(ctx context.Context, tenantID string, userID string) ([]string, error) {
	return s.store.ListEntityTypes(ctx, tenantID, userID)
}

func (s *service) DeleteEntity(ctx context.Context, tenantID string, id string) error {
	return s.store.DeleteEntity(ctx, tenantID, id)
}

func (s *service) DeleteEntitiesByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	return s.store.DeleteEntitiesByUser(ctx, tenantID, userID)
}

// CreateRelation inserts unconditionally. Source and target are not checked
// for existence; referential sanity belongs to callers such as the extraction
// pipeline, and speculative external ids are allowed.
func (s *service) CreateRelation(ctx context.Context, tenantID string, input RelationInput) (*entity.Relation, error) {
	if input.SourceID == "" || input.TargetID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "relation source and target are required")
	}

	validFrom, err := ParseDate(input.ValidFrom)
	if err != nil {
		return nil, err
	}
	validTo, err := ParseDate(input.ValidTo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r := &entity.Relation{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		UserID:     input.UserID,
		SourceID:   input.SourceID,
		TargetID:   input.TargetID,
		Type:       input.Type,
		Properties: datatypes.NewJSONType(input.Properties),
		Confidence: confidenceOrDefault(input.Confidence),
		ValidFrom:  validFrom,
		ValidTo:    validTo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateRelation(ctx, tenantID, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) FindRelationsByType(ctx context.Context, tenantID string, userID string, relationType string) ([]entity.Relation, error) {
	return s.store.FindRelationsByType(ctx, tenantID, userID, relationType)
}

func (s *service) FindRelationsByEntity(ctx context.Context, tenantID string, entityID string) ([]entity.Relation, error) {
	return s.store.FindRelationsByEntity(ctx, tenantID, entityID)
}

func (s *service) FindRelationsBetween(ctx context.Context, tenantID string, a string, b string) ([]entity.Relation, error) {
	return s.store.FindRelationsBetween(ctx, tenantID, a, b)
}

func (s *service) DeleteRelation(ctx context.Context, tenantID string, id string) error {
	return s.store.DeleteRelation(ctx, tenantID, id)
}

func (s *service) DeleteRelationsByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	return s.store.DeleteRelationsByUser(ctx, tenantID, userID)
}

func confidenceOrDefault(confidence *float64) float64 {
	if confidence == nil {
		return 1.0
	}
	return *confidence
}
