package graph

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/engramhq/engram/entity"
	"github.com/samber/lo"
)

// InMemoryStore is a map-backed Store used in tests and embedded setups.
type InMemoryStore struct {
	mu        sync.RWMutex
	entities  map[string]*entity.Entity
	relations map[string]*entity.Relation
}

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entities:  make(map[string]*entity.Entity),
		relations: make(map[string]*entity.Relation),
	}
}

func (s *InMemoryStore) CreateEntity(ctx context.Context, tenantID string, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.TenantID = tenantID
	clone := *e
	s.entities[e.ID] = &clone
	return nil
}

func (s *InMemoryStore) UpdateEntity(ctx context.Context, tenantID string, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entities[e.ID]; ok && existing.TenantID == tenantID {
		clone := *e
		clone.TenantID = tenantID
		s.entities[e.ID] = &clone
	}
	return nil
}

func (s *InMemoryStore) GetEntityByID(ctx context.Context, tenantID string, id string) (*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok || e.TenantID != tenantID {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (s *InMemoryStore) GetEntitiesByIDs(ctx context.Context, tenantID string, ids []string) ([]entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Entity
	for _, id := range ids {
		if e, ok := s.entities[id]; ok && e.TenantID == tenantID {
			results = append(results, *e)
		}
	}
	return results, nil
}

func (s *InMemoryStore) FindEntityByName(ctx context.Context, tenantID string, userID string, entityType string, name string) (*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		if e.TenantID == tenantID && e.UserID == userID && e.Type == entityType &&
			strings.EqualFold(e.Name, name) {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) FindEntitiesByType(ctx context.Context, tenantID string, userID string, entityType string) ([]entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Entity
	for _, e := range s.entities {
		if e.TenantID == tenantID && e.UserID == userID && e.Type == entityType {
			results = append(results, *e)
		}
	}
	return results, nil
}

func (s *InMemoryStore) ListEntitiesByUser(ctx context.Context, tenantID string, userID string, limit int) ([]entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Entity
	for _, e := range s.entities {
		if e.TenantID == tenantID && e.UserID == userID {
			results = append(results, *e)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryStore) ListEntityTypes(ctx context.Context, tenantID string, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var types []string
	for _, e := range s.entities {
		if e.TenantID == tenantID && e.UserID == userID {
			types = append(types, e.Type)
		}
	}
	types = lo.Uniq(types)
	sort.Strings(types)
	return types, nil
}

func (s *InMemoryStore) DeleteEntity(ctx context.Context, tenantID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[id]; ok && e.TenantID == tenantID {
		delete(s.entities, id)
	}
	return nil
}

func (s *InMemoryStore) DeleteEntitiesByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, e := range s.entities {
		if e.TenantID == tenantID && e.UserID == userID {
			delete(s.entities, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) CreateRelation(ctx context.Context, tenantID string, r *entity.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.TenantID = tenantID
	clone := *r
	s.relations[r.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindRelationsByType(ctx context.Context, tenantID string, userID string, relationType string) ([]entity.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Relation
	for _, r := range s.relations {
		if r.TenantID == tenantID && r.UserID == userID && r.Type == relationType {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (s *InMemoryStore) FindRelationsByEntity(ctx context.Context, tenantID string, entityID string) ([]entity.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Relation
	for _, r := range s.relations {
		if r.TenantID == tenantID && (r.SourceID == entityID || r.TargetID == entityID) {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (s *InMemoryStore) FindRelationsBetween(ctx context.Context, tenantID string, a string, b string) ([]entity.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []entity.Relation
	for _, r := range s.relations {
		if r.TenantID != tenantID {
			continue
		}
		if (r.SourceID == a && r.TargetID == b) || (r.SourceID == b && r.TargetID == a) {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (s *InMemoryStore) FindRelationsAmong(ctx context.Context, tenantID string, entityIDs []string) ([]entity.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idSet := lo.SliceToMap(entityIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	var results []entity.Relation
	for _, r := range s.relations {
		if r.TenantID != tenantID {
			continue
		}
		if _, ok := idSet[r.SourceID]; !ok {
			continue
		}
		if _, ok := idSet[r.TargetID]; !ok {
			continue
		}
		results = append(results, *r)
	}
	return results, nil
}

func (s *InMemoryStore) DeleteRelation(ctx context.Context, tenantID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.relations[id]; ok && r.TenantID == tenantID {
		delete(s.relations, id)
	}
	return nil
}

func (s *InMemoryStore) DeleteRelationsByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, r := range s.relations {
		if r.TenantID == tenantID && r.UserID == userID {
			delete(s.relations, id)
			deleted++
		}
	}
	return deleted, nil
}
