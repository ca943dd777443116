package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/engramhq/engram/entity"
)

// InMemoryStore is a map-backed Store used in tests and embedded setups.
type InMemoryStore struct {
	mu       sync.RWMutex
	memories map[string]*entity.Memory
}

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{memories: make(map[string]*entity.Memory)}
}

func (s *InMemoryStore) Create(ctx context.Context, tenantID string, m *entity.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.TenantID = tenantID
	clone := *m
	s.memories[m.ID] = &clone
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, tenantID string, id string) (*entity.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memories[id]
	if !ok || m.TenantID != tenantID {
		return nil, nil
	}
	clone := *m
	return &clone, nil
}

func (s *InMemoryStore) List(ctx context.Context, tenantID string, opts ListOptions) ([]entity.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []entity.Memory
	for _, m := range s.memories {
		if m.TenantID != tenantID {
			continue
		}
		if opts.UserID != "" && m.UserID != opts.UserID {
			continue
		}
		if opts.AgentID != "" && m.AgentID != opts.AgentID {
			continue
		}
		if opts.SessionID != "" && m.SessionID != opts.SessionID {
			continue
		}
		results = append(results, *m)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, tenantID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.memories[id]; ok && m.TenantID == tenantID {
		delete(s.memories, id)
	}
	return nil
}

func (s *InMemoryStore) DeleteByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, m := range s.memories {
		if m.TenantID == tenantID && m.UserID == userID {
			delete(s.memories, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemoryStore) CountMemories(ctx context.Context, tenantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, m := range s.memories {
		if m.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}
