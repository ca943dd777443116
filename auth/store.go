package auth

import (
	"context"
	"sync"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"gorm.io/gorm"
)

type (
	// KeyStore is the API key lookup capability. GetByHash returns nil when no
	// key matches the hash.
	KeyStore interface {
		Create(ctx context.Context, key *entity.APIKey) error
		GetByHash(ctx context.Context, hash string) (*entity.APIKey, error)
		TouchLastUsed(ctx context.Context, id string, at time.Time) error
	}

	GormKeyStore struct {
		db *gorm.DB
	}

	InMemoryKeyStore struct {
		mu   sync.RWMutex
		keys map[string]entity.APIKey
	}
)

var (
	_ KeyStore = (*GormKeyStore)(nil)
	_ KeyStore = (*InMemoryKeyStore)(nil)
)

func NewGormKeyStore(db *gorm.DB) *GormKeyStore {
	return &GormKeyStore{db: db}
}

func (s *GormKeyStore) Create(ctx context.Context, key *entity.APIKey) error {
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return errors.Wrapf(err, "failed to create api key")
	}
	return nil
}

func (s *GormKeyStore) GetByHash(ctx context.Context, hash string) (*entity.APIKey, error) {
	var key entity.APIKey
	res := s.db.WithContext(ctx).Where("key_hash = ?", hash).Limit(1).Find(&key)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "failed to look up api key")
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &key, nil
}

func (s *GormKeyStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&entity.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
	return errors.Wrapf(err, "failed to touch api key %s", id)
}

func NewInMemoryKeyStore() *InMemoryKeyStore {
	return &InMemoryKeyStore{keys: make(map[string]entity.APIKey)}
}

func (s *InMemoryKeyStore) Create(ctx context.Context, key *entity.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = *key
	return nil
}

func (s *InMemoryKeyStore) GetByHash(ctx context.Context, hash string) (*entity.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.keys {
		if key.KeyHash == hash {
			key := key
			return &key, nil
		}
	}
	return nil, nil
}

func (s *InMemoryKeyStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[id]
	if !ok {
		return nil
	}
	key.LastUsedAt = &at
	s.keys[id] = key
	return nil
}
