package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/errors"
)

type (
	// ValidatedKey is the cached product of a successful validation. The
	// tenant id is what the rest of the engine partitions by.
	ValidatedKey struct {
		TenantID string `json:"tenantId"`
		KeyName  string `json:"keyName"`
	}

	Validator struct {
		keys   KeyStore
		cache  Cache
		config *config.AuthConfig
		logger *slog.Logger

		// touchWG tracks in-flight last-used updates so Close can drain them.
		touchWG sync.WaitGroup
	}
)

func NewValidator(keys KeyStore, cache Cache, conf *config.AuthConfig, logger *slog.Logger) *Validator {
	if conf == nil {
		conf = config.NewAuthConfig()
	}
	return &Validator{
		keys:   keys,
		cache:  cache,
		config: conf,
		logger: logger,
	}
}

// ValidateKey checks the raw key's format, then resolves it through the cache
// or the store. Only successful validations are cached; revocation and expiry
// therefore take effect within one cache TTL at worst. The last-used timestamp
// is updated in the background and never delays or fails the caller.
func (v *Validator) ValidateKey(ctx context.Context, rawKey string) (*ValidatedKey, error) {
	if rawKey == "" || !strings.HasPrefix(rawKey, v.config.KeyPrefix) {
		return nil, errors.WithStack(errors.ErrKeyInvalidFormat)
	}

	hash := HashKey(rawKey)
	cacheKey := "auth:key:" + hash

	if cached, ok := v.tryGet(ctx, cacheKey); ok {
		var vk ValidatedKey
		if err := json.Unmarshal([]byte(cached), &vk); err == nil {
			v.touchLastUsedAsync(vk.TenantID)
			return &vk, nil
		}
		v.logger.Warn("discarding malformed cache entry", slog.String("key", cacheKey))
	}

	key, err := v.keys.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "api key not found")
	}
	if !key.Active {
		return nil, errors.WithStack(errors.ErrKeyInactive)
	}
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, errors.WithStack(errors.ErrKeyExpired)
	}
	if key.UserDeletedAt != nil {
		return nil, errors.WithStack(errors.ErrKeyUserDeleted)
	}

	vk := &ValidatedKey{TenantID: key.ID, KeyName: key.Name}
	v.trySet(ctx, cacheKey, vk)
	v.touchLastUsedAsync(key.ID)

	return vk, nil
}

// Close waits for background last-used updates to finish.
func (v *Validator) Close() {
	v.touchWG.Wait()
}

// tryGet degrades a cache failure to a miss.
func (v *Validator) tryGet(ctx context.Context, key string) (string, bool) {
	value, ok, err := v.cache.Get(ctx, key)
	if err != nil {
		v.logger.Warn("auth cache read failed", slog.String("key", key), slog.Any("err", err))
		return "", false
	}
	return value, ok
}

// trySet swallows cache write failures.
func (v *Validator) trySet(ctx context.Context, key string, vk *ValidatedKey) {
	payload, err := json.Marshal(vk)
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, key, string(payload), v.config.CacheTTL); err != nil {
		v.logger.Warn("auth cache write failed", slog.String("key", key), slog.Any("err", err))
	}
}

func (v *Validator) touchLastUsedAsync(id string) {
	v.touchWG.Add(1)
	go func() {
		defer v.touchWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := v.keys.TouchLastUsed(ctx, id, time.Now()); err != nil {
			v.logger.Warn("failed to update api key last-used", slog.String("id", id), slog.Any("err", err))
		}
	}()
}

// HashKey returns the hex sha256 digest stored and indexed in place of the
// raw key.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// GenerateKey mints a new raw key with the given prefix and returns it along
// with its hash. The raw key is shown to the caller exactly once.
func GenerateKey(prefix string) (rawKey string, hash string, err error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrapf(err, "failed to generate api key")
	}
	rawKey = prefix + hex.EncodeToString(buf)
	return rawKey, HashKey(rawKey), nil
}
