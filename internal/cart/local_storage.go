package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// LocalStorage is the device-scoped key/value store carts fall back to.
// scope is the device id; key is cart-guest or cart-<identity>.
type LocalStorage interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
}

// MemoryStorage keeps local carts in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryStorage returns an empty in-process storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[scope][key]
	return value, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.values[scope]
	if !ok {
		bucket = make(map[string]string)
		m.values[scope] = bucket
	}
	bucket[key] = value
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	LocalKey(scope, key string) string
}

// RedisStorage keeps local carts in Redis so they survive API restarts.
type RedisStorage struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisStorage stores values under sf:local:<scope>:<key> with ttl.
func NewRedisStorage(client redisKV, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (r *RedisStorage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.LocalKey(scope, key))
	if err != nil {
		if pkgredis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, scope, key, value string) error {
	return r.client.Set(ctx, r.client.LocalKey(scope, key), value, r.ttl)
}
