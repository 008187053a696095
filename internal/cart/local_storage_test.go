package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

func TestMemoryStorageScopesByDevice(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, "device-a", "cart-guest", "[]"))

	value, ok, err := storage.Get(ctx, "device-a", "cart-guest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	_, ok, err = storage.Get(ctx, "device-b", "cart-guest")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	storage, err := NewRedisStorage(client, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := storage.Get(ctx, "device-a", "cart-user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Set(ctx, "device-a", "cart-user-1", `[{"id":"x"}]`))

	value, ok, err := storage.Get(ctx, "device-a", "cart-user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"x"}]`, value)

	key := client.LocalKey("device-a", "cart-user-1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, ok, err = storage.Get(ctx, "device-a", "cart-user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStorageBacksAdapter(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	storage, err := NewRedisStorage(client, time.Hour)
	require.NoError(t, err)
	adapter := newTestAdapter(t, storage, newFakeRemote(), nil, config.SnapshotPolicyKeep)
	ctx := context.Background()

	var c Cart
	c.Add(mustResolve(t, testProduct("tee", "20"), 0, "M"), 3)
	require.NoError(t, adapter.Save(ctx, testDevice, c, GuestIdentity))

	loaded := adapter.Load(ctx, testDevice, GuestIdentity)
	assert.Equal(t, 3, loaded.ItemCount())

	mr.Set(client.LocalKey(testDevice, "cart-guest"), "garbage")
	assert.Equal(t, 0, adapter.Load(ctx, testDevice, GuestIdentity).Len())
}

func TestNewRedisStorageRequiresClient(t *testing.T) {
	_, err := NewRedisStorage(nil, time.Hour)
	assert.Error(t, err)
}
