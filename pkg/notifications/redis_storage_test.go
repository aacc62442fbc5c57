package notifications_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
)

func newRedisStorage(t *testing.T) (*notifications.RedisStorage, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return notifications.NewRedisStorage(client, "test"), client
}

// touch rewrites the record key with its own value, which invalidates any
// transaction watching it.
func touch(ctx context.Context, t *testing.T, client *redis.Client, id string) {
	t.Helper()
	key := "test:notification:" + id
	value, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	require.NoError(t, client.Set(ctx, key, value, 0).Err())
}

func TestRedisStorage_CreateAndLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newRedisStorage(t)

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Create(ctx, emailRecord("a@example.com", "Hi")))

	rec, err := store.Latest(ctx, "a@example.com", "Hi")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, notifications.StatusQueued, rec.Status)
	assert.Equal(t, "welcome", rec.TemplateName)
	assert.Equal(t, "Ada", rec.Data["name"])

	_, err = store.Latest(ctx, "a@example.com", "Other")
	assert.ErrorIs(t, err, notifications.ErrRecordNotFound)
}

func TestRedisStorage_UpsertStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates missing record", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStorage(t)

		require.NoError(t, store.UpsertStatus(ctx, "u1", "order.shipped", notifications.StatusFailedDLQ,
			notifications.WithChannel(notifications.ChannelWebSocket)))

		rec, err := store.Latest(ctx, "u1", "order.shipped")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusFailedDLQ, rec.Status)
		assert.Equal(t, notifications.ChannelWebSocket, rec.Channel)
	})

	t.Run("transitions and keeps terminal status", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStorage(t)
		require.NoError(t, store.Create(ctx, emailRecord("a@example.com", "Hi")))
		created, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)

		require.NoError(t, store.UpsertStatus(ctx, "a@example.com", "Hi", notifications.StatusFailed))
		require.NoError(t, store.UpsertStatus(ctx, "a@example.com", "Hi", notifications.StatusSent))
		require.NoError(t, store.UpsertStatus(ctx, "a@example.com", "Hi", notifications.StatusFailedDLQ))

		rec, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)
		assert.Equal(t, created.ID, rec.ID)
		assert.Equal(t, notifications.StatusSent, rec.Status)
	})

	t.Run("retries when a concurrent writer wins", func(t *testing.T) {
		t.Parallel()
		store, client := newRedisStorage(t)
		require.NoError(t, store.Create(ctx, emailRecord("a@example.com", "Hi")))
		created, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)

		var calls atomic.Int32
		store.SetClock(func() time.Time {
			if calls.Add(1) == 1 {
				touch(ctx, t, client, created.ID)
			}
			return time.Now()
		})

		require.NoError(t, store.UpsertStatus(ctx, "a@example.com", "Hi", notifications.StatusSent))
		assert.Equal(t, int32(2), calls.Load(), "the conflicting attempt is replayed once")

		rec, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusSent, rec.Status)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		t.Parallel()
		store, client := newRedisStorage(t)
		require.NoError(t, store.Create(ctx, emailRecord("a@example.com", "Hi")))
		created, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)

		var calls atomic.Int32
		store.SetClock(func() time.Time {
			calls.Add(1)
			touch(ctx, t, client, created.ID)
			return time.Now()
		})

		err = store.UpsertStatus(ctx, "a@example.com", "Hi", notifications.StatusSent)
		require.ErrorIs(t, err, notifications.ErrStorageFailure)
		assert.ErrorIs(t, err, redis.TxFailedErr)
		assert.Equal(t, int32(notifications.MaxUpdateAttempts), calls.Load())

		store.SetClock(time.Now)
		rec, err := store.Latest(ctx, "a@example.com", "Hi")
		require.NoError(t, err)
		assert.Equal(t, notifications.StatusQueued, rec.Status)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		t.Parallel()
		store, _ := newRedisStorage(t)
		assert.ErrorIs(t, store.UpsertStatus(ctx, "", "Hi", notifications.StatusSent), notifications.ErrTargetRequired)
		assert.ErrorIs(t, store.UpsertStatus(ctx, "a", "Hi", "bogus"), notifications.ErrInvalidStatus)
	})
}
