package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sugar-price-sentry/pkg/types"
)

func snapshot(id string, price string) *types.Snapshot {
	return &types.Snapshot{
		SessionID: id,
		TimeFrame: types.TimeFrame24H,
		Series:    types.Series{{Timestamp: 1, Price: "0.4500"}, {Timestamp: 2, Price: price}},
		Stats:     types.DisplayStats{CurrentPrice: price},
	}
}

func TestStateManager_MemoryOnly(t *testing.T) {
	sm := NewStateManager(types.RedisConfig{})
	defer sm.Close()
	ctx := context.Background()

	require.NoError(t, sm.Notify(ctx, snapshot("b", "0.4600")))
	require.NoError(t, sm.Notify(ctx, snapshot("a", "0.4400")))
	require.NoError(t, sm.Notify(ctx, snapshot("b", "0.4700")))

	got, ok := sm.Get("b")
	require.True(t, ok)
	assert.Equal(t, "0.4700", got.Stats.CurrentPrice)

	list := sm.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].SessionID)
	assert.Equal(t, "b", list[1].SessionID)

	stats := sm.GetStats()
	assert.False(t, stats.RedisEnabled)
	assert.Equal(t, 2, stats.Sessions)

	sm.Remove("a")
	_, ok = sm.Get("a")
	assert.False(t, ok)
}

func TestStateManager_StoresCopies(t *testing.T) {
	sm := NewStateManager(types.RedisConfig{})
	defer sm.Close()

	snap := snapshot("s", "0.4600")
	require.NoError(t, sm.Notify(context.Background(), snap))

	snap.Series[1].Price = "9.9999"
	got, _ := sm.Get("s")
	assert.Equal(t, "0.4600", got.Series[1].Price)

	got.Series[1].Price = "1.0000"
	again, _ := sm.Get("s")
	assert.Equal(t, "0.4600", again.Series[1].Price)
}

func TestStateManager_RejectsInvalid(t *testing.T) {
	sm := NewStateManager(types.RedisConfig{})
	defer sm.Close()

	assert.Error(t, sm.Notify(context.Background(), nil))
	assert.Error(t, sm.Notify(context.Background(), &types.Snapshot{}))
}

func TestStateManager_UnreachableRedisFallsBack(t *testing.T) {
	sm := NewStateManager(types.RedisConfig{URL: "127.0.0.1:1"})
	defer sm.Close()

	assert.False(t, sm.GetStats().RedisEnabled)
	require.NoError(t, sm.Notify(context.Background(), snapshot("s", "0.4600")))
	_, ok := sm.Get("s")
	assert.True(t, ok)
}

func newRedisStateManager(t *testing.T) (*StateManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	sm := NewStateManager(types.RedisConfig{URL: mr.Addr(), SnapshotTTL: time.Minute, Channel: "sugar:test"})
	require.True(t, sm.GetStats().RedisEnabled)
	return sm, mr
}

func TestStateManager_RedisKeepsLatestSnapshot(t *testing.T) {
	sm, mr := newRedisStateManager(t)
	ctx := context.Background()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()}).Subscribe(ctx, "sugar:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	msgs := sub.Channel()

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, sm.Notify(ctx, snapshot("s", fmt.Sprintf("0.%04d", 4000+i))))
	}
	require.NoError(t, sm.Close())
	require.NoError(t, sm.Close())

	// 缓存的是最后一次写入
	raw, err := mr.Get(snapshotKeyPrefix + "s")
	require.NoError(t, err)
	var cached types.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, fmt.Sprintf("0.%04d", 4000+n-1), cached.Stats.CurrentPrice)
	assert.Equal(t, time.Minute, mr.TTL(snapshotKeyPrefix+"s"))

	// 订阅方按提交顺序收到tick
	for i := 0; i < n; i++ {
		select {
		case msg := <-msgs:
			var snap types.Snapshot
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &snap))
			assert.Equal(t, fmt.Sprintf("0.%04d", 4000+i), snap.Stats.CurrentPrice)
		case <-time.After(2 * time.Second):
			t.Fatalf("missing message %d", i)
		}
	}
}

func TestStateManager_RemovedKeyStaysDeleted(t *testing.T) {
	sm, mr := newRedisStateManager(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, sm.Notify(ctx, snapshot("gone", "0.4600")))
	}
	require.NoError(t, sm.Notify(ctx, snapshot("kept", "0.4700")))
	sm.Remove("gone")
	require.NoError(t, sm.Close())

	assert.False(t, mr.Exists(snapshotKeyPrefix+"gone"))
	assert.True(t, mr.Exists(snapshotKeyPrefix+"kept"))
	_, ok := sm.Get("gone")
	assert.False(t, ok)
}

func TestStateManager_NotifyAfterCloseKeepsMemory(t *testing.T) {
	sm, mr := newRedisStateManager(t)
	require.NoError(t, sm.Close())

	require.NoError(t, sm.Notify(context.Background(), snapshot("late", "0.4600")))
	sm.Remove("other")

	_, ok := sm.Get("late")
	assert.True(t, ok)
	assert.False(t, mr.Exists(snapshotKeyPrefix+"late"))
}
