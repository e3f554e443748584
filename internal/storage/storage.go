package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"sugar-price-sentry/pkg/types"
)

const (
	snapshotKeyPrefix = "sugar:snapshot:"
	writeQueueSize    = 256
)

// redisOp 按提交顺序执行的Redis写操作；snap为nil表示删除
type redisOp struct {
	sessionID string
	snap      *types.Snapshot
}

// StateManager 状态管理器：保存每个活跃会话的最新快照，可选镜像到Redis
type StateManager struct {
	snapshots   map[string]*types.Snapshot
	mutex       sync.RWMutex
	redisClient *redis.Client
	useRedis    bool
	ttl         time.Duration
	channel     string

	writes   chan redisOp
	writesMu sync.RWMutex // 保护writes的关闭
	closed   bool
	done     chan struct{}
}

func NewStateManager(redisConfig types.RedisConfig) *StateManager {
	sm := &StateManager{
		snapshots: make(map[string]*types.Snapshot),
		ttl:       redisConfig.SnapshotTTL,
		channel:   redisConfig.Channel,
	}
	if sm.ttl <= 0 {
		sm.ttl = time.Minute
	}
	if sm.channel == "" {
		sm.channel = "sugar:ticks"
	}

	// 尝试连接Redis
	if redisConfig.URL == "" {
		zap.L().Info("🔧 未配置Redis，使用纯内存模式")
		return sm
	}

	sm.redisClient = redis.NewClient(&redis.Options{
		Addr:     redisConfig.URL,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sm.redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Warn("⚠️ Redis连接失败，使用纯内存模式", zap.Error(err))
		_ = sm.redisClient.Close()
		sm.redisClient = nil
		return sm
	}

	zap.L().Info("✅ Redis连接成功", zap.String("addr", redisConfig.URL))
	sm.useRedis = true
	sm.writes = make(chan redisOp, writeQueueSize)
	sm.done = make(chan struct{})
	go sm.writeLoop()
	return sm
}

// Notify 保存快照，实现 notifier.Sink
func (sm *StateManager) Notify(_ context.Context, snap *types.Snapshot) error {
	if snap == nil || snap.SessionID == "" {
		return fmt.Errorf("无效快照")
	}

	stored := snap.Clone()

	sm.mutex.Lock()
	sm.snapshots[snap.SessionID] = stored
	sm.mutex.Unlock()

	// 异步备份到Redis，单个写协程保证顺序
	sm.enqueue(redisOp{sessionID: snap.SessionID, snap: stored})
	return nil
}

// enqueue 队列满时阻塞，Close之后丢弃
func (sm *StateManager) enqueue(op redisOp) {
	if !sm.useRedis {
		return
	}
	sm.writesMu.RLock()
	defer sm.writesMu.RUnlock()
	if sm.closed {
		return
	}
	sm.writes <- op
}

// writeLoop 依次执行Redis写操作
func (sm *StateManager) writeLoop() {
	defer close(sm.done)
	for op := range sm.writes {
		if op.snap == nil {
			sm.deleteFromRedis(op.sessionID)
			continue
		}
		sm.backupToRedis(op.snap)
	}
}

// backupToRedis 缓存最新快照并发布tick
func (sm *StateManager) backupToRedis(snap *types.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	value, err := json.Marshal(snap)
	if err != nil {
		zap.L().Error("序列化快照失败", zap.Error(err))
		return
	}

	pipe := sm.redisClient.TxPipeline()
	pipe.Set(ctx, snapshotKeyPrefix+snap.SessionID, value, sm.ttl)
	pipe.Publish(ctx, sm.channel, value)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("Redis写入失败", zap.String("session", snap.SessionID), zap.Error(err))
	}
}

// Remove 会话结束时移除快照，Redis删除排在该会话之前的写入之后
func (sm *StateManager) Remove(sessionID string) {
	sm.mutex.Lock()
	delete(sm.snapshots, sessionID)
	sm.mutex.Unlock()

	sm.enqueue(redisOp{sessionID: sessionID})
}

func (sm *StateManager) deleteFromRedis(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := sm.redisClient.Del(ctx, snapshotKeyPrefix+sessionID).Err(); err != nil {
		zap.L().Warn("Redis删除快照失败", zap.String("session", sessionID), zap.Error(err))
	}
}

// Get 获取会话最新快照的副本
func (sm *StateManager) Get(sessionID string) (*types.Snapshot, bool) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	snap, ok := sm.snapshots[sessionID]
	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

// List 按会话ID排序返回所有快照副本
func (sm *StateManager) List() []*types.Snapshot {
	sm.mutex.RLock()
	out := make([]*types.Snapshot, 0, len(sm.snapshots))
	for _, snap := range sm.snapshots {
		out = append(out, snap.Clone())
	}
	sm.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Stats 存储状态统计
type Stats struct {
	RedisEnabled bool   `json:"redis_enabled"`
	Sessions     int    `json:"sessions"`
	RedisKeys    int    `json:"redis_keys,omitempty"`
	RedisError   string `json:"redis_error,omitempty"`
}

// GetStats 获取存储统计信息
func (sm *StateManager) GetStats() Stats {
	sm.mutex.RLock()
	stats := Stats{
		RedisEnabled: sm.useRedis,
		Sessions:     len(sm.snapshots),
	}
	sm.mutex.RUnlock()

	if sm.useRedis {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		keys, err := sm.redisClient.Keys(ctx, snapshotKeyPrefix+"*").Result()
		if err == nil {
			stats.RedisKeys = len(keys)
		} else {
			stats.RedisError = err.Error()
		}
	}

	return stats
}

// Close 等待排队的Redis写入完成并关闭连接，可重复调用
func (sm *StateManager) Close() error {
	if !sm.useRedis {
		return nil
	}

	sm.writesMu.Lock()
	if sm.closed {
		sm.writesMu.Unlock()
		return nil
	}
	sm.closed = true
	close(sm.writes)
	sm.writesMu.Unlock()

	<-sm.done
	return sm.redisClient.Close()
}
