package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"sugar-price-sentry/internal/metrics"
	"sugar-price-sentry/internal/notifier"
	"sugar-price-sentry/internal/updater"
	"sugar-price-sentry/pkg/types"
)

var (
	ErrSessionStarted    = errors.New("session already started")
	ErrSessionNotStarted = errors.New("session not started")
	ErrSessionStopped    = errors.New("session stopped")
)

// SeriesGenerator 生成完整序列
type SeriesGenerator interface {
	Generate(tf types.TimeFrame) types.Series
}

// SeriesUpdater 推进序列的最后一个点
type SeriesUpdater interface {
	Tick(series types.Series) (types.Series, types.DisplayStats)
}

// SessionConfig 会话参数
type SessionConfig struct {
	ID        string
	Interval  time.Duration
	Generator SeriesGenerator
	Updater   SeriesUpdater
	Sink      notifier.Sink    // 可为nil
	Metrics   *metrics.Metrics // 可为nil
}

// Session 一个图表会话：独占自己的序列，同一时刻只有一个定时任务
type Session struct {
	id       string
	interval time.Duration
	gen      SeriesGenerator
	upd      SeriesUpdater
	sink     notifier.Sink
	metrics  *metrics.Metrics
	now      func() time.Time

	mu         sync.Mutex
	parent     context.Context
	cancel     context.CancelFunc
	tf         types.TimeFrame
	generation uint64
	series     types.Series
	stats      types.DisplayStats
	updatedAt  time.Time
	started    bool
	stopped    bool

	wg sync.WaitGroup
}

func NewSession(cfg SessionConfig) *Session {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &Session{
		id:       cfg.ID,
		interval: interval,
		gen:      cfg.Generator,
		upd:      cfg.Updater,
		sink:     cfg.Sink,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// ID 会话标识
func (s *Session) ID() string { return s.id }

// Start 生成初始序列并启动定时任务
func (s *Session) Start(ctx context.Context, tf types.TimeFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSessionStopped
	}
	if s.started {
		return ErrSessionStarted
	}
	s.started = true
	s.parent = ctx

	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}
	zap.L().Info("🚀 会话启动", zap.String("session", s.id), zap.String("timeframe", types.ParseTimeFrame(string(tf)).String()))

	s.resetLocked(tf)
	return nil
}

// SwitchTimeFrame 取消当前定时任务，整体替换序列，再为新窗口启动定时任务
func (s *Session) SwitchTimeFrame(tf types.TimeFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSessionStopped
	}
	if !s.started {
		return ErrSessionNotStarted
	}

	next := types.ParseTimeFrame(string(tf))
	if s.metrics != nil {
		s.metrics.TimeFrameSwitches.WithLabelValues(next.String()).Inc()
	}
	zap.L().Info("🔄 切换时间窗口",
		zap.String("session", s.id),
		zap.String("from", s.tf.String()),
		zap.String("to", next.String()))

	s.resetLocked(next)
	return nil
}

// Stop 取消定时任务并等待其退出，可重复调用
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	started := s.started
	s.mu.Unlock()

	s.wg.Wait()

	if started && s.metrics != nil {
		s.metrics.SessionsActive.Dec()
		s.metrics.Forget(s.id)
	}
	zap.L().Info("📴 会话已停止", zap.String("session", s.id))
}

// Snapshot 当前状态的深拷贝；未启动时返回nil
func (s *Session) Snapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	return s.snapshotLocked()
}

// resetLocked 调用方必须持有锁
func (s *Session) resetLocked(tf types.TimeFrame) {
	if s.cancel != nil {
		s.cancel()
	}

	s.tf = types.ParseTimeFrame(string(tf))
	s.generation++
	s.series = s.gen.Generate(s.tf)
	s.stats = updater.ComputeStats(s.series)
	s.updatedAt = s.now()

	if s.metrics != nil {
		s.metrics.SeriesGenerated.WithLabelValues(s.tf.String()).Inc()
	}

	loopCtx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.publishLocked(loopCtx)

	s.wg.Add(1)
	go s.loop(loopCtx, s.generation)
}

func (s *Session) loop(ctx context.Context, generation uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, generation)
		}
	}
}

// tick 属于旧窗口的tick直接丢弃
func (s *Session) tick(ctx context.Context, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || generation != s.generation || s.stopped {
		return
	}

	s.series, s.stats = s.upd.Tick(s.series)
	s.updatedAt = s.now()

	if s.metrics != nil {
		s.metrics.TicksTotal.WithLabelValues(s.tf.String()).Inc()
	}
	s.publishLocked(ctx)
}

func (s *Session) publishLocked(ctx context.Context) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, s.snapshotLocked()); err != nil {
		zap.L().Warn("⚠️ 快照推送失败", zap.String("session", s.id), zap.Error(err))
	}
}

func (s *Session) snapshotLocked() *types.Snapshot {
	return &types.Snapshot{
		SessionID:  s.id,
		TimeFrame:  s.tf,
		Generation: s.generation,
		Series:     s.series.Clone(),
		Stats:      s.stats,
		UpdatedAt:  s.updatedAt,
	}
}
