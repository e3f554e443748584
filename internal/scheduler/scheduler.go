package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"sugar-price-sentry/internal/storage"
	"sugar-price-sentry/pkg/types"
)

// StatsSource 提供存储状态
type StatsSource interface {
	GetStats() storage.Stats
}

// Analyzer 周期性的全量分析
type Analyzer interface {
	AnalyzeAll() []*types.Alert
}

// Scheduler 定时报告存储状态并触发涨跌幅分析
type Scheduler struct {
	cron     *cron.Cron
	expr     string
	stats    StatsSource
	analyzer Analyzer
	onAlerts func(n int)
}

func NewScheduler(cfg types.SchedulerConfig, stats StatsSource, analysisEngine Analyzer) *Scheduler {
	expr := cfg.ReportCron
	if expr == "" {
		expr = "@every 30s"
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		expr:     expr,
		stats:    stats,
		analyzer: analysisEngine,
	}
}

// OnAlerts 每轮分析触发预警后的回调
func (s *Scheduler) OnAlerts(fn func(n int)) {
	s.onAlerts = fn
}

// Start 注册任务并启动
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.expr, s.RunOnce); err != nil {
		return fmt.Errorf("register report task %q: %w", s.expr, err)
	}
	s.cron.Start()
	zap.L().Info("🚀 调度器已启动", zap.String("cron", s.expr))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("📴 调度器已停止")
}

// RunOnce 执行一轮状态报告与分析
func (s *Scheduler) RunOnce() {
	stats := s.stats.GetStats()
	fields := []zap.Field{
		zap.Int("sessions", stats.Sessions),
		zap.Bool("redis_enabled", stats.RedisEnabled),
	}
	if stats.RedisEnabled {
		fields = append(fields, zap.Int("redis_keys", stats.RedisKeys))
	}
	zap.L().Info("📊 存储状态", fields...)

	if s.analyzer == nil {
		return
	}
	alerts := s.analyzer.AnalyzeAll()
	if len(alerts) > 0 && s.onAlerts != nil {
		s.onAlerts(len(alerts))
	}
}
