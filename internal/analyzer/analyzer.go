package analyzer

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/internal/notifier"
	"sugar-price-sentry/pkg/types"
)

// SnapshotLister 提供所有活跃会话的快照
type SnapshotLister interface {
	List() []*types.Snapshot
}

// AnalysisEngine 分析引擎：会话涨跌幅超过阈值时发出预警
type AnalysisEngine struct {
	snapshots    SnapshotLister
	notifier     notifier.Interface
	threshold    float64
	cooldown     time.Duration
	alertHistory map[string]time.Time // 防止重复预警
	mutex        sync.Mutex
	now          func() time.Time
}

func NewAnalysisEngine(snapshots SnapshotLister, notifyService notifier.Interface, cfg types.AlertConfig) *AnalysisEngine {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	return &AnalysisEngine{
		snapshots:    snapshots,
		notifier:     notifyService,
		threshold:    cfg.Threshold,
		cooldown:     cooldown,
		alertHistory: make(map[string]time.Time),
		now:          time.Now,
	}
}

// AnalyzeAll 分析所有会话并批量发送预警，返回触发的预警
func (ae *AnalysisEngine) AnalyzeAll() []*types.Alert {
	if ae.threshold <= 0 {
		return nil
	}

	var alerts []*types.Alert
	for _, snap := range ae.snapshots.List() {
		if alert := ae.Analyze(snap); alert != nil {
			alerts = append(alerts, alert)
		}
	}

	if len(alerts) == 0 {
		zap.L().Debug("✅ 分析完成，暂无异常波动")
		return nil
	}

	if err := ae.notifier.SendBatchAlerts(alerts); err != nil {
		zap.L().Error("❌ 批量发送预警失败", zap.Error(err))
	}
	zap.L().Info("✅ 分析完成", zap.Int("alerts", len(alerts)))
	return alerts
}

// Analyze 分析单个快照，返回预警数据或nil
func (ae *AnalysisEngine) Analyze(snap *types.Snapshot) *types.Alert {
	if ae.threshold <= 0 || snap == nil {
		return nil
	}

	change := snap.Stats.PercentChange
	if math.Abs(change) <= ae.threshold {
		return nil
	}

	// 检查是否在冷却期内已经预警过
	if !ae.shouldAlert(snap.SessionID) {
		return nil
	}

	first, _ := snap.Series.First()
	firstPrice, _ := generator.ParseDecimal(first.Price)
	currentPrice, _ := generator.ParseDecimal(snap.Stats.CurrentPrice)

	return &types.Alert{
		SessionID:     snap.SessionID,
		TimeFrame:     snap.TimeFrame,
		CurrentPrice:  currentPrice,
		FirstPrice:    firstPrice,
		ChangePercent: change,
		AlertTime:     ae.now(),
	}
}

// shouldAlert 检查并记录预警，冷却期内返回false
func (ae *AnalysisEngine) shouldAlert(sessionID string) bool {
	ae.mutex.Lock()
	defer ae.mutex.Unlock()

	now := ae.now()
	if last, ok := ae.alertHistory[sessionID]; ok && now.Sub(last) <= ae.cooldown {
		return false
	}
	ae.alertHistory[sessionID] = now

	// 清理超过1小时的预警历史
	cutoff := now.Add(-time.Hour)
	for id, t := range ae.alertHistory {
		if t.Before(cutoff) {
			delete(ae.alertHistory, id)
		}
	}
	return true
}
