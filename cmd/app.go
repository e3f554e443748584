package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"sugar-price-sentry/internal/analyzer"
	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/internal/metrics"
	"sugar-price-sentry/internal/notifier"
	"sugar-price-sentry/internal/scheduler"
	"sugar-price-sentry/internal/storage"
	"sugar-price-sentry/internal/updater"
	"sugar-price-sentry/internal/web"
	"sugar-price-sentry/pkg/types"
)

// App 应用程序管理器
type App struct {
	config *types.Config

	stateManager *storage.StateManager
	scheduler    *scheduler.Scheduler
	server       *web.Server
}

// NewApp 创建应用程序实例
func NewApp(config *types.Config) (*App, error) {
	if err := config.Model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}

	loc := time.Local
	if config.Server.Location != "" {
		l, err := time.LoadLocation(config.Server.Location)
		if err != nil {
			return nil, fmt.Errorf("load location %q: %w", config.Server.Location, err)
		}
		loc = l
	}

	src := generator.NewSource(config.Model.Seed)
	gen := generator.NewGenerator(config.Model, src, generator.WithLocation(loc))
	upd := updater.NewUpdater(config.Model, src)

	stateManager := storage.NewStateManager(config.Redis)
	appMetrics := metrics.NewMetrics("")

	// 根据配置选择通知服务（钉钉 > 控制台）
	notifyService := notifier.NewDingTalkNotifier(config.DingTalk.WebhookURL, config.DingTalk.Secret)
	analysisEngine := analyzer.NewAnalysisEngine(stateManager, notifyService, config.Alert)

	taskScheduler := scheduler.NewScheduler(config.Scheduler, stateManager, analysisEngine)
	taskScheduler.OnAlerts(func(n int) { appMetrics.AlertsTotal.Add(float64(n)) })

	server := web.NewServer(config.Server, config.Ticker, web.Deps{
		Generator: gen,
		Updater:   upd,
		Store:     stateManager,
		Metrics:   appMetrics,
	})

	return &App{
		config:       config,
		stateManager: stateManager,
		scheduler:    taskScheduler,
		server:       server,
	}, nil
}

// Start 启动应用程序
func (app *App) Start() error {
	zap.L().Info("🚀 Sugar Price Sentry 启动中...")

	if err := app.scheduler.Start(); err != nil {
		return err
	}
	if err := app.server.Start(); err != nil {
		app.scheduler.Stop()
		return fmt.Errorf("start http server: %w", err)
	}

	zap.L().Info("✅ Sugar Price Sentry 已启动",
		zap.String("addr", app.config.Server.Addr),
		zap.Duration("tick", app.config.Ticker.Interval))
	return nil
}

// Stop 停止应用程序
func (app *App) Stop() {
	zap.L().Info("🛑 收到停止信号，正在优雅关闭...")

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		zap.L().Warn("⚠️ 强制关闭超时", zap.Error(err))
	}
	app.scheduler.Stop()
	if err := app.stateManager.Close(); err != nil {
		zap.L().Warn("⚠️ 关闭Redis连接失败", zap.Error(err))
	}

	zap.L().Info("✅ Sugar Price Sentry 已安全关闭")
}

// WaitForShutdown 等待关闭信号
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
