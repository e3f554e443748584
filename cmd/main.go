package main

import (
	"log"

	"go.uber.org/zap"
	"sugar-price-sentry/pkg/config"
	"sugar-price-sentry/pkg/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	// 初始化日志
	restore, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatal("初始化日志失败:", err)
	}
	defer restore()

	app, err := NewApp(cfg)
	if err != nil {
		zap.L().Fatal("❌ 初始化失败", zap.Error(err))
	}
	if err := app.Start(); err != nil {
		zap.L().Fatal("❌ 启动失败", zap.Error(err))
	}

	app.WaitForShutdown()
	app.Stop()
}
