package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sugar-price-sentry/pkg/types"
)

func testConfig() *types.Config {
	return &types.Config{
		Server:    types.ServerConfig{Addr: "127.0.0.1:0", Location: "UTC"},
		Ticker:    types.TickerConfig{Interval: 0},
		Model:     types.DefaultModelConfig(),
		Alert:     types.AlertConfig{Threshold: 5},
		Scheduler: types.SchedulerConfig{ReportCron: "@every 1h"},
	}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.server)
	assert.NotNil(t, app.scheduler)
	require.NoError(t, app.stateManager.Close())
}

func TestNewApp_BadLocation(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Location = "Mars/Olympus"
	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestApp_StartStop(t *testing.T) {
	app, err := NewApp(testConfig())
	require.NoError(t, err)
	require.NoError(t, app.Start())
	app.Stop()
}

func TestNewApp_InvalidModel(t *testing.T) {
	cfg := testConfig()
	cfg.Model.BaseProxyPrice = 0
	cfg.Model.ProxyFloor = 0
	_, err := NewApp(cfg)
	assert.Error(t, err)
}
