package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdirForTest(t, t.TempDir())

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Ticker.Interval)
	assert.Equal(t, 0.45, cfg.Model.BasePrice)
	assert.Equal(t, 38.0, cfg.Model.BaseProxyPrice)
	assert.Equal(t, 0.01, cfg.Model.PriceFloor)
	assert.Equal(t, 30.0, cfg.Model.ProxyFloor)
	assert.Equal(t, 5*time.Minute, cfg.Alert.Cooldown)
	assert.Equal(t, "@every 30s", cfg.Scheduler.ReportCron)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("TICKER_INTERVAL", "3s")
	t.Setenv("SERVER_ADDR", ":9090")

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Ticker.Interval)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_LocalFileWins(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"),
		[]byte("alert:\n  threshold: 2.5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.local.yaml"),
		[]byte("alert:\n  threshold: 7.5\n"), 0o644))

	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 7.5, cfg.Alert.Threshold)
}

func TestLoad_RejectsInvalidModel(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "零基准白糖价格", env: map[string]string{"MODEL_BASE_PROXY_PRICE": "0", "MODEL_PROXY_FLOOR": "0"}},
		{name: "负价格下限", env: map[string]string{"MODEL_PRICE_FLOOR": "-0.01"}},
		{name: "零步长", env: map[string]string{"MODEL_TICK_PROXY_STEP": "0"}},
		{name: "噪声区间颠倒", env: map[string]string{"MODEL_NOISE_LOW": "1.2", "MODEL_NOISE_HIGH": "0.8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirForTest(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWith(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "模型参数无效")
		})
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
