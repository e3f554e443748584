package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"sugar-price-sentry/pkg/types"
)

// Load 加载配置
func Load() (*types.Config, error) {
	return LoadWith(viper.New())
}

// LoadWith 使用指定的viper实例加载配置
func LoadWith(v *viper.Viper) (*types.Config, error) {
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// 设置默认值
	setDefaults(v)

	// 读取环境变量，如 SERVER_ADDR、TICKER_INTERVAL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 优先尝试读取本地配置文件
	v.SetConfigName("config.local")
	if err := v.ReadInConfig(); err != nil {
		// 如果本地配置文件不存在，尝试读取默认配置文件
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var config types.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Model.Validate(); err != nil {
		return nil, fmt.Errorf("模型参数无效: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	model := types.DefaultModelConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_path", "logs")
	v.SetDefault("log.max_size", 200)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.write_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.location", "")
	v.SetDefault("ticker.interval", time.Second)
	v.SetDefault("model.base_price", model.BasePrice)
	v.SetDefault("model.base_proxy_price", model.BaseProxyPrice)
	v.SetDefault("model.price_floor", model.PriceFloor)
	v.SetDefault("model.proxy_floor", model.ProxyFloor)
	v.SetDefault("model.proxy_step", model.ProxyStep)
	v.SetDefault("model.noise_low", model.NoiseLow)
	v.SetDefault("model.noise_high", model.NoiseHigh)
	v.SetDefault("model.tick_proxy_step", model.TickProxyStep)
	v.SetDefault("model.tick_noise_low", model.TickNoiseLow)
	v.SetDefault("model.tick_noise_high", model.TickNoiseHigh)
	v.SetDefault("model.seed", 0)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", time.Minute)
	v.SetDefault("redis.channel", "sugar:ticks")
	v.SetDefault("dingtalk.webhook_url", "")
	v.SetDefault("dingtalk.secret", "")
	v.SetDefault("alert.threshold", 5.0)
	v.SetDefault("alert.cooldown", 5*time.Minute)
	v.SetDefault("scheduler.report_cron", "@every 30s")
}
