package types

import (
	"fmt"
	"math"
	"time"
)

// Config 主配置结构
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Ticker    TickerConfig    `mapstructure:"ticker"`
	Model     ModelConfig     `mapstructure:"model"`
	Redis     RedisConfig     `mapstructure:"redis"`
	DingTalk  DingTalkConfig  `mapstructure:"dingtalk"`
	Alert     AlertConfig     `mapstructure:"alert"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`       // 日志级别
	FilePath   string `mapstructure:"file_path"`   // 日志输出目录，为空则只输出到控制台
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件大小 单位：MB，超限后会自动切割
	MaxAge     int    `mapstructure:"max_age"`     // 日志文件存放时间 单位：天
	MaxBackups int    `mapstructure:"max_backups"` // 日志文件备份数量
	Compress   bool   `mapstructure:"compress"`    // 日志文件压缩
}

// ServerConfig HTTP/WebSocket服务配置
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"` // WebSocket单次写超时
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Location        string        `mapstructure:"location"` // 横轴标签时区，如 Asia/Kolkata，为空使用本地时区
}

// TickerConfig 实时刷新配置
type TickerConfig struct {
	Interval time.Duration `mapstructure:"interval"` // 1s 或 3s
}

// ModelConfig 价格模型参数
type ModelConfig struct {
	BasePrice      float64 `mapstructure:"base_price"`       // 代币基准价格
	BaseProxyPrice float64 `mapstructure:"base_proxy_price"` // 印度白糖基准价格 INR/kg
	PriceFloor     float64 `mapstructure:"price_floor"`
	ProxyFloor     float64 `mapstructure:"proxy_floor"`
	ProxyStep      float64 `mapstructure:"proxy_step"`      // 生成历史序列时代理价格单步最大波动
	NoiseLow       float64 `mapstructure:"noise_low"`       // 生成时代币价格噪声下界
	NoiseHigh      float64 `mapstructure:"noise_high"`      // 生成时代币价格噪声上界
	TickProxyStep  float64 `mapstructure:"tick_proxy_step"` // tick时代理价格单步最大波动
	TickNoiseLow   float64 `mapstructure:"tick_noise_low"`
	TickNoiseHigh  float64 `mapstructure:"tick_noise_high"`
	Seed           int64   `mapstructure:"seed"` // 0 表示按时间播种
}

// DefaultModelConfig 默认模型参数
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		BasePrice:      0.45,
		BaseProxyPrice: 38,
		PriceFloor:     0.01,
		ProxyFloor:     30,
		ProxyStep:      0.02,
		NoiseLow:       0.9,
		NoiseHigh:      1.1,
		TickProxyStep:  0.02,
		TickNoiseLow:   0.98,
		TickNoiseHigh:  1.02,
	}
}

// Validate 检查模型参数，非法参数会在价格计算中产生NaN/Inf
func (m ModelConfig) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"base_price", m.BasePrice},
		{"base_proxy_price", m.BaseProxyPrice},
		{"price_floor", m.PriceFloor},
		{"proxy_floor", m.ProxyFloor},
		{"proxy_step", m.ProxyStep},
		{"tick_proxy_step", m.TickProxyStep},
		{"noise_low", m.NoiseLow},
		{"tick_noise_low", m.TickNoiseLow},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) || p.value <= 0 {
			return fmt.Errorf("model.%s 必须为正数: %v", p.name, p.value)
		}
	}

	if m.ProxyStep >= 1 {
		return fmt.Errorf("model.proxy_step 必须小于1: %v", m.ProxyStep)
	}
	if m.TickProxyStep >= 1 {
		return fmt.Errorf("model.tick_proxy_step 必须小于1: %v", m.TickProxyStep)
	}
	if m.NoiseLow > m.NoiseHigh || math.IsInf(m.NoiseHigh, 0) {
		return fmt.Errorf("model.noise_low(%v) 不能大于 noise_high(%v)", m.NoiseLow, m.NoiseHigh)
	}
	if m.TickNoiseLow > m.TickNoiseHigh || math.IsInf(m.TickNoiseHigh, 0) {
		return fmt.Errorf("model.tick_noise_low(%v) 不能大于 tick_noise_high(%v)", m.TickNoiseLow, m.TickNoiseHigh)
	}
	return nil
}

// RedisConfig Redis配置
type RedisConfig struct {
	URL         string        `mapstructure:"url"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"` // 快照缓存过期时间
	Channel     string        `mapstructure:"channel"`      // tick发布频道
}

// DingTalkConfig 钉钉配置
type DingTalkConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Secret     string `mapstructure:"secret"`
}

// AlertConfig 预警配置
type AlertConfig struct {
	Threshold float64       `mapstructure:"threshold"` // 涨跌幅阈值(%)，<=0 关闭
	Cooldown  time.Duration `mapstructure:"cooldown"`  // 同一会话重复预警间隔
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	ReportCron string `mapstructure:"report_cron"` // 状态汇报cron表达式
}
