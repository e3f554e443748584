package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/pkg/types"
)

// Metrics Prometheus指标集合
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal        *prometheus.CounterVec
	TimeFrameSwitches *prometheus.CounterVec
	SessionsActive    prometheus.Gauge
	TokenPrice        *prometheus.GaugeVec
	ProxyPrice        *prometheus.GaugeVec
	PercentChange     *prometheus.GaugeVec
	AlertsTotal       prometheus.Counter
	SeriesGenerated   *prometheus.CounterVec
	WebSocketMessages *prometheus.CounterVec
}

// NewMetrics 创建指标，注册在独立的registry上
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sugar_price"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TicksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of applied ticks by timeframe.",
		}, []string{"timeframe"}),
		TimeFrameSwitches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeframe_switches_total",
			Help:      "Total number of timeframe switches by target timeframe.",
		}, []string{"timeframe"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live chart sessions.",
		}),
		TokenPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "token_price",
			Help:      "Current synthetic token price per session.",
		}, []string{"session"}),
		ProxyPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proxy_price_inr",
			Help:      "Current proxy sugar price (INR/kg) per session.",
		}, []string{"session"}),
		PercentChange: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "percent_change",
			Help:      "Percent change over the session window.",
		}, []string{"session"}),
		AlertsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total number of swing alerts raised.",
		}),
		SeriesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_generated_total",
			Help:      "Total number of generated series by timeframe.",
		}, []string{"timeframe"}),
		WebSocketMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_total",
			Help:      "WebSocket messages by direction.",
		}, []string{"direction"}),
	}
}

// Handler /metrics 的处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 底层registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Notify 根据快照更新价格指标，实现 notifier.Sink
func (m *Metrics) Notify(_ context.Context, snap *types.Snapshot) error {
	if price, ok := generator.ParseDecimal(snap.Stats.CurrentPrice); ok {
		m.TokenPrice.WithLabelValues(snap.SessionID).Set(price)
	}
	if proxy, ok := generator.ParseDecimal(snap.Stats.CurrentProxyPrice); ok {
		m.ProxyPrice.WithLabelValues(snap.SessionID).Set(proxy)
	}
	m.PercentChange.WithLabelValues(snap.SessionID).Set(snap.Stats.PercentChange)
	return nil
}

// Forget 会话结束后删除该会话的指标
func (m *Metrics) Forget(sessionID string) {
	m.TokenPrice.DeleteLabelValues(sessionID)
	m.ProxyPrice.DeleteLabelValues(sessionID)
	m.PercentChange.DeleteLabelValues(sessionID)
}
