package generator

import (
	"math"
	"time"

	"sugar-price-sentry/pkg/types"
)

// Generator 生成某个时间窗口的完整初始价格序列。
// 代币价格由印度白糖价格驱动：白糖价格做有界随机游走，代币价格按其相对基准的比例加噪声得到。
type Generator struct {
	model types.ModelConfig
	rnd   Source
	now   func() time.Time
	loc   *time.Location
}

// Option 生成器选项
type Option func(*Generator)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLocation 设置标签时区
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) { g.loc = loc }
}

func NewGenerator(model types.ModelConfig, rnd Source, opts ...Option) *Generator {
	g := &Generator{
		model: model,
		rnd:   rnd,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate 生成 points+1 个点，时间戳从 now-points*interval 到 now 严格递增
func (g *Generator) Generate(tf types.TimeFrame) types.Series {
	params := ParamsFor(tf)
	nowMs := g.now().UnixMilli()
	intervalMs := params.IntervalMs

	m := g.model
	proxy := m.BaseProxyPrice
	series := make(types.Series, 0, params.Points+1)

	for i := params.Points; i >= 0; i-- {
		ts := nowMs - int64(i)*intervalMs

		// 白糖价格单步波动 ±ProxyStep
		delta := Uniform(g.rnd, -m.ProxyStep, m.ProxyStep)
		proxy = math.Max(m.ProxyFloor, proxy*(1+delta))

		// 代币价格与白糖价格松散相关
		factor := proxy / m.BaseProxyPrice
		price := math.Max(m.PriceFloor, m.BasePrice*factor*Uniform(g.rnd, m.NoiseLow, m.NoiseHigh))

		series = append(series, types.SamplePoint{
			Timestamp:  ts,
			Label:      Label(ts, tf, g.loc),
			Price:      FormatPrice(price),
			ProxyPrice: FormatProxy(proxy),
		})
	}

	return series
}
