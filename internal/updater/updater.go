package updater

import (
	"math"

	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/pkg/types"
)

// Updater 每次tick只替换序列的最后一个点，并重新计算展示统计
type Updater struct {
	model types.ModelConfig
	rnd   generator.Source
}

func NewUpdater(model types.ModelConfig, rnd generator.Source) *Updater {
	return &Updater{model: model, rnd: rnd}
}

// Tick 返回新的序列快照和统计；输入序列不会被修改，空序列直接返回
func (u *Updater) Tick(series types.Series) (types.Series, types.DisplayStats) {
	last, ok := series.Last()
	if !ok {
		return series, types.DisplayStats{}
	}

	next := series.Clone()
	next[len(next)-1] = u.step(last)

	return next, ComputeStats(next)
}

// step 计算最后一个点的新价格
func (u *Updater) step(last types.SamplePoint) types.SamplePoint {
	m := u.model
	price, _ := generator.ParseDecimal(last.Price)

	if proxy, ok := generator.ParseDecimal(last.ProxyPrice); ok {
		// 双变量：白糖价格 ±TickProxyStep，代币价格随之变化
		delta := generator.Uniform(u.rnd, -m.TickProxyStep, m.TickProxyStep) * proxy
		proxy = math.Max(m.ProxyFloor, proxy+delta)
		factor := proxy / m.BaseProxyPrice
		price = math.Max(m.PriceFloor, m.BasePrice*factor*generator.Uniform(u.rnd, m.TickNoiseLow, m.TickNoiseHigh))

		last.Price = generator.FormatPrice(price)
		last.ProxyPrice = generator.FormatProxy(proxy)
		return last
	}

	// 没有代理价格时直接对代币价格做 ±TickProxyStep 的随机游走
	delta := generator.Uniform(u.rnd, -m.TickProxyStep, m.TickProxyStep) * price
	price = math.Max(m.PriceFloor, price+delta)
	last.Price = generator.FormatPrice(price)
	return last
}

// ComputeStats 由首尾两个点计算展示统计
func ComputeStats(series types.Series) types.DisplayStats {
	first, ok := series.First()
	if !ok {
		return types.DisplayStats{}
	}
	last, _ := series.Last()

	stats := types.DisplayStats{
		CurrentPrice:      last.Price,
		CurrentProxyPrice: last.ProxyPrice,
	}

	firstPrice, _ := generator.ParseDecimal(first.Price)
	lastPrice, _ := generator.ParseDecimal(last.Price)
	if firstPrice > 0 {
		stats.PercentChange = (lastPrice - firstPrice) / firstPrice * 100
	}

	return stats
}
