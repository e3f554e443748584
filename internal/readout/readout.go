package readout

import (
	"fmt"

	"sugar-price-sentry/pkg/types"
)

const (
	ColorUp   = "#22c55e"
	ColorDown = "#ef4444"
)

// Readout 图表头部的展示文本
type Readout struct {
	Price    string `json:"price"`
	Change   string `json:"change"`
	Positive bool   `json:"positive"`
	Color    string `json:"color"`
	Period   string `json:"period"`
	Proxy    string `json:"proxy,omitempty"`
}

var periods = map[types.TimeFrame]string{
	types.TimeFrame1H:  "Last hour",
	types.TimeFrame24H: "Last 24 hours",
	types.TimeFrame7D:  "Last 7 days",
	types.TimeFrame30D: "Last 30 days",
}

// Period 时间窗口的描述文本
func Period(tf types.TimeFrame) string {
	if p, ok := periods[tf]; ok {
		return p
	}
	return periods[types.DefaultTimeFrame]
}

// Format 把统计数据格式化为展示文本；涨跌幅为0视为上涨
func Format(tf types.TimeFrame, stats types.DisplayStats) Readout {
	positive := stats.PercentChange >= 0

	r := Readout{
		Price:    "$" + stats.CurrentPrice,
		Change:   fmt.Sprintf("%.2f%%", stats.PercentChange),
		Positive: positive,
		Color:    ColorDown,
		Period:   Period(tf),
	}
	if positive {
		r.Change = "+" + r.Change
		r.Color = ColorUp
	}
	if stats.CurrentPrice == "" {
		r.Price = "$0.0000"
	}
	if stats.CurrentProxyPrice != "" {
		r.Proxy = fmt.Sprintf("Based on Indian sugar price: ₹%s/kg", stats.CurrentProxyPrice)
	}
	return r
}
