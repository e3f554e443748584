package generator

import (
	"time"

	"sugar-price-sentry/pkg/types"
)

// Params 时间窗口对应的采样参数
type Params struct {
	Points     int           `json:"points"`
	Interval   time.Duration `json:"-"`
	IntervalMs int64         `json:"interval_ms"`
	Volatility float64       `json:"volatility"`
}

var timeFrameParams = map[types.TimeFrame]Params{
	types.TimeFrame1H:  newParams(60, time.Minute, 0.01),
	types.TimeFrame24H: newParams(24, time.Hour, 0.05),
	types.TimeFrame7D:  newParams(7, 24*time.Hour, 0.15),
	types.TimeFrame30D: newParams(30, 24*time.Hour, 0.30),
}

func newParams(points int, interval time.Duration, volatility float64) Params {
	return Params{
		Points:     points,
		Interval:   interval,
		IntervalMs: interval.Milliseconds(),
		Volatility: volatility,
	}
}

// ParamsFor 查询时间窗口参数，未知窗口回退到24H
func ParamsFor(tf types.TimeFrame) Params {
	if p, ok := timeFrameParams[tf]; ok {
		return p
	}
	return timeFrameParams[types.DefaultTimeFrame]
}

// Label 横轴标签：1H/24H 显示时:分，7D/30D 显示月 日
func Label(timestampMs int64, tf types.TimeFrame, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(timestampMs).In(loc)
	switch tf {
	case types.TimeFrame7D, types.TimeFrame30D:
		return t.Format("Jan 2")
	default:
		return t.Format("15:04")
	}
}
