package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sugar-price-sentry/pkg/types"
)

// fixedSource 循环返回固定序列
type fixedSource struct {
	values []float64
	i      int
}

func (s *fixedSource) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

var testNow = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

func newTestGenerator(src Source) *Generator {
	return NewGenerator(types.DefaultModelConfig(), src,
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC))
}

func TestGenerate_LengthAndSpacing(t *testing.T) {
	cases := []struct {
		tf         types.TimeFrame
		points     int
		intervalMs int64
	}{
		{types.TimeFrame1H, 61, 60_000},
		{types.TimeFrame24H, 25, 3_600_000},
		{types.TimeFrame7D, 8, 86_400_000},
		{types.TimeFrame30D, 31, 86_400_000},
	}

	g := newTestGenerator(NewSource(1))
	for _, tc := range cases {
		t.Run(tc.tf.String(), func(t *testing.T) {
			series := g.Generate(tc.tf)
			require.Len(t, series, tc.points)

			last, _ := series.Last()
			assert.Equal(t, testNow.UnixMilli(), last.Timestamp)

			for i := 1; i < len(series); i++ {
				assert.Equal(t, tc.intervalMs, series[i].Timestamp-series[i-1].Timestamp)
			}
		})
	}
}

func TestGenerate_UnknownTimeFrameFallsBackTo24H(t *testing.T) {
	g := newTestGenerator(NewSource(1))

	series := g.Generate(types.TimeFrame("5Y"))

	require.Len(t, series, 25)
	assert.Equal(t, int64(3_600_000), series[1].Timestamp-series[0].Timestamp)
	assert.Equal(t, "10:30", series[24].Label)
}

func TestGenerate_PricesRespectFloors(t *testing.T) {
	g := newTestGenerator(NewSource(7))

	for run := 0; run < 50; run++ {
		for _, tf := range types.TimeFrames {
			for _, p := range g.Generate(tf) {
				price, ok := ParseDecimal(p.Price)
				require.True(t, ok)
				proxy, ok := ParseDecimal(p.ProxyPrice)
				require.True(t, ok)

				assert.GreaterOrEqual(t, price, 0.01)
				assert.Greater(t, price, 0.0)
				assert.GreaterOrEqual(t, proxy, 30.0)
			}
		}
	}
}

func TestGenerate_ProxyClampsAtFloor(t *testing.T) {
	// 始终取下界：白糖每步下跌2%，代币噪声取0.9
	g := newTestGenerator(&fixedSource{values: []float64{0}})

	series := g.Generate(types.TimeFrame30D)

	last, _ := series.Last()
	assert.Equal(t, "30.00", last.ProxyPrice)
	// 0.45 * 30/38 * 0.9
	assert.Equal(t, "0.3197", last.Price)

	first, _ := series.First()
	assert.Equal(t, "37.24", first.ProxyPrice)
}

func TestGenerate_TokenPriceClampsAtFloor(t *testing.T) {
	model := types.DefaultModelConfig()
	model.BasePrice = 0.001
	g := NewGenerator(model, &fixedSource{values: []float64{0.5}},
		WithClock(func() time.Time { return testNow }))

	for _, p := range g.Generate(types.TimeFrame24H) {
		assert.Equal(t, "0.0100", p.Price)
	}
}

func TestGenerate_FormatsFixedPrecision(t *testing.T) {
	g := newTestGenerator(&fixedSource{values: []float64{0.5}})

	series := g.Generate(types.TimeFrame7D)

	for _, p := range series {
		// delta为0，白糖价格保持38，噪声为1.0
		assert.Equal(t, "38.00", p.ProxyPrice)
		assert.Equal(t, "0.4500", p.Price)
	}
}

func TestLabel(t *testing.T) {
	ts := testNow.UnixMilli()

	assert.Equal(t, "10:30", Label(ts, types.TimeFrame1H, time.UTC))
	assert.Equal(t, "10:30", Label(ts, types.TimeFrame24H, time.UTC))
	assert.Equal(t, "Mar 5", Label(ts, types.TimeFrame7D, time.UTC))
	assert.Equal(t, "Mar 5", Label(ts, types.TimeFrame30D, time.UTC))

	kolkata := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, "16:00", Label(ts, types.TimeFrame1H, kolkata))
}

func TestLabel_Idempotent(t *testing.T) {
	ts := testNow.UnixMilli()
	for _, tf := range types.TimeFrames {
		assert.Equal(t, Label(ts, tf, time.UTC), Label(ts, tf, time.UTC))
	}
}

func TestGenerate_LabelsByTimeFrame(t *testing.T) {
	g := newTestGenerator(NewSource(3))

	hourly := g.Generate(types.TimeFrame1H)
	assert.Equal(t, "09:30", hourly[0].Label)
	assert.Equal(t, "10:30", hourly[60].Label)

	weekly := g.Generate(types.TimeFrame7D)
	assert.Equal(t, "Feb 27", weekly[0].Label)
	assert.Equal(t, "Mar 5", weekly[7].Label)
}

func TestParamsFor(t *testing.T) {
	p := ParamsFor(types.TimeFrame30D)
	assert.Equal(t, 30, p.Points)
	assert.Equal(t, 24*time.Hour, p.Interval)
	assert.Equal(t, 0.30, p.Volatility)

	assert.Equal(t, ParamsFor(types.TimeFrame24H), ParamsFor("bogus"))
}

func TestParseDecimal(t *testing.T) {
	v, ok := ParseDecimal("0.4500")
	assert.True(t, ok)
	assert.Equal(t, 0.45, v)

	_, ok = ParseDecimal("")
	assert.False(t, ok)

	_, ok = ParseDecimal("abc")
	assert.False(t, ok)
}
