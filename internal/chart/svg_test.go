package chart

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sugar-price-sentry/internal/readout"
	"sugar-price-sentry/pkg/types"
)

func testSeries(n int) types.Series {
	s := make(types.Series, n)
	for i := range s {
		s[i] = types.SamplePoint{
			Timestamp: int64(i) * 3_600_000,
			Label:     fmt.Sprintf("L%02d", i),
			Price:     fmt.Sprintf("0.%04d", 4400+i*10),
		}
	}
	return s
}

func TestLabelIndexes(t *testing.T) {
	assert.Nil(t, LabelIndexes(0, 8))
	assert.Equal(t, []int{0, 1, 2}, LabelIndexes(3, 8))

	idx := LabelIndexes(61, 8)
	require.Len(t, idx, 8)
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 60, idx[len(idx)-1])
	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestRenderSVG(t *testing.T) {
	series := testSeries(25)
	ro := readout.Format(types.TimeFrame24H, types.DisplayStats{CurrentPrice: "0.4640", PercentChange: -1.5, CurrentProxyPrice: "38.00"})

	out := string(RenderSVG(series, ro, Options{}))

	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Contains(t, out, "width='900' height='300'")
	assert.Contains(t, out, Title)
	assert.Contains(t, out, readout.ColorDown)
	assert.NotContains(t, out, readout.ColorUp)
	assert.Contains(t, out, "$0.4640")
	assert.Contains(t, out, "Last 24 hours")
	assert.Contains(t, out, "₹38.00/kg")

	// 横轴最多8个标签，首尾必在
	assert.Equal(t, MaxAxisLabels, strings.Count(out, "text-anchor='middle'"))
	assert.Contains(t, out, ">L00<")
	assert.Contains(t, out, ">L24<")
}

func TestRenderSVG_Empty(t *testing.T) {
	out := string(RenderSVG(nil, readout.Readout{}, Options{Width: 400, Height: 200}))
	assert.Contains(t, out, "width='400' height='200'")
	assert.NotContains(t, out, "polyline")
	assert.True(t, strings.HasSuffix(out, "</svg>"))
}

func TestRenderSVG_FlatSeries(t *testing.T) {
	series := types.Series{{Label: "a", Price: "0.4500"}, {Label: "b", Price: "0.4500"}}
	out := string(RenderSVG(series, readout.Readout{}, Options{}))
	assert.Contains(t, out, "polyline")
	assert.NotContains(t, out, "NaN")
}

func TestRenderSVG_TinySizeKeepsPlotPositive(t *testing.T) {
	out := string(RenderSVG(testSeries(5), readout.Readout{}, Options{Width: 10, Height: 10}))
	assert.Contains(t, out, fmt.Sprintf("width='%d' height='%d'", MinWidth, MinHeight))
	assert.NotContains(t, out, "NaN")

	start := strings.Index(out, "points='")
	require.GreaterOrEqual(t, start, 0)
	points := out[start+len("points='"):]
	points = points[:strings.Index(points, "'")]
	assert.NotContains(t, points, "-")
}
