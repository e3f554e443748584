package readout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"sugar-price-sentry/pkg/types"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		tf    types.TimeFrame
		stats types.DisplayStats
		want  Readout
	}{
		{
			name:  "上涨",
			tf:    types.TimeFrame1H,
			stats: types.DisplayStats{CurrentPrice: "0.4512", PercentChange: 1.234, CurrentProxyPrice: "38.12"},
			want: Readout{
				Price: "$0.4512", Change: "+1.23%", Positive: true, Color: ColorUp,
				Period: "Last hour", Proxy: "Based on Indian sugar price: ₹38.12/kg",
			},
		},
		{
			name:  "下跌",
			tf:    types.TimeFrame30D,
			stats: types.DisplayStats{CurrentPrice: "0.4100", PercentChange: -0.5},
			want: Readout{
				Price: "$0.4100", Change: "-0.50%", Positive: false, Color: ColorDown,
				Period: "Last 30 days",
			},
		},
		{
			name:  "持平视为上涨",
			tf:    types.TimeFrame7D,
			stats: types.DisplayStats{CurrentPrice: "0.4500"},
			want: Readout{
				Price: "$0.4500", Change: "+0.00%", Positive: true, Color: ColorUp,
				Period: "Last 7 days",
			},
		},
		{
			name:  "空统计",
			tf:    types.TimeFrame("bogus"),
			stats: types.DisplayStats{},
			want: Readout{
				Price: "$0.0000", Change: "+0.00%", Positive: true, Color: ColorUp,
				Period: "Last 24 hours",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.tf, tt.stats))
		})
	}
}
