package generator

import (
	"github.com/shopspring/decimal"
)

const (
	pricePlaces = 4
	proxyPlaces = 2
)

// FormatPrice 代币价格保留4位小数
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(pricePlaces)
}

// FormatProxy 白糖价格保留2位小数
func FormatProxy(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(proxyPlaces)
}

// ParseDecimal 解析定点小数字符串
func ParseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}
