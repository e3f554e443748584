package chart

import (
	"bytes"
	"fmt"
	"html"

	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/internal/readout"
	"sugar-price-sentry/pkg/types"
)

const (
	Title         = "Sugar Token Price"
	MaxAxisLabels = 8

	padLeft   = 64
	padRight  = 16
	padTop    = 72
	padBottom = 32
	yTicks    = 4

	// 绘图区至少1像素
	MinWidth  = padLeft + padRight + 1
	MinHeight = padTop + padBottom + 1
)

// Options 图表尺寸
type Options struct {
	Width  int
	Height int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 900
	}
	if o.Height <= 0 {
		o.Height = 300
	}
	if o.Width < MinWidth {
		o.Width = MinWidth
	}
	if o.Height < MinHeight {
		o.Height = MinHeight
	}
	return o
}

// RenderSVG 绘制价格面积图：x为标签，y为价格，颜色随涨跌变化
func RenderSVG(series types.Series, ro readout.Readout, opts Options) []byte {
	opts = opts.withDefaults()
	w, h := opts.Width, opts.Height
	plotW := float64(w - padLeft - padRight)
	plotH := float64(h - padTop - padBottom)

	color := ro.Color
	if color == "" {
		color = readout.ColorUp
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", w, h, w, h)
	b.WriteString("<rect width='100%' height='100%' fill='#18181b'/>")
	fmt.Fprintf(&b, "<defs><linearGradient id='colorPrice' x1='0' y1='0' x2='0' y2='1'>"+
		"<stop offset='5%%' stop-color='%s' stop-opacity='0.3'/>"+
		"<stop offset='95%%' stop-color='%s' stop-opacity='0'/>"+
		"</linearGradient></defs>", color, color)

	// 标题与读数
	fmt.Fprintf(&b, "<text x='16' y='24' fill='#ffffff' font-family='Inter' font-size='16'>%s</text>", Title)
	if ro.Price != "" {
		fmt.Fprintf(&b, "<text x='16' y='50' fill='#ffffff' font-family='Inter' font-size='20' font-weight='bold'>%s</text>", html.EscapeString(ro.Price))
		fmt.Fprintf(&b, "<text x='120' y='50' fill='%s' font-family='Inter' font-size='13'>%s</text>", color, html.EscapeString(ro.Change))
		fmt.Fprintf(&b, "<text x='%d' y='24' fill='#a1a1aa' font-family='Inter' font-size='12' text-anchor='end'>%s</text>", w-padRight, html.EscapeString(ro.Period))
	}
	if ro.Proxy != "" {
		fmt.Fprintf(&b, "<text x='%d' y='50' fill='#a1a1aa' font-family='Inter' font-size='11' text-anchor='end'>%s</text>", w-padRight, html.EscapeString(ro.Proxy))
	}

	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i], _ = generator.ParseDecimal(p.Price)
	}
	if len(prices) == 0 {
		b.WriteString("</svg>")
		return b.Bytes()
	}

	miny, maxy := prices[0], prices[0]
	for _, v := range prices {
		if v < miny {
			miny = v
		}
		if v > maxy {
			maxy = v
		}
	}
	span := maxy - miny
	if span < 1e-9 {
		span = 1e-9
	}

	xAt := func(i int) float64 {
		if len(prices) == 1 {
			return plotW / 2
		}
		return float64(i) * plotW / float64(len(prices)-1)
	}
	yAt := func(v float64) float64 {
		return plotH - (v-miny)/span*plotH
	}

	fmt.Fprintf(&b, "<g transform='translate(%d,%d)'>", padLeft, padTop)

	// 网格和纵轴刻度
	for i := 0; i <= yTicks; i++ {
		v := miny + span*float64(i)/yTicks
		y := yAt(v)
		fmt.Fprintf(&b, "<line x1='0' y1='%.2f' x2='%.2f' y2='%.2f' stroke='#333' stroke-dasharray='3 3'/>", y, plotW, y)
		fmt.Fprintf(&b, "<text x='-8' y='%.2f' fill='#888' font-family='Inter' font-size='12' text-anchor='end'>$%s</text>", y+4, generator.FormatPrice(v))
	}

	// 面积
	b.WriteString("<path fill='url(#colorPrice)' d='")
	fmt.Fprintf(&b, "M%.2f,%.2f", xAt(0), plotH)
	for i, v := range prices {
		fmt.Fprintf(&b, " L%.2f,%.2f", xAt(i), yAt(v))
	}
	fmt.Fprintf(&b, " L%.2f,%.2f Z'/>", xAt(len(prices)-1), plotH)

	// 折线
	fmt.Fprintf(&b, "<polyline fill='none' stroke='%s' stroke-width='2' points='", color)
	for i, v := range prices {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", xAt(i), yAt(v))
	}
	b.WriteString("'/>")

	// 横轴标签
	for _, i := range LabelIndexes(len(series), MaxAxisLabels) {
		fmt.Fprintf(&b, "<text x='%.2f' y='%.2f' fill='#888' font-family='Inter' font-size='12' text-anchor='middle'>%s</text>",
			xAt(i), plotH+20, html.EscapeString(series[i].Label))
	}

	b.WriteString("</g></svg>")
	return b.Bytes()
}

// LabelIndexes 均匀挑选至多limit个标签下标，总是包含首尾
func LabelIndexes(n, limit int) []int {
	if n <= 0 || limit <= 0 {
		return nil
	}
	if n <= limit {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if limit == 1 {
		return []int{n - 1}
	}

	out := make([]int, 0, limit)
	step := float64(n-1) / float64(limit-1)
	for k := 0; k < limit; k++ {
		idx := int(float64(k)*step + 0.5)
		if len(out) > 0 && out[len(out)-1] == idx {
			continue
		}
		out = append(out, idx)
	}
	return out
}
