package notifier

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"sugar-price-sentry/pkg/types"
)

// Interface 预警通知接口
type Interface interface {
	SendAlert(alert *types.Alert) error
	SendBatchAlerts(alerts []*types.Alert) error
}

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	// 使用utf8.RuneCountInString计算实际显示字符数，而不是字节数
	padding := totalWidth - utf8.RuneCountInString(content) - 4
	if padding < 0 {
		padding = 0
	}
	return padding
}

// splitByDirection 分离上涨和下跌的预警，并按涨跌幅绝对值从大到小排序
func splitByDirection(alerts []*types.Alert) (up, down []*types.Alert) {
	for _, alert := range alerts {
		if alert.ChangePercent >= 0 {
			up = append(up, alert)
		} else {
			down = append(down, alert)
		}
	}
	sort.Slice(up, func(i, j int) bool { return up[i].ChangePercent > up[j].ChangePercent })
	sort.Slice(down, func(i, j int) bool { return down[i].ChangePercent < down[j].ChangePercent })
	return up, down
}

// ConsoleNotifier 控制台通知器
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{out: os.Stdout}
}

// NewConsoleNotifierTo 输出到指定writer
func NewConsoleNotifierTo(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (cn *ConsoleNotifier) SendAlert(alert *types.Alert) error {
	_, err := io.WriteString(cn.out, formatAlertBox(alert))
	return err
}

func (cn *ConsoleNotifier) SendBatchAlerts(alerts []*types.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if len(alerts) == 1 {
		return cn.SendAlert(alerts[0])
	}
	_, err := io.WriteString(cn.out, formatBatchBox(alerts))
	return err
}

func formatAlertBox(alert *types.Alert) string {
	const width = 60
	var b strings.Builder

	arrow := "📈"
	if alert.ChangePercent < 0 {
		arrow = "📉"
	}

	line := func(content string) {
		fmt.Fprintf(&b, "║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, width)))
	}

	b.WriteString("\n╔" + strings.Repeat("═", width) + "╗\n")
	line(fmt.Sprintf("%s 🚨 糖代币价格预警触发！", arrow))
	line("")
	line(fmt.Sprintf("会话: %s (%s)", alert.SessionID, alert.TimeFrame))
	line(fmt.Sprintf("当前价格: $%.4f", alert.CurrentPrice))
	line(fmt.Sprintf("窗口起点价格: $%.4f", alert.FirstPrice))
	line(fmt.Sprintf("价格变化: %+.2f%%", alert.ChangePercent))
	line(fmt.Sprintf("预警时间: %s", alert.AlertTime.Format("2006-01-02 15:04:05")))
	b.WriteString("╚" + strings.Repeat("═", width) + "╝\n")

	return b.String()
}

func formatBatchBox(alerts []*types.Alert) string {
	const width = 80
	var b strings.Builder

	line := func(content string) {
		fmt.Fprintf(&b, "║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, width)))
	}

	up, down := splitByDirection(alerts)

	b.WriteString("\n╔" + strings.Repeat("═", width) + "╗\n")
	line(fmt.Sprintf("🚨 批量价格预警触发！- %d个会话", len(alerts)))
	line(fmt.Sprintf("📈 上涨: %d个  📉 下跌: %d个", len(up), len(down)))
	line("")

	for i, alert := range up {
		line(fmt.Sprintf("  %d. 📈 %s [%s]: $%.4f (%+.2f%%)", i+1, alert.SessionID, alert.TimeFrame, alert.CurrentPrice, alert.ChangePercent))
	}
	for i, alert := range down {
		line(fmt.Sprintf("  %d. 📉 %s [%s]: $%.4f (%+.2f%%)", i+1, alert.SessionID, alert.TimeFrame, alert.CurrentPrice, alert.ChangePercent))
	}

	line("")
	line(fmt.Sprintf("预警时间: %s", alerts[0].AlertTime.Format("2006-01-02 15:04:05")))
	b.WriteString("╚" + strings.Repeat("═", width) + "╝\n")

	return b.String()
}
