package notifier

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"sugar-price-sentry/pkg/types"
)

// DingTalkNotifier 钉钉通知器
type DingTalkNotifier struct {
	webhookURL string
	secret     string
	httpClient *http.Client
	fallback   Interface
	now        func() time.Time
}

// DingTalkMessage 钉钉消息结构
type DingTalkMessage struct {
	MsgType  string            `json:"msgtype"`
	Markdown *DingTalkMarkdown `json:"markdown,omitempty"`
	At       *DingTalkAt       `json:"at,omitempty"`
}

type DingTalkMarkdown struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type DingTalkAt struct {
	AtAll bool `json:"isAtAll"`
}

// DingTalkResponse 钉钉API响应
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NewDingTalkNotifier 未配置webhook时返回控制台通知器
func NewDingTalkNotifier(webhookURL, secret string) Interface {
	if webhookURL == "" {
		zap.L().Info("🔧 未配置钉钉Webhook URL，使用控制台输出模式")
		return NewConsoleNotifier()
	}

	if secret != "" {
		zap.L().Info("✅ 已配置钉钉通知服务（含加签验证）")
	} else {
		zap.L().Warn("⚠️ 钉钉通知已配置，但未设置secret（建议配置加签验证）")
	}

	return &DingTalkNotifier{
		webhookURL: webhookURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		fallback:   NewConsoleNotifier(),
		now:        time.Now,
	}
}

func (dtn *DingTalkNotifier) SendAlert(alert *types.Alert) error {
	title := fmt.Sprintf("🍬 糖代币价格预警 - %s", alert.TimeFrame)
	if err := dtn.sendDingTalkMessage(title, buildMarkdownContent(alert)); err != nil {
		zap.L().Error("❌ 钉钉发送失败，降级为控制台输出", zap.Error(err))
		return dtn.fallback.SendAlert(alert)
	}

	zap.L().Info("✅ 钉钉通知已发送",
		zap.String("session", alert.SessionID),
		zap.Float64("change_percent", alert.ChangePercent))
	return nil
}

func (dtn *DingTalkNotifier) SendBatchAlerts(alerts []*types.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if len(alerts) == 1 {
		return dtn.SendAlert(alerts[0])
	}

	title := fmt.Sprintf("📊 糖代币批量价格预警 - %d个会话", len(alerts))
	if err := dtn.sendDingTalkMessage(title, buildBatchMarkdownContent(alerts)); err != nil {
		zap.L().Error("❌ 钉钉批量发送失败，降级为控制台输出", zap.Error(err))
		return dtn.fallback.SendBatchAlerts(alerts)
	}

	zap.L().Info("✅ 钉钉批量通知已发送", zap.Int("count", len(alerts)))
	return nil
}

// generateSignature 生成钉钉加签: HMAC-SHA256(timestamp + "\n" + secret)
func (dtn *DingTalkNotifier) generateSignature(timestamp int64) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, dtn.secret)

	h := hmac.New(sha256.New, []byte(dtn.secret))
	h.Write([]byte(stringToSign))
	return url.QueryEscape(base64.StdEncoding.EncodeToString(h.Sum(nil)))
}

// buildSignedURL 构建带签名的URL
func (dtn *DingTalkNotifier) buildSignedURL() string {
	if dtn.secret == "" {
		return dtn.webhookURL
	}

	timestamp := dtn.now().UnixMilli()
	separator := "&"
	if !strings.Contains(dtn.webhookURL, "?") {
		separator = "?"
	}

	return fmt.Sprintf("%s%stimestamp=%d&sign=%s",
		dtn.webhookURL, separator, timestamp, dtn.generateSignature(timestamp))
}

func buildMarkdownContent(alert *types.Alert) string {
	arrow, color, changeText := "📈", "green", "上涨"
	if alert.ChangePercent < 0 {
		arrow, color, changeText = "📉", "red", "下跌"
	}

	return fmt.Sprintf(`## %s 糖代币价格预警触发

**会话**: %s
**时间窗口**: %s
**当前价格**: $%.4f
**窗口起点价格**: $%.4f
**价格变化**: <font color="%s">%+.2f%%</font>
**预警时间**: %s

> %s 代币价格出现显著%s，请关注白糖行情！`,
		arrow,
		alert.SessionID,
		alert.TimeFrame,
		alert.CurrentPrice,
		alert.FirstPrice,
		color, alert.ChangePercent,
		alert.AlertTime.Format("2006-01-02 15:04:05"),
		arrow, changeText)
}

func buildBatchMarkdownContent(alerts []*types.Alert) string {
	up, down := splitByDirection(alerts)

	var b strings.Builder
	fmt.Fprintf(&b, `## 🚨 批量价格预警触发

**预警统计**:
📈 上涨会话: <font color="green">%d个</font>
📉 下跌会话: <font color="red">%d个</font>
🕐 预警时间: %s

`, len(up), len(down), alerts[0].AlertTime.Format("2006-01-02 15:04:05"))

	const maxShow = 8 // 每个分组最多显示8个
	section := func(title, arrow, color string, list []*types.Alert) {
		if len(list) == 0 {
			return
		}
		b.WriteString(title + "\n")
		for i, alert := range list {
			if i == maxShow {
				fmt.Fprintf(&b, "- ... 还有%d个会话\n", len(list)-maxShow)
				break
			}
			fmt.Fprintf(&b, "- %s **%s** [%s]: $%.4f (<font color=\"%s\">%+.2f%%</font>)\n",
				arrow, alert.SessionID, alert.TimeFrame, alert.CurrentPrice, color, alert.ChangePercent)
		}
		b.WriteString("\n")
	}
	section("**📈 上涨会话**:", "📈", "green", up)
	section("**📉 下跌会话**:", "📉", "red", down)

	return b.String()
}

// sendDingTalkMessage 发送钉钉消息
func (dtn *DingTalkNotifier) sendDingTalkMessage(title, content string) error {
	message := &DingTalkMessage{
		MsgType: "markdown",
		Markdown: &DingTalkMarkdown{
			Title: title,
			Text:  content,
		},
		At: &DingTalkAt{AtAll: false},
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	resp, err := dtn.httpClient.Post(dtn.buildSignedURL(), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	var dingResp DingTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&dingResp); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	if dingResp.ErrCode != 0 {
		return fmt.Errorf("钉钉API错误 [%d]: %s", dingResp.ErrCode, dingResp.ErrMsg)
	}

	return nil
}
