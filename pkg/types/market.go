package types

import "time"

// TimeFrame 图表时间窗口
type TimeFrame string

const (
	TimeFrame1H  TimeFrame = "1H"
	TimeFrame24H TimeFrame = "24H"
	TimeFrame7D  TimeFrame = "7D"
	TimeFrame30D TimeFrame = "30D"
)

// DefaultTimeFrame 未知时间窗口的回退值
const DefaultTimeFrame = TimeFrame24H

// TimeFrames 按按钮顺序排列的全部时间窗口
var TimeFrames = []TimeFrame{TimeFrame1H, TimeFrame24H, TimeFrame7D, TimeFrame30D}

// ParseTimeFrame 解析时间窗口，无法识别时静默回退到24H
func ParseTimeFrame(s string) TimeFrame {
	tf := TimeFrame(s)
	if tf.Valid() {
		return tf
	}
	return DefaultTimeFrame
}

// Valid 是否为已知的时间窗口
func (tf TimeFrame) Valid() bool {
	switch tf {
	case TimeFrame1H, TimeFrame24H, TimeFrame7D, TimeFrame30D:
		return true
	}
	return false
}

func (tf TimeFrame) String() string { return string(tf) }

// SamplePoint 价格序列中的一个采样点
type SamplePoint struct {
	Timestamp  int64  `json:"timestamp"`             // 毫秒时间戳
	Label      string `json:"label"`                 // 横轴显示文本
	Price      string `json:"price"`                 // 代币价格，保留4位小数
	ProxyPrice string `json:"proxy_price,omitempty"` // 印度白糖价格(INR/kg)，保留2位小数
}

// HasProxy 是否携带代理商品价格
func (p SamplePoint) HasProxy() bool {
	return p.ProxyPrice != ""
}

// Series 按时间升序排列的价格序列
type Series []SamplePoint

// Clone 深拷贝序列
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// First 第一个点（锚定涨跌幅）
func (s Series) First() (SamplePoint, bool) {
	if len(s) == 0 {
		return SamplePoint{}, false
	}
	return s[0], true
}

// Last 最新的点
func (s Series) Last() (SamplePoint, bool) {
	if len(s) == 0 {
		return SamplePoint{}, false
	}
	return s[len(s)-1], true
}

// DisplayStats 展示用的统计数据，由序列推导而来
type DisplayStats struct {
	CurrentPrice      string  `json:"current_price"`
	PercentChange     float64 `json:"percent_change"`
	CurrentProxyPrice string  `json:"current_proxy_price,omitempty"`
}

// Snapshot 会话在生成和每次tick后发布的快照
type Snapshot struct {
	SessionID  string       `json:"session_id"`
	TimeFrame  TimeFrame    `json:"time_frame"`
	Generation uint64       `json:"generation"` // 每次切换时间窗口递增
	Series     Series       `json:"series"`
	Stats      DisplayStats `json:"stats"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Clone 深拷贝快照
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Series = s.Series.Clone()
	return &out
}

// Alert 涨跌幅预警
type Alert struct {
	SessionID     string    `json:"session_id"`
	TimeFrame     TimeFrame `json:"time_frame"`
	CurrentPrice  float64   `json:"current_price"`
	FirstPrice    float64   `json:"first_price"`
	ChangePercent float64   `json:"change_percent"`
	AlertTime     time.Time `json:"alert_time"`
}
