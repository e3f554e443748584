package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"sugar-price-sentry/internal/chart"
	"sugar-price-sentry/internal/generator"
	"sugar-price-sentry/internal/readout"
	"sugar-price-sentry/internal/updater"
	"sugar-price-sentry/pkg/types"
)

// TimeFrameInfo 时间窗口参数
type TimeFrameInfo struct {
	TimeFrame  types.TimeFrame `json:"timeframe"`
	Points     int             `json:"points"`
	IntervalMs int64           `json:"interval_ms"`
	Volatility float64         `json:"volatility"`
	Period     string          `json:"period"`
}

// SeriesResponse 一次性生成的序列
type SeriesResponse struct {
	TimeFrame types.TimeFrame    `json:"timeframe"`
	Series    types.Series       `json:"series"`
	Stats     types.DisplayStats `json:"stats"`
	Readout   readout.Readout    `json:"readout"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("⚠️ 写入响应失败", zap.Error(err))
	}
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleTimeFrames(w http.ResponseWriter, _ *http.Request) {
	out := make([]TimeFrameInfo, 0, len(types.TimeFrames))
	for _, tf := range types.TimeFrames {
		p := generator.ParamsFor(tf)
		out = append(out, TimeFrameInfo{
			TimeFrame:  tf,
			Points:     p.Points,
			IntervalMs: p.IntervalMs,
			Volatility: p.Volatility,
			Period:     readout.Period(tf),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) generate(r *http.Request) (types.TimeFrame, types.Series, types.DisplayStats) {
	tf := types.ParseTimeFrame(r.URL.Query().Get("timeframe"))
	series := s.gen.Generate(tf)
	if s.metrics != nil {
		s.metrics.SeriesGenerated.WithLabelValues(tf.String()).Inc()
	}
	return tf, series, updater.ComputeStats(series)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	tf, series, stats := s.generate(r)
	writeJSON(w, http.StatusOK, SeriesResponse{
		TimeFrame: tf,
		Series:    series,
		Stats:     stats,
		Readout:   readout.Format(tf, stats),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	var snaps []*types.Snapshot
	if s.store != nil {
		snaps = s.store.List()
	}
	if snaps == nil {
		snaps = []*types.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	tf, series, stats := s.generate(r)

	opts := chart.Options{}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v >= chart.MinWidth && v <= 4000 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v >= chart.MinHeight && v <= 4000 {
		opts.Height = v
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(chart.RenderSVG(series, readout.Format(tf, stats), opts))
}
