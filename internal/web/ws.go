package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"sugar-price-sentry/internal/metrics"
	"sugar-price-sentry/internal/notifier"
	"sugar-price-sentry/internal/readout"
	"sugar-price-sentry/internal/scheduler"
	"sugar-price-sentry/pkg/types"
)

const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
	MessagePong     = "pong"

	OpTimeFrame = "timeframe"
	OpPing      = "ping"
)

// ClientMessage 客户端指令
type ClientMessage struct {
	Op        string `json:"op"`
	TimeFrame string `json:"timeframe,omitempty"`
}

// ServerMessage 服务端推送
type ServerMessage struct {
	Type  string        `json:"type"`
	Data  *SnapshotData `json:"data,omitempty"`
	Error string        `json:"error,omitempty"`
}

// SnapshotData 快照及其展示文本
type SnapshotData struct {
	Snapshot *types.Snapshot `json:"snapshot"`
	Readout  readout.Readout `json:"readout"`
}

// client 一个WebSocket连接对应一个会话
type client struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	metrics      *metrics.Metrics
	writeMu      sync.Mutex
}

func (c *client) write(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteJSON(msg); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.WebSocketMessages.WithLabelValues("out").Inc()
	}
	return nil
}

// Notify 把快照推送给浏览器
func (c *client) Notify(_ context.Context, snap *types.Snapshot) error {
	return c.write(ServerMessage{
		Type: MessageSnapshot,
		Data: &SnapshotData{Snapshot: snap, Readout: readout.Format(snap.TimeFrame, snap.Stats)},
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	tf := types.ParseTimeFrame(r.URL.Query().Get("timeframe"))

	// 与Shutdown互斥，保证wg.Add发生在Wait之前
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.wg.Done()
		zap.L().Warn("⚠️ WebSocket升级失败", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, writeTimeout: s.cfg.WriteTimeout, metrics: s.metrics}

	sinks := notifier.Multi{c}
	if s.store != nil {
		sinks = append(sinks, s.store)
	}
	if s.metrics != nil {
		sinks = append(sinks, s.metrics)
	}

	sess := scheduler.NewSession(scheduler.SessionConfig{
		ID:        c.id,
		Interval:  s.tickInterval,
		Generator: s.gen,
		Updater:   s.upd,
		Sink:      sinks,
		Metrics:   s.metrics,
	})

	s.register(c)
	defer func() {
		sess.Stop()
		if s.store != nil {
			s.store.Remove(c.id)
		}
		s.unregister(c.id)
		_ = conn.Close()
		s.wg.Done()
	}()

	if s.ctx.Err() != nil {
		return
	}

	zap.L().Info("✅ WebSocket连接建立成功", zap.String("session", c.id), zap.String("timeframe", tf.String()))
	if err := sess.Start(s.ctx, tf); err != nil {
		zap.L().Error("❌ 会话启动失败", zap.String("session", c.id), zap.Error(err))
		return
	}

	s.readLoop(c, sess)
}

func (s *Server) readLoop(c *client, sess *scheduler.Session) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("WebSocket读取消息失败", zap.String("session", c.id), zap.Error(err))
			}
			zap.L().Info("🔌 WebSocket连接关闭", zap.String("session", c.id))
			return
		}
		if s.metrics != nil {
			s.metrics.WebSocketMessages.WithLabelValues("in").Inc()
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.replyError(c, "invalid message")
			continue
		}

		switch msg.Op {
		case OpTimeFrame:
			if err := sess.SwitchTimeFrame(types.ParseTimeFrame(msg.TimeFrame)); err != nil {
				s.replyError(c, err.Error())
			}
		case OpPing:
			if err := c.write(ServerMessage{Type: MessagePong}); err != nil {
				zap.L().Warn("⚠️ 回复pong失败", zap.String("session", c.id), zap.Error(err))
			}
		default:
			s.replyError(c, "unknown op: "+msg.Op)
		}
	}
}

func (s *Server) replyError(c *client, text string) {
	if err := c.write(ServerMessage{Type: MessageError, Error: text}); err != nil {
		zap.L().Warn("⚠️ 发送错误消息失败", zap.String("session", c.id), zap.Error(err))
	}
}
