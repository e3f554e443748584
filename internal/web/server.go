package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"sugar-price-sentry/internal/metrics"
	"sugar-price-sentry/internal/scheduler"
	"sugar-price-sentry/internal/storage"
	"sugar-price-sentry/pkg/types"
)

// Server HTTP接口和WebSocket会话
type Server struct {
	cfg          types.ServerConfig
	tickInterval time.Duration
	gen          scheduler.SeriesGenerator
	upd          scheduler.SeriesUpdater
	store        *storage.StateManager
	metrics      *metrics.Metrics

	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	ctx    context.Context // 所有会话的父context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[string]*client
	wg      sync.WaitGroup
}

// Deps 服务依赖
type Deps struct {
	Generator scheduler.SeriesGenerator
	Updater   scheduler.SeriesUpdater
	Store     *storage.StateManager
	Metrics   *metrics.Metrics // 可为nil
}

func NewServer(cfg types.ServerConfig, ticker types.TickerConfig, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:          cfg,
		tickInterval: ticker.Interval,
		gen:          deps.Generator,
		upd:          deps.Updater,
		store:        deps.Store,
		metrics:      deps.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[string]*client),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)
	api.HandleFunc("/timeframes", s.handleTimeFrames).Methods(http.MethodGet)
	api.HandleFunc("/series", s.handleSeries).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)

	r.HandleFunc("/chart.svg", s.handleChart).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Handler 路由
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动HTTP服务，监听失败时返回错误
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("🌐 HTTP服务启动", zap.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown 关闭HTTP服务和所有会话
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	s.cancel()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("✅ 所有会话已关闭")
	case <-ctx.Done():
		zap.L().Warn("⚠️ 等待会话关闭超时")
		return errors.Join(err, ctx.Err())
	}
	return err
}

// SessionCount 当前WebSocket会话数
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}
