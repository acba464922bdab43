package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"

	"reindeermaze/maze"
)

const shutdownTimeout = 5 * time.Second

// Server 管理监听器与会话的生命周期；世界状态全部由 maze.World 持有
type Server struct {
	cfg      Config
	world    *maze.World
	metrics  *Metrics
	sessions sync.WaitGroup
}

func NewServer(cfg Config, world *maze.World) *Server {
	return &Server{cfg: cfg, world: world, metrics: &Metrics{}}
}

// Metrics 返回运行指标
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler WebSocket 接入与管理、监控接口
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/admin/players", s.handleAdminPlayers)
	mux.HandleFunc("/admin/maze", s.handleAdminMaze)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run 按配置地址监听 TCP 与 HTTP，然后交给 Serve
func (s *Server) Run(ctx context.Context) error {
	tcpLn, err := net.Listen("tcp", s.cfg.TCPAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.TCPAddr, err)
	}

	var httpLn net.Listener
	if s.cfg.WSAddr != "" {
		httpLn, err = net.Listen("tcp", s.cfg.WSAddr)
		if err != nil {
			_ = tcpLn.Close()
			return fmt.Errorf("listening on %s: %w", s.cfg.WSAddr, err)
		}
	}
	return s.Serve(ctx, tcpLn, httpLn)
}

// Serve 在给定监听器上服务，直到 ctx 取消或某个监听器出错；httpLn 为 nil 时不启动 HTTP。
// 返回前等待所有 TCP 与 WebSocket 会话退出（玩家均已移除）
func (s *Server) Serve(ctx context.Context, tcpLn, httpLn net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	running := 1
	go func() {
		err := s.serveTCP(ctx, tcpLn)
		if err != nil {
			cancel()
		}
		errs <- err
	}()

	if httpLn != nil {
		running++
		srv := &http.Server{
			Handler:     s.Handler(),
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		shutdownDone := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			defer close(shutdownDone)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				Log.Warnf("http shutdown: %v", err)
			}
		})
		defer stop()

		go func() {
			Log.Infof("websocket and admin listening on %s", httpLn.Addr())
			err := srv.Serve(httpLn)
			if errors.Is(err, http.ErrServerClosed) {
				// 等 Shutdown 结束：此后不会再有 handleWS 调用 sessions.Add
				<-shutdownDone
				err = nil
			} else if err != nil {
				err = fmt.Errorf("serving http: %w", err)
				cancel()
			}
			errs <- err
		}()
	}

	var result error
	for i := 0; i < running; i++ {
		result = multierr.Append(result, <-errs)
	}
	s.sessions.Wait()
	return result
}

// startSession 在新协程中运行会话
func (s *Server) startSession(ctx context.Context, conn lineConn) {
	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		s.runSession(ctx, conn)
	}()
}

func (s *Server) runSession(ctx context.Context, conn lineConn) {
	sess := newSession(s.world, s.metrics, conn)
	if err := sess.Run(ctx); err != nil {
		if ctx.Err() != nil {
			sess.log.Debugf("session closed on shutdown: %v", err)
			return
		}
		sess.log.Warnf("session ended: %v", err)
	}
}
