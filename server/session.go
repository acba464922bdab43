package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reindeermaze/maze"
)

const leaveTimeout = 2 * time.Second

// lineConn 一问一答的行文本连接（TCP 或 WebSocket）
type lineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// Session 单个连接的会话：只持有玩家 id 与当前位置，状态变更全部交给 World
type Session struct {
	id      string
	world   *maze.World
	conn    lineConn
	metrics *Metrics
	log     *zap.SugaredLogger

	player maze.PlayerState
}

func newSession(world *maze.World, metrics *Metrics, conn lineConn) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		world:   world,
		conn:    conn,
		metrics: metrics,
		log:     Log.With("session", id, "remote", conn.RemoteAddr()),
	}
}

// Run 驱动整个会话：欢迎 -> 读队名 -> 加入 -> 循环处理方向命令。
// 连接关闭（EOF）视为正常结束；退出前总会尝试移除玩家
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()
	defer s.conn.Close()

	s.metrics.IncConnections()
	s.metrics.SessionStarted()
	defer s.metrics.SessionEnded()
	s.log.Debug("connected")

	if err := s.conn.WriteLine(WelcomeLine); err != nil {
		return fmt.Errorf("writing welcome: %w", err)
	}
	line, err := s.conn.ReadLine()
	if err != nil {
		return ignoreEOF(fmt.Errorf("reading team name: %w", err))
	}

	s.player, err = s.world.AddPlayer(ctx, parseName(line))
	if err != nil {
		return fmt.Errorf("joining maze: %w", err)
	}
	defer s.leave(ctx)
	s.metrics.IncJoins()
	s.log = s.log.With("player", s.player.ID)
	s.log.Infof("%s joined", s.player.Name)

	if err := s.sendCompass(); err != nil {
		return err
	}

	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return ignoreEOF(fmt.Errorf("reading command: %w", err))
		}

		dir, ok := parseCommand(line)
		if !ok {
			s.metrics.IncBadCommands()
			if err := s.conn.WriteLine(BadCommandLine); err != nil {
				return fmt.Errorf("writing bad command reply: %w", err)
			}
			continue
		}

		if err := s.step(ctx, dir); err != nil {
			return err
		}
		if err := s.sendCompass(); err != nil {
			return err
		}
	}
}

// step 先在本地校验目标格，撞墙或越界直接忽略，不打扰 World
func (s *Session) step(ctx context.Context, dir maze.Direction) error {
	grid := s.world.Grid()
	target, ok := grid.Step(s.player.Pos, dir)
	if !ok || !grid.IsOpen(target) {
		s.metrics.IncBlockedMoves()
		s.log.Debugf("%s blocked moving %v from %v", s.player.Name, dir, s.player.Pos)
		return nil
	}

	err := s.world.MovePlayer(ctx, s.player.ID, target)
	switch {
	case errors.Is(err, maze.ErrIllegalMove):
		s.metrics.IncBlockedMoves()
		s.log.Warnf("world rejected move to %v: %v", target, err)
		return nil
	case err != nil:
		return fmt.Errorf("moving player: %w", err)
	}

	s.metrics.IncMoves()
	s.player.Pos = target
	return nil
}

func (s *Session) sendCompass() error {
	reading := s.world.Compass(s.player.Pos)
	s.log.Infof("%s is at %v", s.player.Name, s.player.Pos)
	if reading.Present.Kind == maze.PresentHere {
		s.metrics.IncPresentsFound()
		s.log.Infof("%s found the present", s.player.Name)
	}
	if err := s.conn.WriteLine(reading.String()); err != nil {
		return fmt.Errorf("writing compass: %w", err)
	}
	return nil
}

// leave 尽力移除玩家；会话 ctx 可能已取消，因此使用独立的超时
func (s *Session) leave(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()
	if err := s.world.RemovePlayer(ctx, s.player.ID); err != nil {
		s.log.Warnf("removing player: %v", err)
	}
	s.metrics.IncLeaves()
	s.log.Infof("%s disconnected", s.player.Name)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
