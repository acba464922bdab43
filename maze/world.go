package maze

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	ErrWorldStopped   = errors.New("world is stopped")
	ErrPlayerNotFound = errors.New("player not found")
	ErrIllegalMove    = errors.New("illegal move")
	ErrPresentBlocked = errors.New("present cell must be an open cell")
)

const requestQueueSize = 256

// Config 迷宫世界参数
type Config struct {
	Width  int
	Height int
	Seed   int64 // 0 表示按当前时间取种子
}

// World 迷宫世界：墙体网格与礼物位置只读共享，玩家表只由 run 协程持有，
// 所有修改都通过请求通道串行处理
type World struct {
	grid    *Grid
	present Position
	open    []Position

	requests chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// 以下字段只在 run 协程中访问
	players map[PlayerID]*Player
	lastID  PlayerID
	rng     *rand.Rand
}

type addPlayerMsg struct {
	name  string
	reply chan PlayerState
}

type removePlayerMsg struct {
	id    PlayerID
	reply chan struct{}
}

type movePlayerMsg struct {
	id    PlayerID
	to    Position
	reply chan error
}

type listPlayersMsg struct {
	reply chan []PlayerState
}

// New 生成迷宫（礼物位于网格中点，同时作为生成起点）并启动处理协程
func New(cfg Config) (*World, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	present := Position{X: cfg.Width / 2, Y: cfg.Height / 2}
	grid, err := Generate(cfg.Width, cfg.Height, present, rng)
	if err != nil {
		return nil, fmt.Errorf("generating maze: %w", err)
	}
	return NewWithGrid(grid, present, rng)
}

// NewWithGrid 以给定网格创建世界，present 必须是界内通路
func NewWithGrid(grid *Grid, present Position, rng *rand.Rand) (*World, error) {
	if !grid.IsOpen(present) {
		return nil, fmt.Errorf("%w: %v", ErrPresentBlocked, present)
	}
	w := newWorld(grid, present, rng)
	go w.run()
	return w, nil
}

// newWorld 构造世界但不启动处理协程
func newWorld(grid *Grid, present Position, rng *rand.Rand) *World {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &World{
		grid:     grid,
		present:  present,
		open:     grid.OpenCells(),
		requests: make(chan any, requestQueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		players:  make(map[PlayerID]*Player),
		rng:      rng,
	}
}

// Grid 返回只读墙体网格
func (w *World) Grid() *Grid { return w.grid }

// Present 返回礼物所在格
func (w *World) Present() Position { return w.present }

// Compass 计算 pos 处的指南针读数，只读共享数据，无需经过处理协程
func (w *World) Compass(pos Position) Reading {
	return Compute(w.grid, w.present, pos)
}

// Stop 停止处理协程；之后的请求返回 ErrWorldStopped
func (w *World) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.done
}

// run 单一所有者循环：按到达顺序逐个处理请求
func (w *World) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case msg := <-w.requests:
			w.handle(msg)
		}
	}
}

func (w *World) handle(msg any) {
	switch m := msg.(type) {
	case addPlayerMsg:
		w.lastID++
		p := &Player{ID: w.lastID, Name: m.name, Pos: w.open[w.rng.Intn(len(w.open))]}
		w.players[p.ID] = p
		m.reply <- p.state()

	case removePlayerMsg:
		delete(w.players, m.id)
		m.reply <- struct{}{}

	case movePlayerMsg:
		m.reply <- w.move(m.id, m.to)

	case listPlayersMsg:
		players := make([]PlayerState, 0, len(w.players))
		for _, p := range w.players {
			players = append(players, p.state())
		}
		m.reply <- players
	}
}

// move 在处理协程内校验并提交移动：目标必须在界内、不是墙、且与当前位置相邻
func (w *World) move(id PlayerID, to Position) error {
	p, ok := w.players[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}
	if !w.grid.IsOpen(to) {
		return fmt.Errorf("%w: %v is not an open cell", ErrIllegalMove, to)
	}
	if abs(to.X-p.Pos.X)+abs(to.Y-p.Pos.Y) != 1 {
		return fmt.Errorf("%w: %v is not one step from %v", ErrIllegalMove, to, p.Pos)
	}
	p.Pos = to
	return nil
}

// AddPlayer 分配下一个 id，并把玩家放到随机通路格上。
// 请求已入队但 ctx 先取消时，玩家仍会被加入，随后由后台协程移除
func (w *World) AddPlayer(ctx context.Context, name string) (PlayerState, error) {
	reply := make(chan PlayerState, 1)
	if err := w.submit(ctx, addPlayerMsg{name: name, reply: reply}); err != nil {
		return PlayerState{}, err
	}
	p, err := await(ctx, w, reply)
	if err != nil && ctx.Err() != nil {
		go w.discardJoin(reply)
	}
	return p, err
}

// discardJoin 等待被放弃的加入请求的回复，并移除该玩家
func (w *World) discardJoin(reply chan PlayerState) {
	select {
	case p := <-reply:
		_ = w.RemovePlayer(context.Background(), p.ID)
	case <-w.done:
	}
}

// RemovePlayer 幂等：玩家不存在时也不报错
func (w *World) RemovePlayer(ctx context.Context, id PlayerID) error {
	reply := make(chan struct{}, 1)
	_, err := call(ctx, w, removePlayerMsg{id: id, reply: reply}, reply)
	return err
}

// MovePlayer 把玩家位置更新为 to
func (w *World) MovePlayer(ctx context.Context, id PlayerID, to Position) error {
	reply := make(chan error, 1)
	moveErr, err := call(ctx, w, movePlayerMsg{id: id, to: to, reply: reply}, reply)
	if err != nil {
		return err
	}
	return moveErr
}

// ListPlayers 返回当前玩家快照，顺序不确定
func (w *World) ListPlayers(ctx context.Context) ([]PlayerState, error) {
	reply := make(chan []PlayerState, 1)
	return call(ctx, w, listPlayersMsg{reply: reply}, reply)
}

// call 提交请求并等待唯一的回复。回复通道带缓冲，调用方放弃等待不会阻塞处理协程
func call[T any](ctx context.Context, w *World, msg any, reply chan T) (T, error) {
	if err := w.submit(ctx, msg); err != nil {
		var zero T
		return zero, err
	}
	return await(ctx, w, reply)
}

// submit 把请求放入队列
func (w *World) submit(ctx context.Context, msg any) error {
	select {
	case w.requests <- msg:
		return nil
	case <-w.quit:
		return ErrWorldStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await 等待已入队请求的回复
func await[T any](ctx context.Context, w *World, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-w.done:
		// 停止前可能已经处理完
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrWorldStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
