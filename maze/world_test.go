package maze

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T, rows ...string) *World {
	t.Helper()
	g := gridFromRows(t, rows...)
	w, err := NewWithGrid(g, Position{X: g.Width() / 2, Y: g.Height() / 2}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	t.Cleanup(w.Stop)
	return w
}

func TestNewGeneratesWorld(t *testing.T) {
	w, err := New(Config{Width: 9, Height: 7, Seed: 3})
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, Position{X: 4, Y: 3}, w.Present())
	assert.True(t, w.Grid().IsOpen(w.Present()))
	assert.Equal(t, PresentHere, w.Compass(w.Present()).Present.Kind)
}

func TestNewRejectsBadDimensions(t *testing.T) {
	_, err := New(Config{Width: 0, Height: 3})
	assert.True(t, errors.Is(err, ErrInvalidDimensions))
}

func TestNewWithGridRejectsWalledPresent(t *testing.T) {
	g := gridFromRows(t, "#.")
	_, err := NewWithGrid(g, Position{X: 0, Y: 0}, nil)
	assert.True(t, errors.Is(err, ErrPresentBlocked))
}

func TestAddPlayerMonotonicIDs(t *testing.T) {
	w := newTestWorld(t, "#.#", "...", "#.#")
	ctx := context.Background()

	var last PlayerID
	for i := 0; i < 20; i++ {
		p, err := w.AddPlayer(ctx, "team")
		require.NoError(t, err)
		assert.Greater(t, p.ID, last)
		assert.True(t, w.Grid().IsOpen(p.Pos), "spawned on %v", p.Pos)
		last = p.ID
		if i%3 == 0 {
			require.NoError(t, w.RemovePlayer(ctx, p.ID))
		}
	}

	p, err := w.AddPlayer(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, last+1, p.ID)
}

func TestRemovePlayerIdempotent(t *testing.T) {
	w := newTestWorld(t, "...", "...", "...")
	ctx := context.Background()

	p, err := w.AddPlayer(ctx, "rudolph")
	require.NoError(t, err)

	require.NoError(t, w.RemovePlayer(ctx, p.ID))
	require.NoError(t, w.RemovePlayer(ctx, p.ID))
	require.NoError(t, w.RemovePlayer(ctx, 999))

	players, err := w.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestMovePlayer(t *testing.T) {
	w := newTestWorld(t, "#.#", "...", "#.#")
	ctx := context.Background()

	p, err := w.AddPlayer(ctx, "dasher")
	require.NoError(t, err)

	// 先把玩家走到中心
	pos := p.Pos
	if pos != w.Present() {
		require.NoError(t, w.MovePlayer(ctx, p.ID, w.Present()))
		pos = w.Present()
	}

	t.Run("one step into open cell", func(t *testing.T) {
		require.NoError(t, w.MovePlayer(ctx, p.ID, pos.Apply(North)))
		players, err := w.ListPlayers(ctx)
		require.NoError(t, err)
		require.Len(t, players, 1)
		assert.Equal(t, pos.Apply(North), players[0].Pos)
		require.NoError(t, w.MovePlayer(ctx, p.ID, pos))
	})

	t.Run("into a wall", func(t *testing.T) {
		err := w.MovePlayer(ctx, p.ID, Position{X: 0, Y: 0})
		assert.True(t, errors.Is(err, ErrIllegalMove))
	})

	t.Run("out of bounds", func(t *testing.T) {
		err := w.MovePlayer(ctx, p.ID, Position{X: 1, Y: -1})
		assert.True(t, errors.Is(err, ErrIllegalMove))
	})

	t.Run("more than one step", func(t *testing.T) {
		require.NoError(t, w.MovePlayer(ctx, p.ID, pos.Apply(South)))
		err := w.MovePlayer(ctx, p.ID, pos.Apply(North))
		assert.True(t, errors.Is(err, ErrIllegalMove))
		require.NoError(t, w.MovePlayer(ctx, p.ID, pos))
	})

	t.Run("unknown player", func(t *testing.T) {
		err := w.MovePlayer(ctx, 12345, pos.Apply(East))
		assert.True(t, errors.Is(err, ErrPlayerNotFound))
	})

	players, err := w.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, pos, players[0].Pos)
}

func TestConcurrentJoinsAndLeaves(t *testing.T) {
	w, err := New(Config{Width: 15, Height: 15, Seed: 11})
	require.NoError(t, err)
	defer w.Stop()
	ctx := context.Background()

	const workers = 32
	const perWorker = 25

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = make(map[PlayerID]bool)
		removed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				p, err := w.AddPlayer(ctx, "worker")
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				assert.False(t, ids[p.ID], "duplicate id %d", p.ID)
				ids[p.ID] = true
				mu.Unlock()

				if j%2 == 0 {
					assert.NoError(t, w.RemovePlayer(ctx, p.ID))
					mu.Lock()
					removed++
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	players, err := w.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, workers*perWorker)
	assert.Len(t, players, len(ids)-removed)
}

func TestStoppedWorldRejectsRequests(t *testing.T) {
	w, err := New(Config{Width: 3, Height: 3, Seed: 1})
	require.NoError(t, err)
	w.Stop()
	w.Stop()

	_, err = w.AddPlayer(context.Background(), "late")
	assert.True(t, errors.Is(err, ErrWorldStopped))
	_, err = w.ListPlayers(context.Background())
	assert.True(t, errors.Is(err, ErrWorldStopped))
}

// newIdleWorld 构造未启动处理协程的世界，请求只会停在队列里
func newIdleWorld(t *testing.T) *World {
	t.Helper()
	g := gridFromRows(t, "...", "...", "...")
	w := newWorld(g, Position{X: 1, Y: 1}, rand.New(rand.NewSource(7)))
	t.Cleanup(func() { w.stopOnce.Do(func() { close(w.quit) }) })
	return w
}

func TestRequestHonorsContext(t *testing.T) {
	w := newIdleWorld(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.RemovePlayer(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = w.ListPlayers(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAddPlayerCancelledAfterQueued(t *testing.T) {
	w := newIdleWorld(t)

	ctx, cancel := context.WithCancel(context.Background())
	joined := make(chan error, 1)
	go func() {
		_, err := w.AddPlayer(ctx, "Donner")
		joined <- err
	}()

	// 请求入队后再取消，AddPlayer 只能在等待回复时放弃
	require.Eventually(t, func() bool { return len(w.requests) == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-joined:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("AddPlayer did not return after cancel")
	}

	go w.run()
	require.Eventually(t, func() bool {
		players, err := w.ListPlayers(context.Background())
		return err == nil && len(players) == 0
	}, time.Second, 5*time.Millisecond)

	// 被放弃的加入仍占用了 id 1
	p, err := w.AddPlayer(context.Background(), "Blitzen")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.ID)

	players, err := w.ListPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Blitzen", players[0].Name)
}
