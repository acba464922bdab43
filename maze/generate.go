package maze

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidDimensions = errors.New("maze dimensions must be at least 1x1")
	ErrStartOutOfBounds  = errors.New("start position is outside the maze")
)

// frontierEntry 候选墙：cell 为墙格，dir 指向远离已打通区域的方向
type frontierEntry struct {
	cell Position
	dir  Direction
}

// Generate 用随机前沿生长（Prim 风格）在 width×height 网格上生成完美迷宫，start 保证为通路
func Generate(width, height int, start Position, rng *rand.Rand) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	g := newWallGrid(width, height)
	if !g.InBounds(start) {
		return nil, fmt.Errorf("%w: %v in %dx%d", ErrStartOutOfBounds, start, width, height)
	}

	g.walls[start.X][start.Y] = false
	var frontier []frontierEntry
	frontier = g.pushWalledNeighbors(frontier, start)

	for len(frontier) > 0 {
		// 均匀抽取后与末尾交换再弹出，O(1) 删除
		i := rng.Intn(len(frontier))
		entry := frontier[i]
		last := len(frontier) - 1
		frontier[i] = frontier[last]
		frontier = frontier[:last]

		wall := entry.cell
		next := wall.Apply(entry.dir)
		switch {
		case !g.InBounds(next):
			// 边界另一侧不存在格子，直接打通该墙，形成死胡同
			g.walls[wall.X][wall.Y] = false
		case g.walls[wall.X][wall.Y] && g.walls[next.X][next.Y]:
			g.walls[wall.X][wall.Y] = false
			g.walls[next.X][next.Y] = false
			frontier = g.pushWalledNeighbors(frontier, next)
		}
	}
	return g, nil
}

// pushWalledNeighbors 把 p 在界内且仍为墙的邻居加入前沿
func (g *Grid) pushWalledNeighbors(frontier []frontierEntry, p Position) []frontierEntry {
	for _, d := range Directions {
		n, ok := g.Step(p, d)
		if ok && g.walls[n.X][n.Y] {
			frontier = append(frontier, frontierEntry{cell: n, dir: d})
		}
	}
	return frontier
}
