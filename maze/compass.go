package maze

import "fmt"

// PresentKind 礼物相对位置的种类
type PresentKind int

const (
	PresentUnknown PresentKind = iota
	PresentHere
	PresentToward
)

// PresentLocation 礼物提示：未知、就在脚下、或位于某个方向的直线通道上
type PresentLocation struct {
	Kind PresentKind
	Dir  Direction // 仅当 Kind == PresentToward 时有效
}

// Token 协议中的单字符表示：? / X / N|E|S|W
func (p PresentLocation) Token() string {
	switch p.Kind {
	case PresentHere:
		return "X"
	case PresentToward:
		return p.Dir.String()
	}
	return "?"
}

// Reading 指南针读数：四个方向上的空闲格数 + 礼物提示
type Reading struct {
	North   int
	East    int
	South   int
	West    int
	Present PresentLocation
}

// Free 返回指定方向上的空闲格数
func (r Reading) Free(d Direction) int {
	switch d {
	case North:
		return r.North
	case East:
		return r.East
	case South:
		return r.South
	case West:
		return r.West
	}
	return 0
}

func (r Reading) String() string {
	return fmt.Sprintf("N%d E%d S%d W%d P%s", r.North, r.East, r.South, r.West, r.Present.Token())
}

// FreeRun 从 pos 出发（不含 pos）沿 d 数连续通路格，遇墙或边界停止
func FreeRun(g *Grid, pos Position, d Direction) int {
	n := 0
	for {
		next, ok := g.Step(pos, d)
		if !ok || g.IsWall(next) {
			return n
		}
		pos = next
		n++
	}
}

// Compute 计算 pos 处的指南针读数。礼物只有在同一直线且中间无墙时才可见
func Compute(g *Grid, present, pos Position) Reading {
	r := Reading{
		North: FreeRun(g, pos, North),
		East:  FreeRun(g, pos, East),
		South: FreeRun(g, pos, South),
		West:  FreeRun(g, pos, West),
	}

	var (
		dir     Direction
		dist    int
		aligned = true
	)
	switch {
	case present == pos:
		r.Present = PresentLocation{Kind: PresentHere}
		return r
	case present.X == pos.X && present.Y > pos.Y:
		dir, dist = North, present.Y-pos.Y
	case present.X == pos.X:
		dir, dist = South, pos.Y-present.Y
	case present.Y == pos.Y && present.X > pos.X:
		dir, dist = East, present.X-pos.X
	case present.Y == pos.Y:
		dir, dist = West, pos.X-present.X
	default:
		aligned = false
	}

	if aligned && r.Free(dir) >= dist {
		r.Present = PresentLocation{Kind: PresentToward, Dir: dir}
	}
	return r
}
