package maze

import (
	"fmt"
	"strings"
)

// Position 网格坐标，x 向东增长，y 向北增长
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Direction 四个基本方向
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions 按 N/E/S/W 顺序列出全部方向
var Directions = [...]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Opposite 返回反方向
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// ParseDirection 解析单字符方向命令（大小写均可）
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "N", "n":
		return North, true
	case "E", "e":
		return East, true
	case "S", "s":
		return South, true
	case "W", "w":
		return West, true
	}
	return 0, false
}

// Apply 纯算术移动一步，不做边界检查；调用方需自行确认结果在网格内
func (p Position) Apply(d Direction) Position {
	switch d {
	case North:
		p.Y++
	case East:
		p.X++
	case South:
		p.Y--
	case West:
		p.X--
	}
	return p
}

// Grid 墙体网格，walls[x][y] 为 true 表示墙。生成后只读，可被任意 goroutine 并发读取
type Grid struct {
	width  int
	height int
	walls  [][]bool
}

// newWallGrid 创建一个全是墙的网格
func newWallGrid(width, height int) *Grid {
	walls := make([][]bool, width)
	for x := range walls {
		walls[x] = make([]bool, height)
		for y := range walls[x] {
			walls[x][y] = true
		}
	}
	return &Grid{width: width, height: height, walls: walls}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds 坐标是否位于 [0,width)×[0,height)
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// IsWall 越界视为墙
func (g *Grid) IsWall(p Position) bool {
	return !g.InBounds(p) || g.walls[p.X][p.Y]
}

// IsOpen 在界内且不是墙
func (g *Grid) IsOpen(p Position) bool {
	return g.InBounds(p) && !g.walls[p.X][p.Y]
}

// Step 带边界检查的移动：目标越界时返回 false，绝不回绕
func (g *Grid) Step(p Position, d Direction) (Position, bool) {
	next := p.Apply(d)
	if !g.InBounds(next) {
		return p, false
	}
	return next, true
}

// OpenCells 按 x、y 顺序列出所有可通行格子
func (g *Grid) OpenCells() []Position {
	var cells []Position
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			if !g.walls[x][y] {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// Render 以北为上绘制网格；marks 中的格子用给定的两个字符覆盖
func (g *Grid) Render(marks map[Position]string) string {
	var b strings.Builder
	for y := g.height - 1; y >= 0; y-- {
		for x := 0; x < g.width; x++ {
			p := Position{X: x, Y: y}
			if m, ok := marks[p]; ok {
				b.WriteString(m)
			} else if g.walls[x][y] {
				b.WriteString("##")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Grid) String() string {
	return g.Render(nil)
}
