package server

import (
	"strings"

	"reindeermaze/maze"
)

// 协议固定文本
const (
	WelcomeLine    = "Welcome to the reindeer maze! What is your team name?"
	BadCommandLine = "Bad command, please try again"
)

// parseCommand 客户端一行输入 -> 移动方向；去掉首尾空白后必须是单个方向字符
func parseCommand(line string) (maze.Direction, bool) {
	return maze.ParseDirection(strings.TrimSpace(line))
}

// parseName 队名去掉首尾空白后原样使用，不做唯一性检查
func parseName(line string) string {
	return strings.TrimSpace(line)
}
