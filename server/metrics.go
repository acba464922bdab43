package server

import (
	"sync/atomic"
)

// Metrics 记录服务运行期的关键指标（用于监控与调试）
type Metrics struct {
	Connections    int64 // 累计接入的连接数
	ActiveSessions int64 // 当前在线会话数
	Joins          int64 // 成功加入世界的玩家数
	Leaves         int64 // 离开世界的玩家数
	Moves          int64 // 成功提交的移动
	BlockedMoves   int64 // 撞墙或越界而被忽略的移动
	BadCommands    int64 // 无法识别的命令
	PresentsFound  int64 // 走到礼物格的次数
}

func (m *Metrics) IncConnections()   { atomic.AddInt64(&m.Connections, 1) }
func (m *Metrics) IncJoins()         { atomic.AddInt64(&m.Joins, 1) }
func (m *Metrics) IncLeaves()        { atomic.AddInt64(&m.Leaves, 1) }
func (m *Metrics) IncMoves()         { atomic.AddInt64(&m.Moves, 1) }
func (m *Metrics) IncBlockedMoves()  { atomic.AddInt64(&m.BlockedMoves, 1) }
func (m *Metrics) IncBadCommands()   { atomic.AddInt64(&m.BadCommands, 1) }
func (m *Metrics) IncPresentsFound() { atomic.AddInt64(&m.PresentsFound, 1) }

func (m *Metrics) SessionStarted() { atomic.AddInt64(&m.ActiveSessions, 1) }
func (m *Metrics) SessionEnded()   { atomic.AddInt64(&m.ActiveSessions, -1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"connections":     atomic.LoadInt64(&m.Connections),
		"active_sessions": atomic.LoadInt64(&m.ActiveSessions),
		"joins":           atomic.LoadInt64(&m.Joins),
		"leaves":          atomic.LoadInt64(&m.Leaves),
		"moves":           atomic.LoadInt64(&m.Moves),
		"blocked_moves":   atomic.LoadInt64(&m.BlockedMoves),
		"bad_commands":    atomic.LoadInt64(&m.BadCommands),
		"presents_found":  atomic.LoadInt64(&m.PresentsFound),
	}
}
