package server

import (
	"encoding/json"
	"net/http"

	"reindeermaze/maze"
)

// handleAdminPlayers 返回当前所有玩家
// GET /admin/players
func (s *Server) handleAdminPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	players, err := s.world.ListPlayers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"present": s.world.Present(),
		"players": players,
	})
}

// handleAdminMaze 以文本绘制迷宫：## 墙，PP 礼物，@@ 玩家
// GET /admin/maze
func (s *Server) handleAdminMaze(w http.ResponseWriter, r *http.Request) {
	players, err := s.world.ListPlayers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	marks := map[maze.Position]string{s.world.Present(): "PP"}
	for _, p := range players {
		marks[p.Pos] = "@@"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.world.Grid().Render(marks)))
}

// handleMetrics 输出运行指标
// GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.metrics.Snapshot())
}
