package maze

// PlayerID 玩家唯一标识，单调递增且永不复用
type PlayerID uint64

// Player 世界内的玩家实体，只由 World 的处理协程持有和修改
type Player struct {
	ID   PlayerID
	Name string
	Pos  Position
}

// PlayerState 对外返回的玩家状态副本
type PlayerState struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
	Pos  Position `json:"pos"`
}

func (p *Player) state() PlayerState {
	return PlayerState{ID: p.ID, Name: p.Name, Pos: p.Pos}
}
