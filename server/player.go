package server

import "motionarena/command"

// PlayerID 表示玩家唯一标识
type PlayerID string

// Player 房间内的玩家（服务端持有其输入历史）
type Player struct {
	ID PlayerID

	// Held 最近一次上报的按键状态，在没有新输入的 Tick 中持续生效
	Held command.Key
	// frame 本 Tick 内出现过的全部按键，保证一帧内按下又松开的输入不丢失
	frame   command.Key
	touched bool
	lastSeq int64
	inputs  int // 本 Tick 已接受的输入数

	History *History
	// matched 上一帧成立的指令，只在由不成立变为成立时上报
	matched map[string]bool
	// LastMatches 最近一次 Tick 新成立的指令（按指令表顺序）
	LastMatches []string

	Conn *ClientConn // 网络连接的发送端（写协程）
}

func newPlayer(id PlayerID, depth int, conn *ClientConn) *Player {
	return &Player{
		ID:      id,
		History: NewHistory(depth),
		matched: make(map[string]bool),
		Conn:    conn,
	}
}

// apply 记录一次上报的状态
func (p *Player) apply(k command.Key) {
	p.Held = k
	p.frame |= k
	p.touched = true
}

// commitFrame 把本 Tick 的状态写入历史并重置帧内状态
func (p *Player) commitFrame() command.Key {
	k := p.Held
	if p.touched {
		k = p.frame | p.Held
	}
	p.History.Push(k)
	p.frame, p.touched, p.inputs = 0, false, 0
	return k
}
