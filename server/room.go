package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"motionarena/command"
)

// RoomSettings 房间参数
type RoomSettings struct {
	TicksPerSecond   int
	MaxInputsPerTick int
	HistoryDepth     int // 0 表示按指令表自动计算
	Judge            JudgeConfig
}

func settingsFromConfig(cfg Config) RoomSettings {
	return RoomSettings{
		TicksPerSecond:   cfg.Server.TicksPerSecond,
		MaxInputsPerTick: cfg.Server.MaxInputsPerTick,
		HistoryDepth:     cfg.Server.HistoryDepth,
		Judge:            cfg.Judge,
	}
}

// Room 房间：每个玩家的输入历史维护在内存，单线程 Tick 推进
type Room struct {
	ID string

	mu        sync.Mutex // 保护 Players 及其历史；Tick 期间持有
	Players   map[PlayerID]*Player
	inputChan chan Input
	leaveChan chan leaveRequest

	tables       *TableStore
	table        *CommandTable
	tableVersion int64
	depth        int
	depthFor     JudgeConfig

	// 可通过 /admin/config 热更新
	defaultBuffer    atomic.Uint32
	defaultHold      atomic.Uint32
	maxInputsPerTick atomic.Int64

	ticksPerSecond int
	historyDepth   int

	tickSeq int64
	metrics *RoomMetrics

	tickerStarted bool
	stop          chan struct{}
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, settings RoomSettings, tables *TableStore) *Room {
	if tables == nil {
		tables = NewTableStore(nil)
	}
	r := &Room{
		ID:             id,
		Players:        make(map[PlayerID]*Player),
		inputChan:      make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		leaveChan:      make(chan leaveRequest, 64),
		tables:         tables,
		tableVersion:   -1,
		ticksPerSecond: settings.TicksPerSecond,
		historyDepth:   settings.HistoryDepth,
		metrics:        &RoomMetrics{},
		stop:           make(chan struct{}),
	}
	r.defaultBuffer.Store(settings.Judge.Buffer)
	r.defaultHold.Store(settings.Judge.Hold)
	r.maxInputsPerTick.Store(int64(settings.MaxInputsPerTick))
	r.refreshTable()
	return r
}

// Defaults 当前的默认判定帧数
func (r *Room) Defaults() JudgeConfig {
	return JudgeConfig{Buffer: r.defaultBuffer.Load(), Hold: r.defaultHold.Load()}
}

// SetDefaults 更新默认判定帧数，下一次 Tick 生效
func (r *Room) SetDefaults(def JudgeConfig) {
	r.defaultBuffer.Store(def.Buffer)
	r.defaultHold.Store(def.Hold)
}

// Metrics 房间指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// TickSeq 已推进的 Tick 数
func (r *Room) TickSeq() int64 { return atomic.LoadInt64(&r.tickSeq) }

// JoinPlayer 将玩家加入房间；同名玩家重连时沿用输入历史
func (r *Room) JoinPlayer(id PlayerID, conn *ClientConn) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Players[id]; ok {
		if p.Conn != nil && p.Conn != conn {
			p.Conn.Close()
		}
		p.Conn = conn
		return p
	}
	p := newPlayer(id, r.depth, conn)
	r.Players[id] = p
	Log.Infof("player joined: room=%s player=%s depth=%d", r.ID, id, r.depth)
	return p
}

type leaveRequest struct {
	id   PlayerID
	conn *ClientConn
}

// leavePlayer 将玩家移出房间（调用方持有锁）；conn 非空时仅当仍是该连接才移除
func (r *Room) leavePlayer(id PlayerID, conn *ClientConn) {
	if p, ok := r.Players[id]; ok {
		if conn != nil && p.Conn != conn {
			return
		}
		if p.Conn != nil {
			p.Conn.Close()
		}
		delete(r.Players, id)
		Log.Infof("player left: room=%s player=%s", r.ID, id)
	}
}

// OnInput 入站输入（不立即写入历史），等下一次 Tick 处理
func (r *Room) OnInput(in Input) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inputChan <- in:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家，避免并发改动房间状态。
// conn 为发起请求的连接，玩家已用新连接重连时请求被忽略。
func (r *Room) RequestLeave(pid PlayerID, conn *ClientConn) {
	// 为保证移除一定生效，这里采用阻塞式写入（通道有容量，避免死锁）
	r.leaveChan <- leaveRequest{id: pid, conn: conn}
}

// Tick 推进一帧：处理输入 → 写入历史并判定 → 上报结果
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BeginTick()
	r.ProcessInputs()
	r.UpdateWorld()
	r.Broadcast()
}

// BeginTick 同一 Tick 时间线：切换到最新指令表，必要时调整历史深度
func (r *Room) BeginTick() {
	atomic.AddInt64(&r.tickSeq, 1)
	r.refreshTable()
}

func (r *Room) refreshTable() {
	def := r.Defaults()
	version := r.tables.Version()
	if version == r.tableVersion && def == r.depthFor && r.depth > 0 {
		return
	}
	if version != r.tableVersion {
		r.table = r.tables.Load()
		// 已移除的指令不保留成立状态，重新加入后从不成立开始
		for _, p := range r.Players {
			r.table.pruneMatched(p.matched)
		}
	}
	r.tableVersion = version
	r.depthFor = def

	depth := r.historyDepth
	if depth == 0 {
		depth = r.table.Span(def)
	}
	if depth < 1 {
		depth = 1
	}
	if depth != r.depth {
		Log.Debugf("history depth: room=%s %d -> %d", r.ID, r.depth, depth)
		r.depth = depth
		for _, p := range r.Players {
			p.History.Resize(depth)
		}
	}
}

// ProcessInputs 处理当前帧的所有输入（非阻塞 drain）
func (r *Room) ProcessInputs() {
	limit := int(r.maxInputsPerTick.Load())
	for {
		select {
		case req := <-r.leaveChan:
			r.leavePlayer(req.id, req.conn)
		case in := <-r.inputChan:
			p, ok := r.Players[in.PlayerID]
			if !ok {
				continue
			}
			if in.Seq != 0 && in.Seq <= p.lastSeq {
				r.metrics.IncOldSeqIgnored()
				continue
			}
			if p.inputs >= limit {
				r.metrics.IncRateLimited()
				continue
			}
			if in.Seq != 0 {
				p.lastSeq = in.Seq
			}
			p.inputs++
			p.apply(in.Keys)
			r.metrics.IncAccepted()
		default:
			return
		}
	}
}

// UpdateWorld 为每个玩家写入本帧，并对指令表逐条判定
func (r *Room) UpdateWorld() {
	def := r.Defaults()
	bindings := r.table.Bindings()
	var evaluations, matches int64
	for _, p := range r.Players {
		p.commitFrame()
		p.LastMatches = p.LastMatches[:0]
		for _, b := range bindings {
			ok := b.Judge(p.History, def)
			evaluations++
			if ok && !p.matched[b.Name] {
				p.LastMatches = append(p.LastMatches, b.Name)
				matches++
			}
			p.matched[b.Name] = ok
		}
	}
	r.metrics.AddFrames(int64(len(r.Players)))
	r.metrics.AddEvaluations(evaluations)
	r.metrics.AddMatches(matches)
}

// Broadcast 把本帧新成立的指令发送给对应玩家（文本 JSON）
func (r *Room) Broadcast() {
	tick := atomic.LoadInt64(&r.tickSeq)
	for _, p := range r.Players {
		if len(p.LastMatches) == 0 {
			continue
		}
		Log.Debugf("match: room=%s player=%s tick=%d commands=%v", r.ID, p.ID, tick, p.LastMatches)
		if p.Conn == nil {
			continue
		}
		b, err := json.Marshal(MatchMessage{Type: "match", Tick: tick, Commands: p.LastMatches})
		if err != nil {
			continue
		}
		p.Conn.Enqueue(b)
	}
}

// PlayerHistory 复制某个玩家当前的输入历史（最旧在前）
func (r *Room) PlayerHistory(id PlayerID) (command.Inputs, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Players[id]
	if !ok {
		return nil, false
	}
	return p.History.Snapshot(), true
}
