package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/multierr"

	"motionarena/command"
	"motionarena/replay"
)

func roomQuery(r *http.Request) string {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	return roomID
}

// 请求体上限，与 WebSocket 的 SetReadLimit 同理
const maxBodyBytes = 1 << 20

// decodeBody 以大小上限解码 JSON 请求体，失败时已写出错误响应
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleAdminConfig 提供房间判定参数的读取与更新（热更新）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	GetRoomManager().HandleAdminConfig(w, r)
}

func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomQuery(r)
	room := m.GetOrCreateRoom(roomID)

	type cfg struct {
		Buffer           *uint32 `json:"buffer,omitempty"`
		Hold             *uint32 `json:"hold,omitempty"`
		MaxInputsPerTick *int    `json:"maxInputsPerTick,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		def := room.Defaults()
		limit := int(room.maxInputsPerTick.Load())
		writeJSON(w, http.StatusOK, cfg{Buffer: &def.Buffer, Hold: &def.Hold, MaxInputsPerTick: &limit})
	case http.MethodPost:
		var body cfg
		if !decodeBody(w, r, &body) {
			return
		}
		if body.MaxInputsPerTick != nil && *body.MaxInputsPerTick < 1 {
			http.Error(w, "maxInputsPerTick must be positive", http.StatusBadRequest)
			return
		}
		def := room.Defaults()
		if body.Buffer != nil {
			def.Buffer = *body.Buffer
		}
		if body.Hold != nil {
			def.Hold = *body.Hold
		}
		room.SetDefaults(def)
		if body.MaxInputsPerTick != nil {
			room.maxInputsPerTick.Store(int64(*body.MaxInputsPerTick))
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		Log.Infof("config updated: room=%s buffer=%d hold=%d maxInputsPerTick=%d",
			roomID, def.Buffer, def.Hold, room.maxInputsPerTick.Load())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	GetRoomManager().HandleMetrics(w, r)
}

func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := roomQuery(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"tick":    room.TickSeq(),
		"metrics": room.metrics.Snapshot(),
	})
}

// HandleCommands 指令表
// GET /admin/commands  返回当前指令表（规范记法）
// PUT /admin/commands  以 JSON 数组替换整张表；任何一条无效则整体拒绝
func (m *RoomManager) HandleCommands(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, m.tables.Load().Entries())
	case http.MethodPut:
		var entries []CommandEntry
		if !decodeBody(w, r, &entries) {
			return
		}
		t, err := CompileTable(entries)
		if err != nil {
			var msgs []string
			for _, e := range multierr.Errors(err) {
				msgs = append(msgs, e.Error())
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "errors": msgs})
			return
		}
		m.tables.Store(t)
		Log.Infof("command table replaced: %d commands", t.Len())
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "commands": t.Len()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleHistory 以录像文本格式导出玩家的输入历史
// GET /admin/history?room=room-1&player=alice
func (m *RoomManager) HandleHistory(w http.ResponseWriter, r *http.Request) {
	room, ok := m.Room(roomQuery(r))
	if !ok {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}
	inputs, ok := room.PlayerHistory(PlayerID(r.URL.Query().Get("player")))
	if !ok {
		http.Error(w, "unknown player", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = replay.Write(w, inputs)
}

// JudgeRequest 无状态判定请求：由调用方提供指令与完整的输入历史
type JudgeRequest struct {
	Notation string  `json:"notation"`
	Frames   string  `json:"frames"` // 录像文本格式
	Buffer   *uint32 `json:"buffer,omitempty"`
	Hold     *uint32 `json:"hold,omitempty"`
}

type JudgeStep struct {
	Step     string `json:"step"`
	Found    bool   `json:"found"`
	Position int    `json:"position"`
	Run      int    `json:"run"`
	OK       bool   `json:"ok"`
}

type JudgeResponse struct {
	Matched bool        `json:"matched"`
	Command string      `json:"command"`
	Steps   []JudgeStep `json:"steps"`
}

// HandleJudge POST /judge：对请求中的输入历史做一次判定，不访问任何房间状态
func (m *RoomManager) HandleJudge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req JudgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := command.Parse(req.Notation)
	if err != nil {
		http.Error(w, "notation: "+err.Error(), http.StatusBadRequest)
		return
	}
	inputs, err := replay.Read(strings.NewReader(req.Frames))
	if err != nil {
		http.Error(w, "frames: "+err.Error(), http.StatusBadRequest)
		return
	}

	def := m.settings.Judge
	if req.Buffer != nil {
		def.Buffer = *req.Buffer
	}
	if req.Hold != nil {
		def.Hold = *req.Hold
	}
	matched, results := c.Explain(inputs, def.Buffer, def.Hold)
	resp := JudgeResponse{Matched: matched, Command: c.String(), Steps: make([]JudgeStep, len(results))}
	for i, res := range results {
		resp.Steps[i] = JudgeStep{
			Step:     res.Step.String(),
			Found:    res.Found,
			Position: res.Position,
			Run:      res.Run,
			OK:       res.OK,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Routes 注册全部接口
func (m *RoomManager) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", m.HandleWS)
	mux.HandleFunc("/judge", m.HandleJudge)
	mux.HandleFunc("/admin/config", m.HandleAdminConfig)
	mux.HandleFunc("/admin/commands", m.HandleCommands)
	mux.HandleFunc("/admin/history", m.HandleHistory)
	mux.HandleFunc("/metrics", m.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}
