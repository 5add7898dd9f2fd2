package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"motionarena/command"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ID   string // 连接标识，用于日志关联
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ID:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
		// 为了实时性，丢弃消息（防止阻塞 Tick）
	}
}

// Close 关闭底层连接并结束写协程
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

func (c *ClientConn) sendError(msg string) {
	b, _ := json.Marshal(ErrorMessage{Type: "error", Message: msg})
	c.Enqueue(b)
}

// readPump 读取客户端上报的手柄状态，转换为 Input 注入房间
func (c *ClientConn) readPump(room *Room, playerID PlayerID) {
	defer c.ws.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID, c)
	c.ws.SetReadLimit(1 << 16)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			Log.Debugf("read end: conn=%s player=%s: %v", c.ID, playerID, err)
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		in, err := decodeInput(payload)
		if err != nil {
			room.metrics.IncRejected()
			c.sendError(err.Error())
			continue
		}
		if in == nil {
			continue
		}
		in.PlayerID = playerID
		room.OnInput(*in)
	}
}

// decodeInput 解析一条入站消息；非 input 类型返回 nil
func decodeInput(payload []byte) (*Input, error) {
	var im InputMessage
	if err := json.Unmarshal(payload, &im); err != nil {
		return nil, err
	}
	if strings.ToLower(im.Type) != "input" {
		return nil, nil
	}
	keys, err := command.ParseKey(im.Keys)
	if err != nil {
		return nil, err
	}
	return &Input{Keys: keys, Seq: im.Seq}, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1&player=alice
func HandleWS(w http.ResponseWriter, r *http.Request) {
	GetRoomManager().HandleWS(w, r)
}

func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player query", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	room := m.GetOrCreateRoom(roomID)

	client := NewClientConn(ws)
	room.JoinPlayer(PlayerID(playerID), client)
	Log.Infof("connected: conn=%s room=%s player=%s", client.ID, roomID, playerID)

	go client.writePump()
	go client.readPump(room, PlayerID(playerID))
}
