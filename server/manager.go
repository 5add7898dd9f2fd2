package server

import "sync"

// RoomManager 管理多个房间的生命周期；所有房间共用同一张指令表
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	settings RoomSettings
	tables   *TableStore
	noTicker bool
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

// NewRoomManager 创建房间管理器
func NewRoomManager(settings RoomSettings, tables *TableStore) *RoomManager {
	if tables == nil {
		tables = NewTableStore(nil)
	}
	return &RoomManager{
		rooms:    make(map[string]*Room),
		settings: settings,
		tables:   tables,
	}
}

// InitRoomManager 以配置初始化单例；必须在第一次 GetRoomManager 之前调用
func InitRoomManager(cfg Config, tables *TableStore) *RoomManager {
	once.Do(func() {
		defaultManager = NewRoomManager(settingsFromConfig(cfg), tables)
	})
	return defaultManager
}

// GetRoomManager 单例房间管理器（未初始化时使用默认配置）
func GetRoomManager() *RoomManager {
	return InitRoomManager(DefaultConfig(), nil)
}

// Tables 共用的指令表
func (m *RoomManager) Tables() *TableStore { return m.tables }

// Room 查找已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.settings, m.tables)
		m.rooms[id] = r
		if !m.noTicker {
			r.StartTicker()
		}
		Log.Infof("room created: %s", id)
	}
	return r
}

// Shutdown 停止所有房间的 Tick
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		r.StopTicker()
	}
}
