package server

import "motionarena/command"

// Input 客户端上报的手柄状态，由服务端在 Tick 中写入该玩家的输入历史
type Input struct {
	PlayerID PlayerID
	Keys     command.Key
	Seq      int64 // 客户端本地序列号，用于去重
}

// 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"input","keys":"6C","seq":42}
// keys 为当前按住的全部按键，使用指令记法的按键簇，空串表示无输入
type InputMessage struct {
	Type string `json:"type"`
	Keys string `json:"keys"`
	Seq  int64  `json:"seq,omitempty"`
}

// MatchMessage 出站：本帧新成立的指令
type MatchMessage struct {
	Type     string   `json:"type"`
	Tick     int64    `json:"tick"`
	Commands []string `json:"commands"`
}

// ErrorMessage 出站：无法解析的输入
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
