package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motionarena/command"
)

func testSettings() RoomSettings {
	return RoomSettings{
		TicksPerSecond:   60,
		MaxInputsPerTick: 8,
		Judge:            JudgeConfig{Buffer: 10, Hold: 10},
	}
}

func testStore(t *testing.T, entries ...CommandEntry) *TableStore {
	t.Helper()
	table, err := CompileTable(entries)
	require.NoError(t, err)
	return NewTableStore(table)
}

// step 发送一组输入（可为空）后推进一帧，返回该玩家本帧新成立的指令
func step(r *Room, id PlayerID, keys ...string) []string {
	for _, k := range keys {
		key, err := command.ParseKey(k)
		if err != nil {
			panic(err)
		}
		r.OnInput(Input{PlayerID: id, Keys: key})
	}
	r.Tick()
	p := r.Players[id]
	return append([]string(nil), p.LastMatches...)
}

func TestRoomReportsRisingEdge(t *testing.T) {
	store := testStore(t,
		CommandEntry{Name: "hadouken", Notation: "p2 > p6 > pA"},
		CommandEntry{Name: "jab", Notation: "pA"},
	)
	r := NewRoom("r", testSettings(), store)
	r.JoinPlayer("alice", nil)

	assert.Empty(t, step(r, "alice", "2"))
	assert.Empty(t, step(r, "alice")) // 持续按住 2
	assert.Empty(t, step(r, "alice", "6"))
	assert.Empty(t, step(r, "alice"))
	assert.Equal(t, []string{"hadouken", "jab"}, step(r, "alice", "A"))

	// 指令仍然成立，但不再重复上报
	assert.Empty(t, step(r, "alice"))
	assert.Equal(t, int64(6), r.TickSeq())

	snap := r.metrics.Snapshot()
	assert.Equal(t, int64(2), snap["matches"])
	assert.Equal(t, int64(12), snap["evaluations"])
	assert.Equal(t, int64(3), snap["inputs_accepted"])
}

func TestRoomKeepsTapWithinTick(t *testing.T) {
	settings := testSettings()
	settings.HistoryDepth = 8
	r := NewRoom("r", settings, nil)
	r.JoinPlayer("alice", nil)

	// 同一帧内按下又松开 A，A 仍写入这一帧
	step(r, "alice", "6A", "6")
	step(r, "alice")
	step(r, "alice", "")

	h, ok := r.PlayerHistory("alice")
	require.True(t, ok)
	assert.Equal(t, command.Inputs{
		command.Forward | command.A,
		command.Forward,
		command.Empty(),
	}, tail(h, 3))
}

func tail(in command.Inputs, n int) command.Inputs {
	if len(in) < n {
		return in
	}
	return in[len(in)-n:]
}

func TestRoomSequenceAndRateLimit(t *testing.T) {
	settings := testSettings()
	settings.MaxInputsPerTick = 2
	r := NewRoom("r", settings, nil)
	r.JoinPlayer("alice", nil)

	r.OnInput(Input{PlayerID: "alice", Keys: command.A, Seq: 5})
	r.OnInput(Input{PlayerID: "alice", Keys: command.B, Seq: 3}) // 旧序列
	r.OnInput(Input{PlayerID: "alice", Keys: command.C, Seq: 6})
	r.OnInput(Input{PlayerID: "alice", Keys: command.D, Seq: 7}) // 超出本帧限额
	r.OnInput(Input{PlayerID: "bob", Keys: command.D})           // 不在房间内
	r.Tick()

	h, _ := r.PlayerHistory("alice")
	assert.Equal(t, command.A|command.C, h[len(h)-1])

	m := r.Metrics()
	assert.Equal(t, int64(2), m.InputsAccepted)
	assert.Equal(t, int64(1), m.OldSeqIgnored)
	assert.Equal(t, int64(1), m.RateLimited)

	// 限额按帧重置
	r.OnInput(Input{PlayerID: "alice", Keys: command.D, Seq: 8})
	r.Tick()
	h, _ = r.PlayerHistory("alice")
	assert.Equal(t, command.D, h[len(h)-1])
}

func TestRoomHistoryDepthFollowsTable(t *testing.T) {
	store := testStore(t, CommandEntry{Name: "jab", Notation: "pA"})
	r := NewRoom("r", testSettings(), store)
	p := r.JoinPlayer("alice", nil)
	assert.Equal(t, 11, p.History.Depth())

	charge, err := CompileTable([]CommandEntry{{Name: "charge", Notation: "h4(60)[10] > p6[10] > pC[10]"}})
	require.NoError(t, err)
	store.Store(charge)
	r.Tick()
	assert.Equal(t, 93, p.History.Depth())

	// 默认帧数变化同样会重新计算
	r.SetDefaults(JudgeConfig{Buffer: 5, Hold: 10})
	r.Tick()
	assert.Equal(t, 93, p.History.Depth())

	r.SetDefaults(JudgeConfig{Buffer: 10, Hold: 20})
	store.Store(mustTable(t, CommandEntry{Name: "hold", Notation: "h4"}))
	r.Tick()
	assert.Equal(t, 31, p.History.Depth())
}

func mustTable(t *testing.T, entries ...CommandEntry) *CommandTable {
	t.Helper()
	table, err := CompileTable(entries)
	require.NoError(t, err)
	return table
}

func TestRoomFixedHistoryDepth(t *testing.T) {
	settings := testSettings()
	settings.HistoryDepth = 4
	r := NewRoom("r", settings, testStore(t, CommandEntry{Name: "jab", Notation: "pA"}))
	p := r.JoinPlayer("alice", nil)
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	assert.Equal(t, 4, p.History.Depth())
	assert.Equal(t, 4, p.History.Len())
}

func TestRoomLeave(t *testing.T) {
	r := NewRoom("r", testSettings(), nil)
	r.JoinPlayer("alice", nil)
	r.JoinPlayer("bob", nil)

	// 来自旧连接的请求被忽略
	r.RequestLeave("alice", &ClientConn{})
	r.RequestLeave("bob", nil)
	r.Tick()

	_, ok := r.PlayerHistory("alice")
	assert.True(t, ok)
	_, ok = r.PlayerHistory("bob")
	assert.False(t, ok)
}

func TestRoomReaddedCommandReportsAgain(t *testing.T) {
	settings := testSettings()
	settings.HistoryDepth = 16
	jab := CommandEntry{Name: "jab", Notation: "pA"}
	store := testStore(t, jab)
	r := NewRoom("r", settings, store)
	r.JoinPlayer("alice", nil)

	assert.Equal(t, []string{"jab"}, step(r, "alice", "A"))

	// 移除 jab 期间松开再按下 A
	store.Store(mustTable(t, CommandEntry{Name: "kick", Notation: "pB"}))
	assert.Empty(t, step(r, "alice", ""))
	assert.Empty(t, step(r, "alice", "A"))
	assert.NotContains(t, r.Players["alice"].matched, "jab")

	// 重新加入时 A 仍按着，作为新成立上报
	store.Store(mustTable(t, jab))
	assert.Equal(t, []string{"jab"}, step(r, "alice"))
}

func TestRoomReconnectKeepsHistory(t *testing.T) {
	settings := testSettings()
	settings.HistoryDepth = 8
	r := NewRoom("r", settings, nil)
	r.JoinPlayer("alice", nil)
	step(r, "alice", "4")
	step(r, "alice")

	p := r.JoinPlayer("alice", nil)
	assert.Equal(t, 2, p.History.Len())
	assert.Len(t, r.Players, 1)
}
