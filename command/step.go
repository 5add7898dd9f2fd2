package command

import (
	"strconv"
	"strings"
)

// Kind 步骤类型
type Kind uint8

const (
	KindPush Kind = iota
	KindRelease
	KindHold
	KindOn
	KindOff
)

// Opcode 记法中的操作符字符
func (k Kind) Opcode() byte {
	switch k {
	case KindPush:
		return 'p'
	case KindRelease:
		return 'r'
	case KindHold:
		return 'h'
	case KindOn:
		return 'n'
	case KindOff:
		return 'f'
	}
	return '?'
}

func (k Kind) String() string {
	switch k {
	case KindPush:
		return "push"
	case KindRelease:
		return "release"
	case KindHold:
		return "hold"
	case KindOn:
		return "on"
	case KindOff:
		return "off"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Frames 可选的帧数覆盖值；零值表示未设置（使用判定时传入的默认值）
type Frames struct {
	n   uint32
	set bool
}

// FramesOf 显式设置的帧数
func FramesOf(n uint32) Frames { return Frames{n: n, set: true} }

// Get 返回帧数及是否设置
func (f Frames) Get() (uint32, bool) { return f.n, f.set }

// IsSet 是否显式设置
func (f Frames) IsSet() bool { return f.set }

// Or 未设置时返回 def
func (f Frames) Or(def uint32) uint32 {
	if f.set {
		return f.n
	}
	return def
}

// Step 指令中的一个步骤。不可变值对象，只能通过 Push/Release/Hold/On/Off 构造。
// 构造函数不检查按键：空按键或含 Neutral 的步骤可以参与判定，但没有记法形式，
// 见 Command.Validate。
type Step struct {
	kind   Kind
	key    Key
	buffer Frames
	hold   Frames
}

// Push 在缓冲帧内按下
func Push(key Key, buffer Frames) Step {
	return Step{kind: KindPush, key: key, buffer: buffer}
}

// Release 在缓冲帧内松开
func Release(key Key, buffer Frames) Step {
	return Step{kind: KindRelease, key: key, buffer: buffer}
}

// Hold 持续按住（蓄力）hold 帧，且松开不超过 buffer 帧
func Hold(key Key, buffer, hold Frames) Step {
	return Step{kind: KindHold, key: key, buffer: buffer, hold: hold}
}

// On 下一帧必须包含 key
func On(key Key) Step { return Step{kind: KindOn, key: key} }

// Off 下一帧必须不包含 key
func Off(key Key) Step { return Step{kind: KindOff, key: key} }

func (s Step) Kind() Kind { return s.kind }
func (s Step) Key() Key { return s.key }

// Buffer 缓冲帧覆盖值（On/Off 永远未设置）
func (s Step) Buffer() Frames { return s.buffer }

// HoldFrames 蓄力帧覆盖值（仅 Hold 可能设置）
func (s Step) HoldFrames() Frames { return s.hold }

// Equal 类型、按键与覆盖值（含是否设置）完全一致
func (s Step) Equal(other Step) bool { return s == other }

// hasNotation 规范记法能否被重新解析为同一步骤
func (s Step) hasNotation() bool {
	return !s.key.IsEmpty() && !s.key.Contains(Neutral)
}

// String 规范记法：<opcode><keys>[<buffer>](<hold>)
func (s Step) String() string {
	var sb strings.Builder
	s.writeTo(&sb)
	return sb.String()
}

func (s Step) writeTo(sb *strings.Builder) {
	sb.WriteByte(s.kind.Opcode())
	sb.WriteString(s.key.String())
	if n, ok := s.buffer.Get(); ok {
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatUint(uint64(n), 10))
		sb.WriteByte(']')
	}
	if n, ok := s.hold.Get(); ok {
		sb.WriteByte('(')
		sb.WriteString(strconv.FormatUint(uint64(n), 10))
		sb.WriteByte(')')
	}
}
