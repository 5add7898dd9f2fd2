package command

import (
	"fmt"
	"strings"
)

// Key 一帧内按下的按键与摇杆方向集合（固定位域）
type Key uint16

const (
	// 按键
	A Key = 1 << iota
	B
	C
	D

	// 四方向
	Forward
	Backward
	Up
	Down

	// 斜方向
	ForwardDown
	ForwardUp
	BackwardDown
	BackwardUp

	// 摇杆回中：只能以编程方式使用，记法与 ParseKey 都不接受
	Neutral

	keyMask = Neutral<<1 - 1
)

// Empty 空集合（一帧内无任何输入）
func Empty() Key { return 0 }

// Union 合并两个集合
func Union(a, b Key) Key { return (a | b) & keyMask }

// Contains 当且仅当 other 的每一位都在 k 中时为 true
func (k Key) Contains(other Key) bool {
	other &= keyMask
	return k&other == other
}

// With 返回加入 other 后的新集合
func (k Key) With(other Key) Key { return Union(k, other) }

// IsEmpty 是否没有任何位
func (k Key) IsEmpty() bool { return k&keyMask == 0 }

// Valid 是否只包含已声明的位
func (k Key) Valid() bool { return k&^keyMask == 0 }

// 规范化输出顺序：方向、斜方向、回中、按键
var renderOrder = []struct {
	key Key
	ch  byte
}{
	{Forward, '6'},
	{Backward, '4'},
	{Up, '8'},
	{Down, '2'},
	{ForwardUp, '9'},
	{ForwardDown, '3'},
	{BackwardUp, '7'},
	{BackwardDown, '1'},
	{Neutral, 'N'}, // 记法中没有回中，N 不能被重新解析
	{A, 'A'},
	{B, 'B'},
	{C, 'C'},
	{D, 'D'},
}

// String 输出规范文本；不含 Neutral 时可被 ParseKey 重新解析
func (k Key) String() string {
	var sb strings.Builder
	for _, r := range renderOrder {
		if k.Contains(r.key) {
			sb.WriteByte(r.ch)
		}
	}
	return sb.String()
}

// KeyFromRune 单字符映射：A/B/C/D 为按键，数字为小键盘方向记法
func KeyFromRune(r rune) (Key, error) {
	switch r {
	case 'A':
		return A, nil
	case 'B':
		return B, nil
	case 'C':
		return C, nil
	case 'D':
		return D, nil
	case '1':
		return BackwardDown, nil
	case '2':
		return Down, nil
	case '3':
		return ForwardDown, nil
	case '4':
		return Backward, nil
	case '6':
		return Forward, nil
	case '7':
		return BackwardUp, nil
	case '8':
		return Up, nil
	case '9':
		return ForwardUp, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrKeyName, r)
}

// ParseKey 解析一个完整的按键簇，例如 "6C"；空串得到空集合
func ParseKey(cluster string) (Key, error) {
	var k Key
	for _, r := range cluster {
		b, err := KeyFromRune(r)
		if err != nil {
			return 0, err
		}
		k |= b
	}
	return k, nil
}

// MarshalText 实现 encoding.TextMarshaler
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
