package command

import (
	"fmt"
	"strings"
)

// Command 解析后的指令：按发生先后排列的步骤序列。
// 构造后不可变，可被多个 goroutine 同时用于判定。
type Command struct {
	steps []Step
}

// New 以编程方式构造指令（步骤被复制）
func New(steps ...Step) *Command {
	c := &Command{steps: make([]Step, len(steps))}
	copy(c.steps, steps)
	return c
}

// Steps 返回步骤副本
func (c *Command) Steps() []Step {
	if c == nil {
		return nil
	}
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Len 步骤数
func (c *Command) Len() int {
	if c == nil {
		return 0
	}
	return len(c.steps)
}

// IsEmpty 空指令总是判定成立
func (c *Command) IsEmpty() bool { return c.Len() == 0 }

// Equal 步骤序列语义相同
func (c *Command) Equal(other *Command) bool {
	if c.Len() != other.Len() {
		return false
	}
	if c.Len() == 0 {
		return true
	}
	for i := range c.steps {
		if c.steps[i] != other.steps[i] {
			return false
		}
	}
	return true
}

// String 规范记法，步骤之间以 > 连接
func (c *Command) String() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for i, s := range c.steps {
		if i > 0 {
			sb.WriteByte('>')
		}
		s.writeTo(&sb)
	}
	return sb.String()
}

// Keys 只输出每个步骤的按键，便于展示（例如 "4>6>C"）
func (c *Command) Keys() string {
	if c == nil {
		return ""
	}
	parts := make([]string, len(c.steps))
	for i, s := range c.steps {
		parts[i] = s.key.String()
	}
	return strings.Join(parts, ">")
}

// Span 在给定默认值下，每个步骤在其计数窗口内需要的帧数之和，用于决定输入历史保留多少帧。
//
// 这不是判定实际读取帧数的上界：Push/Hold 的连续计数会一直读到按键松开，
// 可以远超窗口。只保留 Span 帧的历史应实现 Bounded，使碰到丢弃边界的判定保持保守。
func (c *Command) Span(defaultBuffer, defaultHold uint32) int {
	if c == nil {
		return 0
	}
	total := 0
	for _, s := range c.steps {
		buffer := int(s.buffer.Or(defaultBuffer))
		switch s.kind {
		case KindPush:
			// 命中位置 + 连续帧 < buffer，再加一帧终止连续计数
			total += buffer + 1
		case KindRelease:
			total += buffer + 1
		case KindHold:
			total += buffer + 1 + int(s.hold.Or(defaultHold))
		case KindOn, KindOff:
			total++
		}
	}
	return total
}

// Validate 检查每个步骤都有记法形式。Parse 得到的指令总是通过；
// 未通过的指令仍可判定，但 String 的结果不能被 Parse 还原。
func (c *Command) Validate() error {
	for i, s := range c.Steps() {
		if !s.hasNotation() {
			return fmt.Errorf("step %d %q: %w", i, s.String(), ErrNoNotation)
		}
	}
	return nil
}

// Serialize 输出规范记法（不做 Validate 检查）
func Serialize(c *Command) string { return c.String() }

// Deserialize 从记法构造指令，等同于 Parse
func Deserialize(text string) (*Command, error) { return Parse(text) }

// MarshalText 实现 encoding.TextMarshaler，便于在 TOML/JSON 资源中直接使用
func (c *Command) MarshalText() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *Command) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	c.steps = parsed.steps
	return nil
}
