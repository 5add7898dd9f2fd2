package command

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// History 按时间先后排列（最旧在前）的输入帧序列，由调用方持有
type History interface {
	Len() int
	At(i int) Key
}

// Inputs 以切片实现 History
type Inputs []Key

func (in Inputs) Len() int { return len(in) }
func (in Inputs) At(i int) Key { return in[i] }

// Bounded 由有界的 History 实现（例如环形缓冲）：最旧一帧之前的输入已被丢弃时返回 true。
// 此时判定对丢弃边界保持保守：连续计数碰到边界视为仍在按住，Off 不再因没有帧而成立。
type Bounded interface {
	Truncated() bool
}

var logger atomic.Pointer[zap.Logger]

func init() { logger.Store(zap.NewNop()) }

// SetLogger 设置判定过程的 Debug 级跟踪日志；nil 表示关闭
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// cursor 从最新一帧向过去移动的共享读位置，所有步骤共用且从不回退
type cursor struct {
	h         History
	next      int  // 下一次读取的下标
	truncated bool // 读完后之前还有被丢弃的帧
}

func newCursor(h History) *cursor {
	c := &cursor{h: h, next: -1}
	if h != nil {
		c.next = h.Len() - 1
		if t, ok := h.(Bounded); ok {
			c.truncated = t.Truncated()
		}
	}
	return c
}

func (c *cursor) read() (Key, bool) {
	if c.next < 0 {
		return 0, false
	}
	k := c.h.At(c.next)
	c.next--
	return k, true
}

// position 前进到第一帧包含 key 的位置（含该帧），返回之前跳过的帧数
func (c *cursor) position(key Key) (int, bool) {
	for p := 0; ; p++ {
		k, ok := c.read()
		if !ok {
			return 0, false
		}
		if k.Contains(key) {
			return p, true
		}
	}
}

// run 统计紧接着的连续含 key 帧数；第一个不含 key 的帧同样被消费。
// open 表示计数一直延续到被丢弃的边界，真实长度未知。
func (c *cursor) run(key Key) (n int, open bool) {
	for {
		k, ok := c.read()
		if !ok {
			return n, c.truncated
		}
		if !k.Contains(key) {
			return n, false
		}
		n++
	}
}

// StepResult 单个步骤的判定明细
type StepResult struct {
	Step     Step
	Found    bool // 是否找到目标帧（On/Off 为是否还有帧可读）
	Position int  // 找到前跳过的帧数
	Run      int  // 找到后连续含 key 的帧数（Push/Hold）
	Open     bool // Run 延续到被丢弃的边界
	OK       bool
}

func evalStep(s Step, cur *cursor, defaultBuffer, defaultHold uint32) StepResult {
	r := StepResult{Step: s}
	buffer := int64(s.buffer.Or(defaultBuffer))

	switch s.kind {
	case KindPush:
		// 按下的起点（连续帧的最早一帧）必须在缓冲帧内
		r.Position, r.Found = cur.position(s.key)
		if r.Found {
			r.Run, r.Open = cur.run(s.key)
			// 起点可能早于被丢弃的边界，无法确认在缓冲帧内
			r.OK = !r.Open && int64(r.Position+r.Run) < buffer
		}
	case KindRelease:
		// 紧邻的一帧不能仍按着，但缓冲帧内必须按过
		r.Position, r.Found = cur.position(s.key)
		r.OK = r.Found && r.Position > 0 && int64(r.Position) < buffer+1
	case KindHold:
		hold := int64(s.hold.Or(defaultHold))
		r.Position, r.Found = cur.position(s.key)
		if r.Found {
			bufferOK := int64(r.Position) < buffer+1
			// 找到的那一帧本身算作蓄力的第一帧
			r.Run, r.Open = cur.run(s.key)
			// 延续到边界时实际蓄力只会更长
			r.OK = bufferOK && (r.Open || int64(r.Run) >= hold-1)
		}
	case KindOn:
		var k Key
		k, r.Found = cur.read()
		r.OK = r.Found && k.Contains(s.key)
	case KindOff:
		var k Key
		k, r.Found = cur.read()
		if r.Found {
			r.OK = !k.Contains(s.key)
		} else {
			r.OK = !cur.truncated
		}
	}
	return r
}

// Judge 判定输入历史是否满足指令。
//
// 从最后声明的步骤开始、从最新一帧开始向过去检查；每个步骤都从上一个步骤停下的位置
// 继续扫描。纯函数，不修改 Command 与 History，失败只返回 false。
func (c *Command) Judge(h History, defaultBuffer, defaultHold uint32) bool {
	if c.IsEmpty() {
		return true
	}
	l := logger.Load()
	trace := l.Core().Enabled(zapcore.DebugLevel)

	cur := newCursor(h)
	for i := len(c.steps) - 1; i >= 0; i-- {
		r := evalStep(c.steps[i], cur, defaultBuffer, defaultHold)
		if trace {
			l.Debug("judge step",
				zap.Int("index", i),
				zap.Stringer("step", r.Step),
				zap.Bool("found", r.Found),
				zap.Int("position", r.Position),
				zap.Int("run", r.Run),
				zap.Bool("open", r.Open),
				zap.Bool("ok", r.OK),
			)
		}
		if !r.OK {
			return false
		}
	}
	return true
}

// Judge 函数形式
func Judge(c *Command, h History, defaultBuffer, defaultHold uint32) bool {
	return c.Judge(h, defaultBuffer, defaultHold)
}

// Explain 与 Judge 的判定过程相同，但返回已检查步骤的明细（按检查顺序，即声明的逆序）。
// 遇到第一个失败的步骤即停止。
func (c *Command) Explain(h History, defaultBuffer, defaultHold uint32) (bool, []StepResult) {
	if c.IsEmpty() {
		return true, nil
	}
	cur := newCursor(h)
	results := make([]StepResult, 0, len(c.steps))
	for i := len(c.steps) - 1; i >= 0; i-- {
		r := evalStep(c.steps[i], cur, defaultBuffer, defaultHold)
		results = append(results, r)
		if !r.OK {
			return false, results
		}
	}
	return true, results
}
