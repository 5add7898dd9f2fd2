package server

import "motionarena/command"

// History 固定深度的逐帧输入环形缓冲，实现 command.History 与 command.Bounded（最旧在前）。
// 仅由房间的 Tick 协程写入；跨协程读取需持有房间锁。
type History struct {
	buf     []command.Key
	start   int // 最旧一帧的下标
	n       int
	dropped bool
}

// NewHistory 创建深度为 depth 的历史（至少 1 帧）
func NewHistory(depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{buf: make([]command.Key, depth)}
}

// Push 追加最新一帧，满时淘汰最旧一帧
func (h *History) Push(k command.Key) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = k
		h.n++
		return
	}
	h.buf[h.start] = k
	h.start = (h.start + 1) % len(h.buf)
	h.dropped = true
}

// Truncated 是否已有帧被淘汰
func (h *History) Truncated() bool { return h.dropped }

func (h *History) Len() int { return h.n }

func (h *History) At(i int) command.Key {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Depth 缓冲容量
func (h *History) Depth() int { return len(h.buf) }

// Resize 调整容量，保留最新的帧
func (h *History) Resize(depth int) {
	if depth < 1 {
		depth = 1
	}
	if depth == len(h.buf) {
		return
	}
	keep := h.n
	if keep > depth {
		keep = depth
		h.dropped = true
	}
	buf := make([]command.Key, depth)
	for i := 0; i < keep; i++ {
		buf[i] = h.At(h.n - keep + i)
	}
	h.buf, h.start, h.n = buf, 0, keep
}

// Snapshot 按时间先后复制当前内容
func (h *History) Snapshot() command.Inputs {
	out := make(command.Inputs, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}
