package command

import (
	"errors"
	"fmt"
)

// 解析错误分类
var (
	ErrKeyName         = errors.New("unknown key name")
	ErrNumberFormat    = errors.New("invalid frame number")
	ErrGrammarMismatch = errors.New("command grammar mismatch")
	ErrTrailingInput   = errors.New("command not completely parsed")
)

// ErrNoNotation 以编程方式构造的步骤无法写成记法（空按键或含 Neutral）
var ErrNoNotation = errors.New("step has no notation")

// ParseError 解析失败的详细信息。errors.Is 可匹配上面的分类哨兵。
type ParseError struct {
	Kind     error  // 分类哨兵之一
	Input    string // 完整输入
	Offset   int    // 出错位置（字节）
	Fragment string // 出错的子串；TrailingInput 时为剩余未解析部分
	Err      error  // 底层原因，例如 strconv.NumError
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v at offset %d: %q", e.Kind, e.Offset, e.Fragment)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool { return target == e.Kind }

func (e *ParseError) Unwrap() error { return e.Err }
