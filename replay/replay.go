// Package replay 读写逐帧输入录像的文本格式。
//
// 每行一帧（或一段重复帧），最旧在前：
//
//	# 注释
//	_*10     10 帧无输入
//	4*120    按住后 120 帧
//	6C       同时按前与 C
//
// 按键簇沿用指令记法（A/B/C/D 与小键盘数字，没有 5），"_" 表示空帧，"*N" 表示重复 N 帧。
// 空行被忽略。
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"motionarena/command"
)

// 空帧记号
const emptyFrame = "_"

const (
	// MaxRepeat 单行允许的最大重复次数
	MaxRepeat = 1 << 20
	// MaxFrames 一份录像展开后的总帧数上限
	MaxFrames = 1 << 20
)

var (
	ErrBadRepeat     = errors.New("invalid repeat count")
	ErrTooManyFrames = errors.New("too many frames")
)

// Read 解析录像文本
func Read(r io.Reader) (command.Inputs, error) {
	var out command.Inputs
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		key, n, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(out)+n > MaxFrames {
			return nil, fmt.Errorf("line %d: %w: more than %d", line, ErrTooManyFrames, MaxFrames)
		}
		for i := 0; i < n; i++ {
			out = append(out, key)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	return out, nil
}

// ReadString 解析录像字符串
func ReadString(s string) (command.Inputs, error) {
	return Read(strings.NewReader(s))
}

func parseLine(text string) (command.Key, int, error) {
	cluster, count, hasCount := strings.Cut(text, "*")
	cluster = strings.TrimSpace(cluster)

	n := 1
	if hasCount {
		v, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || v < 1 || v > MaxRepeat {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadRepeat, count)
		}
		n = v
	}

	if cluster == emptyFrame {
		return command.Empty(), n, nil
	}
	key, err := command.ParseKey(cluster)
	if err != nil {
		return 0, 0, err
	}
	return key, n, nil
}

// Write 以行程压缩的形式写出录像
func Write(w io.Writer, h command.History) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < h.Len(); {
		k := h.At(i)
		j := i + 1
		for j < h.Len() && h.At(j) == k {
			j++
		}
		token := k.String()
		if token == "" {
			token = emptyFrame
		}
		var err error
		if j-i > 1 {
			_, err = fmt.Fprintf(bw, "%s*%d\n", token, j-i)
		} else {
			_, err = fmt.Fprintln(bw, token)
		}
		if err != nil {
			return err
		}
		i = j
	}
	return bw.Flush()
}
