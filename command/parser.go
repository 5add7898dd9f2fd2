package command

import (
	"strconv"
	"unicode/utf8"
)

// Parse 将指令记法编译为 Command。
//
// 记法示例："h4(60)[10] > p6[10] > pC[10]"
//
//   - p 按下、r 松开、h 按住、n 当前帧含有、f 当前帧不含
//   - 按键簇由 A/B/C/D 与小键盘方向数字组成，中间不允许空白
//   - [n] 覆盖缓冲帧，(n) 覆盖蓄力帧（仅 h，两者顺序任意）
//   - 步骤之间用 > 连接，> 两侧及括号内可有空白
//
// 必须完整消费输入（首尾空白除外），否则返回 ErrTrailingInput。
func Parse(text string) (*Command, error) {
	p := &parser{input: text}
	steps, err := p.command()
	if err != nil {
		return nil, err
	}
	return &Command{steps: steps}, nil
}

// MustParse 解析失败时 panic，仅用于初始化已知正确的记法
func MustParse(text string) *Command {
	c, err := Parse(text)
	if err != nil {
		panic("invalid command notation: " + text + ": " + err.Error())
	}
	return c
}

type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *parser) fail(kind error, at int, fragment string, cause error) error {
	return &ParseError{
		Kind:     kind,
		Input:    p.input,
		Offset:   at,
		Fragment: fragment,
		Err:      cause,
	}
}

// command := ws step (seq step)* ws
func (p *parser) command() ([]Step, error) {
	p.skipSpace()
	if p.eof() {
		return nil, nil
	}

	var steps []Step
	for {
		s, err := p.step()
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)

		// seq := ws ">" ws
		save := p.pos
		p.skipSpace()
		if p.peek() != '>' {
			p.pos = save
			break
		}
		p.pos++
		p.skipSpace()
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.fail(ErrTrailingInput, p.pos, p.input[p.pos:], nil)
	}
	return steps, nil
}

func (p *parser) step() (Step, error) {
	if p.eof() {
		return Step{}, p.fail(ErrGrammarMismatch, p.pos, "", nil)
	}

	op := p.peek()
	switch op {
	case 'p', 'r', 'h', 'n', 'f':
	default:
		return Step{}, p.fail(ErrGrammarMismatch, p.pos, p.input[p.pos:], nil)
	}
	p.pos++
	p.skipSpace()

	key, err := p.buttons()
	if err != nil {
		return Step{}, err
	}

	switch op {
	case 'p', 'r':
		buffer, _, err := p.group('[', ']')
		if err != nil {
			return Step{}, err
		}
		if op == 'p' {
			return Push(key, buffer), nil
		}
		return Release(key, buffer), nil
	case 'h':
		buffer, hold, err := p.holdGroups()
		if err != nil {
			return Step{}, err
		}
		return Hold(key, buffer, hold), nil
	case 'n':
		return On(key), nil
	default:
		return Off(key), nil
	}
}

// buttons := (stick_digit | button_letter)+，簇内不允许空白
func (p *parser) buttons() (Key, error) {
	start := p.pos
	var key Key
	for !p.eof() {
		c := p.peek()
		if isSpace(c) || c == '>' || c == '[' || c == '(' {
			break
		}
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		k, err := KeyFromRune(r)
		if err != nil {
			return 0, p.fail(ErrKeyName, p.pos, string(r), nil)
		}
		key |= k
		p.pos += size
	}
	if p.pos == start {
		return 0, p.fail(ErrGrammarMismatch, start, p.input[start:], nil)
	}
	return key, nil
}

// hold 步骤的 (n) 与 [n] 各自可选，顺序任意
func (p *parser) holdGroups() (buffer, hold Frames, err error) {
	for i := 0; i < 2; i++ {
		var ok bool
		if !hold.IsSet() {
			if hold, ok, err = p.group('(', ')'); err != nil {
				return Frames{}, Frames{}, err
			} else if ok {
				continue
			}
		}
		if !buffer.IsSet() {
			if buffer, ok, err = p.group('[', ']'); err != nil {
				return Frames{}, Frames{}, err
			} else if ok {
				continue
			}
		}
		break
	}
	return buffer, hold, nil
}

// group := ws open ws digits ws close ws；不以 open 开头时不消费任何输入
func (p *parser) group(open, close byte) (Frames, bool, error) {
	save := p.pos
	p.skipSpace()
	if p.peek() != open {
		p.pos = save
		return Frames{}, false, nil
	}
	p.pos++
	p.skipSpace()

	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isSpace(c) || c == close {
			break
		}
		p.pos++
	}
	digits := p.input[start:p.pos]
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return Frames{}, false, p.fail(ErrNumberFormat, start, digits, err)
	}

	p.skipSpace()
	if p.peek() != close {
		return Frames{}, false, p.fail(ErrGrammarMismatch, p.pos, p.input[p.pos:], nil)
	}
	p.pos++
	p.skipSpace()
	return FramesOf(uint32(n)), true, nil
}
