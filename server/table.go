package server

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"motionarena/command"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandEntry 指令表中的一条（TOML 原始形式）
type CommandEntry struct {
	Name     string `toml:"name" json:"name"`
	Notation string `toml:"notation" json:"notation"`
	// 覆盖全局默认帧数，仅作用于本条指令
	Buffer *uint32 `toml:"buffer,omitempty" json:"buffer,omitempty"`
	Hold   *uint32 `toml:"hold,omitempty" json:"hold,omitempty"`
}

// Binding 编译后的指令
type Binding struct {
	Name    string
	Command *command.Command
	Buffer  command.Frames
	Hold    command.Frames
}

// Defaults 合并本条覆盖值与全局默认值
func (b Binding) Defaults(def JudgeConfig) (buffer, hold uint32) {
	return b.Buffer.Or(def.Buffer), b.Hold.Or(def.Hold)
}

// Judge 在给定全局默认值下判定
func (b Binding) Judge(h command.History, def JudgeConfig) bool {
	buffer, hold := b.Defaults(def)
	return b.Command.Judge(h, buffer, hold)
}

// CommandTable 不可变的指令表，按声明顺序保存
type CommandTable struct {
	bindings []Binding
	byName   map[string]int
}

// CompileTable 编译全部条目；所有错误合并后一次返回
func CompileTable(entries []CommandEntry) (*CommandTable, error) {
	t := &CommandTable{byName: make(map[string]int, len(entries))}
	var errs error
	for i, e := range entries {
		if e.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("commands[%d]: missing name", i))
			continue
		}
		if _, dup := t.byName[e.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("commands[%d]: duplicate name %q", i, e.Name))
			continue
		}
		c, err := command.Parse(e.Notation)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("command %q: %w", e.Name, err))
			continue
		}
		b := Binding{Name: e.Name, Command: c}
		if e.Buffer != nil {
			b.Buffer = command.FramesOf(*e.Buffer)
		}
		if e.Hold != nil {
			b.Hold = command.FramesOf(*e.Hold)
		}
		t.byName[e.Name] = len(t.bindings)
		t.bindings = append(t.bindings, b)
	}
	if errs != nil {
		return nil, errs
	}
	return t, nil
}

type tableFile struct {
	Commands []CommandEntry `toml:"commands"`
}

// LoadCommandTable 从只包含 [[commands]] 的 TOML 文件加载
func LoadCommandTable(path string) (*CommandTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading command table %s: %w", path, err)
	}
	return ParseCommandTable(data)
}

// ParseCommandTable 解析 TOML 指令表
func ParseCommandTable(data []byte) (*CommandTable, error) {
	var f tableFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing command table: %w", err)
	}
	return CompileTable(f.Commands)
}

// Len 条目数
func (t *CommandTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bindings)
}

// Bindings 按声明顺序返回
func (t *CommandTable) Bindings() []Binding {
	if t == nil {
		return nil
	}
	out := make([]Binding, len(t.bindings))
	copy(out, t.bindings)
	return out
}

// Lookup 按名称查找；找不到时错误信息附带相近名称
func (t *CommandTable) Lookup(name string) (Binding, error) {
	if t != nil {
		if i, ok := t.byName[name]; ok {
			return t.bindings[i], nil
		}
	}
	if s := t.Suggest(name); s != "" {
		return Binding{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownCommand, name, s)
	}
	return Binding{}, fmt.Errorf("%w %q", ErrUnknownCommand, name)
}

// Suggest 返回最接近的名称，没有时为空串
func (t *CommandTable) Suggest(name string) string {
	if t.Len() == 0 {
		return ""
	}
	names := make([]string, len(t.bindings))
	for i, b := range t.bindings {
		names[i] = b.Name
	}
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// pruneMatched 删除不在表中的指令名
func (t *CommandTable) pruneMatched(matched map[string]bool) {
	for name := range matched {
		if t == nil {
			delete(matched, name)
			continue
		}
		if _, ok := t.byName[name]; !ok {
			delete(matched, name)
		}
	}
}

// Span 表中各指令 Span 的最大值，用于决定历史深度
func (t *CommandTable) Span(def JudgeConfig) int {
	span := 0
	for _, b := range t.Bindings() {
		buffer, hold := b.Defaults(def)
		if s := b.Command.Span(buffer, hold); s > span {
			span = s
		}
	}
	return span
}

// Entries 还原为原始条目（使用规范记法）
func (t *CommandTable) Entries() []CommandEntry {
	bindings := t.Bindings()
	out := make([]CommandEntry, len(bindings))
	for i, b := range bindings {
		e := CommandEntry{Name: b.Name, Notation: b.Command.String()}
		if n, ok := b.Buffer.Get(); ok {
			e.Buffer = &n
		}
		if n, ok := b.Hold.Get(); ok {
			e.Hold = &n
		}
		out[i] = e
	}
	return out
}
