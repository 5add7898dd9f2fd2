package server

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config 服务配置（TOML）
//
//	[server]
//	addr = ":8080"
//	ticks_per_second = 60
//
//	[judge]
//	buffer = 10
//	hold = 10
//
//	[log]
//	file = "app.log"
//
//	[[commands]]
//	name = "sonic boom"
//	notation = "h4(45) > p6 > pA"
type Config struct {
	Server ServerConfig `toml:"server"`
	Judge  JudgeConfig  `toml:"judge"`
	Log    LogConfig    `toml:"log"`

	// CommandsFile 独立的指令表文件；设置后会被监视并热加载
	CommandsFile string         `toml:"commands_file"`
	Commands     []CommandEntry `toml:"commands"`
}

type ServerConfig struct {
	Addr             string `toml:"addr"`
	TicksPerSecond   int    `toml:"ticks_per_second"`
	MaxInputsPerTick int    `toml:"max_inputs_per_tick"`
	// HistoryDepth 每个玩家保留的帧数；0 表示按指令表自动计算
	HistoryDepth int `toml:"history_depth"`
}

// JudgeConfig 步骤未覆盖时使用的默认帧数
type JudgeConfig struct {
	Buffer uint32 `toml:"buffer"`
	Hold   uint32 `toml:"hold"`
}

type LogConfig struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
	Console    bool   `toml:"console"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:             ":8080",
			TicksPerSecond:   60,
			MaxInputsPerTick: 8,
		},
		Judge: JudgeConfig{Buffer: 10, Hold: 10},
		Log: LogConfig{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadConfig 读取 TOML 配置并覆盖默认值；文件不存在时返回默认配置
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c Config) Validate() error {
	if c.Server.TicksPerSecond < 1 || c.Server.TicksPerSecond > 1000 {
		return fmt.Errorf("ticks_per_second out of range: %d", c.Server.TicksPerSecond)
	}
	if c.Server.MaxInputsPerTick < 1 {
		return fmt.Errorf("max_inputs_per_tick must be positive: %d", c.Server.MaxInputsPerTick)
	}
	if c.Server.HistoryDepth < 0 {
		return fmt.Errorf("history_depth must not be negative: %d", c.Server.HistoryDepth)
	}
	return nil
}
