package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeFile(t, "motionarena.toml", `
[server]
addr = ":9090"
history_depth = 120

[judge]
hold = 45

[log]
level = "info"
console = true

[[commands]]
name = "sonic boom"
notation = "h4(45) > p6 > pA"
buffer = 8
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.TicksPerSecond)
	assert.Equal(t, 120, cfg.Server.HistoryDepth)
	assert.Equal(t, JudgeConfig{Buffer: 10, Hold: 45}, cfg.Judge)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "app.log", cfg.Log.File)
	assert.True(t, cfg.Log.Console)

	require.Len(t, cfg.Commands, 1)
	table, err := CompileTable(cfg.Commands)
	require.NoError(t, err)
	b, err := table.Lookup("sonic boom")
	require.NoError(t, err)
	buffer, hold := b.Defaults(cfg.Judge)
	assert.Equal(t, uint32(8), buffer)
	assert.Equal(t, uint32(45), hold)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[server\naddr = 1"},
		{"ticks", "[server]\nticks_per_second = 0"},
		{"inputs", "[server]\nmax_inputs_per_tick = -1"},
		{"depth", "[server]\nhistory_depth = -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "bad.toml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.HistoryDepth = 30
	s := settingsFromConfig(cfg)
	assert.Equal(t, RoomSettings{
		TicksPerSecond:   60,
		MaxInputsPerTick: 8,
		HistoryDepth:     30,
		Judge:            JudgeConfig{Buffer: 10, Hold: 10},
	}, s)
}
