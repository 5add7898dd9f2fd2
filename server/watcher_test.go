package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTableReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[commands]]\nname = \"jab\"\nnotation = \"pA\"\n"), 0o644))

	table, err := LoadCommandTable(path)
	require.NoError(t, err)
	store := NewTableStore(table)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchTable(ctx, store, path))

	// 无效内容被拒绝，当前表保持不变
	require.NoError(t, os.WriteFile(path, []byte("[[commands]]\nname = \"jab\"\nnotation = \"pQ\"\n"), 0o644))
	time.Sleep(3 * reloadDebounce)
	assert.Equal(t, 1, store.Load().Len())

	// 同目录的其他文件不触发重新加载
	v := store.Version()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(3 * reloadDebounce)
	assert.Equal(t, v, store.Version())

	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))
	assert.Eventually(t, func() bool {
		return store.Load().Len() == 3
	}, 2*time.Second, 20*time.Millisecond)
}
