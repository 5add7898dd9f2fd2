package server

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
)

// TableStore 当前生效的指令表，可被原子替换
type TableStore struct {
	table   atomic.Pointer[CommandTable]
	version atomic.Int64
}

// NewTableStore 以初始表创建
func NewTableStore(t *CommandTable) *TableStore {
	s := &TableStore{}
	s.Store(t)
	return s
}

// Load 当前表（可能为 nil）
func (s *TableStore) Load() *CommandTable { return s.table.Load() }

// Store 替换当前表
func (s *TableStore) Store(t *CommandTable) {
	s.table.Store(t)
	s.version.Add(1)
}

// Version 每次替换递增，房间据此发现表已更新
func (s *TableStore) Version() int64 { return s.version.Load() }

// Reload 从文件重新加载；失败时保留旧表
func (s *TableStore) Reload(path string) error {
	t, err := LoadCommandTable(path)
	if err != nil {
		return err
	}
	s.Store(t)
	return nil
}

// 编辑器保存文件时往往连续触发多个事件
const reloadDebounce = 100 * time.Millisecond

// WatchTable 监视指令表文件，变更后重新加载，直到 ctx 结束
func WatchTable(ctx context.Context, store *TableStore, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// 监视目录而不是文件本身，以便覆盖"写临时文件再重命名"的保存方式
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(path)
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					pending = time.After(reloadDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				Log.Warnf("command table watcher: %v", err)
			case <-pending:
				pending = nil
				if err := store.Reload(path); err != nil {
					for _, e := range multierr.Errors(err) {
						Log.Errorf("command table reload rejected: %v", e)
					}
					continue
				}
				Log.Infof("command table reloaded: %s (%d commands)", path, store.Load().Len())
			}
		}
	}()
	return nil
}
