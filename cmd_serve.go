package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"motionarena/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr    string
		webDir  string
		console bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket judge server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if console {
				cfg.Log.Console = true
			}
			return runServe(cfg, webDir)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	cmd.Flags().StringVar(&webDir, "web", "web", "static files served at / (skipped if missing)")
	cmd.Flags().BoolVar(&console, "console", false, "also write logs to stderr")
	return cmd
}

func loadTable(cfg server.Config) (*server.CommandTable, error) {
	if cfg.CommandsFile != "" {
		return server.LoadCommandTable(cfg.CommandsFile)
	}
	return server.CompileTable(cfg.Commands)
}

func runServe(cfg server.Config, webDir string) error {
	// zap 日志写入文件（带滚动）
	if err := server.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer server.SyncLogger()

	table, err := loadTable(cfg)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			server.Log.Errorf("command table: %v", e)
		}
		return fmt.Errorf("loading command table: %w", err)
	}
	tables := server.NewTableStore(table)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CommandsFile != "" {
		if err := server.WatchTable(ctx, tables, cfg.CommandsFile); err != nil {
			server.Log.Warnf("watching %s: %v", cfg.CommandsFile, err)
		}
	}

	rm := server.InitRoomManager(cfg, tables)
	defer rm.Shutdown()
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom("room-1")

	mux := http.NewServeMux()
	rm.Routes(mux)
	if st, err := os.Stat(webDir); err == nil && st.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		server.Log.Infof("MotionArena listening on %s with %d commands", cfg.Server.Addr, table.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 优雅退出（Ctrl+C）
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}
	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
