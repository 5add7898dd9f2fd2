package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errNoMatch 判定不成立：以退出码 1 结束，不额外输出错误
var errNoMatch = errors.New("no match")

// MotionArena 入口：指令检查、离线判定，以及 HTTP + WebSocket 判定服务
func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "motionarena",
		Short:         "Recognize fighting-game style input commands from frame histories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "motionarena.toml", "Path to TOML config file")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newCheckCmd(&configPath),
		newJudgeCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNoMatch) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
