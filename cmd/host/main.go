// Command dhost hosts a discussion from the terminal: set up a meeting, share
// the invite, record the discussion, analyze it and export the conclusion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dhost",
		Short:         "Discussion host - 讨论会议主持命令行工具",
		Long:          "创建讨论会议、分享邀请、录制讨论并提交分析，输出结论与报告。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newSetupCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
