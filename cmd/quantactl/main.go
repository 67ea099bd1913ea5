// quantactl 是 quanta 信息流核心的命令行工具，用于在本地或真实后端上
// 演练分页、过滤与缓存行为。
//
// 用法:
//
//	quantactl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件（YAML/JSON，读取 quanta 段）
//	    --mongo-uri   MongoDB 连接串，设置后从 MongoDB 读取帖子与关系
//	    --mongo-db    MongoDB 数据库名 (默认: quanta)
//	    --redis-addr  Redis 地址，设置后屏蔽与静音关系存放在 Redis
//	-t, --timeout     整体超时时间 (默认: 30s)
//	    --log-level   日志级别，覆盖配置文件
//
// 未设置 --mongo-uri 时使用内置的演示数据。
//
// 命令:
//
//	feed     按页读取 viewer 的信息流
//	stats    读取若干页后输出缓存与分页统计
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（后端不可用、配置错误等）
//	2: 参数错误
//
// 示例:
//
//	quantactl feed --viewer v1 --pages 3
//	quantactl feed --viewer v1 --block bob,carol --page-size 10
//	quantactl feed --viewer v1 --avatar alice --json
//	quantactl --mongo-uri mongodb://localhost:27017 --redis-addr localhost:6379 feed --viewer v1
//	quantactl stats --viewer v1 --pages 5
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认超时时间。
const defaultTimeout = 30 * time.Second

// 版本信息，可通过 -ldflags 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	os.Exit(run(ctx, os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用。
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "quantactl",
		Usage:     "quanta 信息流命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
			},
			&cli.StringFlag{
				Name:  "mongo-uri",
				Usage: "MongoDB 连接串",
			},
			&cli.StringFlag{
				Name:  "mongo-db",
				Usage: "MongoDB 数据库名",
				Value: "quanta",
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis 地址",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "整体超时时间",
				Value:   defaultTimeout,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
			},
		},
		Commands:     createCommands(),
		OnUsageError: onUsageError,
		// 退出码由 run 统一映射，不允许 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
