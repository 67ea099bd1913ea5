package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/quanta/pkg/social/xfeed"
	"github.com/omeyang/quanta/pkg/social/xpage"
	"github.com/omeyang/quanta/pkg/social/xsession"
)

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// onUsageError 把 flag 解析错误统一转为 usageError。
func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{msg: err.Error()}
}

// isCLIUsageError 判断错误是否为 urfave/cli 产生的参数错误（未知命令、未知 flag 等）。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"flag needs an argument",
		"invalid value",
		"No help topic",
		"Required flag",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// createCommands 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createFeedCommand(),
		createStatsCommand(),
	}
}

// demoFlags feed 与 stats 共用的参数。
func demoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "viewer",
			Usage: "viewer ID（必填）",
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "每页条数，0 表示使用配置的默认值",
		},
		&cli.IntFlag{
			Name:  "pages",
			Usage: "最多读取的页数",
			Value: 1,
		},
		&cli.StringSliceFlag{
			Name:  "block",
			Usage: "读取前先屏蔽的作者，逗号分隔",
		},
		&cli.StringSliceFlag{
			Name:  "mute",
			Usage: "读取前先静音的作者，逗号分隔",
		},
		&cli.DurationFlag{
			Name:  "mute-for",
			Usage: "静音时长，0 表示无限期",
		},
		&cli.StringFlag{
			Name:  "avatar",
			Usage: "读取该 avatar 的帖子而不是全局信息流",
		},
	}
}

func createFeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "按页读取 viewer 的信息流",
		Flags: append(demoFlags(), &cli.BoolFlag{
			Name:  "json",
			Usage: "以 JSON 输出",
		}),
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := parseDemoRequest(cmd)
			if err != nil {
				return err
			}
			return withSession(ctx, cmd, req, func(ctx context.Context, s *xsession.Session) error {
				pages, err := readPages(ctx, s, req)
				if err != nil {
					return err
				}
				if cmd.Bool("json") {
					return writeJSON(cmd.Root().Writer, pages)
				}
				return writePages(cmd.Root().Writer, pages)
			})
		},
	}
}

func createStatsCommand() *cli.Command {
	return &cli.Command{
		Name:         "stats",
		Usage:        "读取若干页后输出缓存与分页统计",
		Flags:        demoFlags(),
		OnUsageError: onUsageError,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := parseDemoRequest(cmd)
			if err != nil {
				return err
			}
			return withSession(ctx, cmd, req, func(ctx context.Context, s *xsession.Session) error {
				pages, err := readPages(ctx, s, req)
				if err != nil {
					return err
				}
				// 预热本次出现过的作者，让 avatar 缓存统计有意义
				if err := s.WarmAvatars(ctx, authorsOf(pages)); err != nil {
					return err
				}
				return writeStats(cmd.Root().Writer, s, pages)
			})
		},
	}
}

// demoRequest 解析后的命令参数。
type demoRequest struct {
	viewerID string
	pageSize int
	pages    int
	block    []string
	mute     []string
	muteFor  time.Duration
	avatarID string
}

func parseDemoRequest(cmd *cli.Command) (demoRequest, error) {
	req := demoRequest{
		viewerID: strings.TrimSpace(cmd.String("viewer")),
		pageSize: cmd.Int("page-size"),
		pages:    cmd.Int("pages"),
		block:    nonEmpty(cmd.StringSlice("block")),
		mute:     nonEmpty(cmd.StringSlice("mute")),
		muteFor:  cmd.Duration("mute-for"),
		avatarID: strings.TrimSpace(cmd.String("avatar")),
	}
	switch {
	case req.viewerID == "":
		return req, usagef("缺少 --viewer")
	case req.pageSize < 0 || req.pageSize > xpage.MaxPageSize:
		return req, usagef("--page-size 必须在 0 到 %d 之间，实际 %d", xpage.MaxPageSize, req.pageSize)
	case req.pages <= 0:
		return req, usagef("--pages 必须为正数，实际 %d", req.pages)
	case req.muteFor < 0:
		return req, usagef("--mute-for 不能为负")
	}
	return req, nil
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// readPages 应用屏蔽与静音后读取最多 req.pages 页，上游没有更多数据时提前结束。
func readPages(ctx context.Context, s *xsession.Session, req demoRequest) ([]xfeed.Page, error) {
	for _, id := range req.block {
		if err := s.BlockUser(ctx, id); err != nil {
			return nil, fmt.Errorf("block %s: %w", id, err)
		}
	}
	for _, id := range req.mute {
		if err := s.MuteUser(ctx, id, req.muteFor); err != nil {
			return nil, fmt.Errorf("mute %s: %w", id, err)
		}
	}

	pages := make([]xfeed.Page, 0, req.pages)
	for range req.pages {
		var (
			page xfeed.Page
			err  error
		)
		if req.avatarID != "" {
			page, err = s.GetAvatarPosts(ctx, req.avatarID, req.pageSize)
		} else {
			page, err = s.GetNextFeedPage(ctx, req.pageSize)
		}
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
		if !page.HasMore {
			break
		}
	}
	return pages, nil
}

func authorsOf(pages []xfeed.Page) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range pages {
		for _, item := range p.Items {
			if _, ok := seen[item.AuthorID]; ok {
				continue
			}
			seen[item.AuthorID] = struct{}{}
			out = append(out, item.AuthorID)
		}
	}
	return out
}

func writePages(w io.Writer, pages []xfeed.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, p := range pages {
		fmt.Fprintf(tw, "# page %d offset=%d items=%d consumed=%d backfill=%d has_more=%v\n",
			i+1, p.Offset, len(p.Items), p.Consumed, p.BackfillRounds, p.HasMore)
		for _, item := range p.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", item.PostID, item.AuthorID, item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStats(w io.Writer, s *xsession.Session, pages []xfeed.Page) error {
	items := 0
	for _, p := range pages {
		items += len(p.Items)
	}
	cache := s.GetCacheStats().Avatars
	pagination := s.GetPaginationStats()
	state := s.FeedState()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pages\t%d\n", len(pages))
	fmt.Fprintf(tw, "items\t%d\n", items)
	fmt.Fprintf(tw, "feed offset\t%d\n", state.Offset)
	fmt.Fprintf(tw, "feed has more\t%v\n", state.HasMore)
	fmt.Fprintf(tw, "scopes\t%d\n", pagination.Scopes)
	fmt.Fprintf(tw, "loading\t%d\n", pagination.Loading)
	for _, c := range []struct {
		name string
		size int
		cap  int
		hits uint64
		miss uint64
		rate float64
	}{
		{"profiles", cache.Profiles.Size, cache.Profiles.Capacity, cache.Profiles.Hits, cache.Profiles.Misses, cache.Profiles.HitRatio()},
		{"posts", cache.Posts.Size, cache.Posts.Capacity, cache.Posts.Hits, cache.Posts.Misses, cache.Posts.HitRatio()},
		{"stats", cache.Stats.Size, cache.Stats.Capacity, cache.Stats.Hits, cache.Stats.Misses, cache.Stats.HitRatio()},
	} {
		fmt.Fprintf(tw, "cache %s\t%d/%d\thits=%d misses=%d ratio=%.2f\n", c.name, c.size, c.cap, c.hits, c.miss, c.rate)
	}
	return tw.Flush()
}

// setupSignalHandler 第一次信号取消 context，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
