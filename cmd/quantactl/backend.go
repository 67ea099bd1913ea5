package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/omeyang/quanta/pkg/observability/xlog"
	"github.com/omeyang/quanta/pkg/social/xsession"
	"github.com/omeyang/quanta/pkg/social/xstore"
	"github.com/omeyang/quanta/pkg/storage/xmongo"
	"github.com/omeyang/quanta/pkg/storage/xrelation"
)

// backend 命令使用的存储及其关闭函数。
type backend struct {
	store   xstore.Store
	remote  bool
	closers []func(ctx context.Context) error
}

func (b *backend) close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// openBackend 按全局参数选择存储：MongoDB 提供帖子，Redis 提供关系，
// 都未设置时使用演示数据。
func openBackend(ctx context.Context, cmd *cli.Command, logger xlog.Logger) (*backend, error) {
	b := &backend{}
	var (
		feed      xstore.FeedSource
		relations xstore.RelationStore
	)

	if uri := cmd.String("mongo-uri"); uri != "" {
		client, err := mongo.Connect(options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		store, err := xmongo.New(client, cmd.String("mongo-db"),
			xmongo.WithSlowQueryThreshold(200*time.Millisecond),
			xmongo.WithSlowQueryHook(func(ctx context.Context, info xmongo.SlowQueryInfo, d time.Duration) {
				logger.Warn(ctx, "slow mongodb query", xlog.Component("xmongo"),
					slog.String("collection", info.Collection), slog.String("operation", info.Operation),
					xlog.Duration(d))
			}),
		)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		b.closers = append(b.closers, store.Close)
		if err := store.Health(ctx); err != nil {
			_ = b.close(ctx)
			return nil, err
		}
		feed, relations = store, store
		b.remote = true
	} else {
		demo := seedDemo()
		feed, relations = demo, demo
	}

	if addr := cmd.String("redis-addr"); addr != "" {
		store, err := xrelation.New(redis.NewClient(&redis.Options{Addr: addr}))
		if err != nil {
			_ = b.close(ctx)
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return store.Close() })
		if err := store.Health(ctx); err != nil {
			_ = b.close(ctx)
			return nil, err
		}
		relations = store
		b.remote = true
	}

	b.store = xstore.Compose(feed, relations)
	return b, nil
}

// loadConfig 读取 --config 指定的文件，未指定时使用默认配置。
func loadConfig(cmd *cli.Command) (xsession.Config, error) {
	cfg := xsession.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = xsession.Load(path); err != nil {
			return cfg, err
		}
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Log.Level = level
	} else if cmd.String("config") == "" {
		cfg.Log.Level = "warn"
	}
	return cfg, nil
}

// withSession 构建会话并执行 fn，结束后释放会话与后端。
func withSession(ctx context.Context, cmd *cli.Command, req demoRequest, fn func(ctx context.Context, s *xsession.Session) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := xsession.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeLog()) }()

	b, err := openBackend(ctx, cmd, logger)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, b.close(context.WithoutCancel(ctx))) }()

	opts := []xsession.Option{xsession.WithLogger(logger)}
	if b.remote {
		opts = append(opts, xsession.WithResilience())
	}
	s, err := xsession.New(req.viewerID, b.store, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.Close(context.WithoutCancel(ctx))) }()

	return fn(ctx, s)
}
