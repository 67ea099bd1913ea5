package xrelation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/quanta/internal/storageopt"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
	"github.com/omeyang/quanta/pkg/social/xstore"
)

const redisComponent = "xrelation"

//go:embed lua/purge_mute.lua
var purgeMuteLuaSource string

var purgeMuteScript = redis.NewScript(purgeMuteLuaSource)

// Stats 存储统计。
type Stats struct {
	PingCount   int64
	PingErrors  int64
	SlowQueries int64
}

// Store 是基于 Redis 的 xstore.RelationStore 实现。
//
// 屏蔽在两个方向各存一份 hash，FetchBlocks 只需两次 HGETALL；
// 静音按静音者存 hash，有期限的静音另外进入过期索引 zset。
// 多 key 写入通过 MULTI/EXEC 保证原子。
type Store struct {
	client  redis.UniversalClient
	keys    keyspace
	options *Options
	slow    *storageopt.SlowQueryDetector[SlowCommandInfo]
	health  storageopt.HealthCounter
	closed  atomic.Bool
}

var _ xstore.RelationStore = (*Store)(nil)

// New 创建 Store。client 的生命周期归 Store 所有，Close 时一并关闭。
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	var hook storageopt.SlowQueryHook[SlowCommandInfo]
	if o.SlowHook != nil {
		hook = storageopt.SlowQueryHook[SlowCommandInfo](o.SlowHook)
	}
	return &Store{
		client:  client,
		keys:    keyspace{prefix: o.KeyPrefix},
		options: o,
		slow:    storageopt.NewSlowQueryDetector(o.SlowThreshold, hook),
	}, nil
}

// Client 返回底层客户端。
func (s *Store) Client() redis.UniversalClient {
	return s.client
}

// FetchBlocks 返回 viewer 作为屏蔽者或被屏蔽者的记录。
func (s *Store) FetchBlocks(ctx context.Context, viewerID string) ([]xstore.BlockRecord, error) {
	return run(ctx, s, "fetch_blocks", func(ctx context.Context) ([]xstore.BlockRecord, error) {
		var out, in *redis.MapStringStringCmd
		_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
			out = p.HGetAll(ctx, s.keys.blocksOut(viewerID))
			in = p.HGetAll(ctx, s.keys.blocksIn(viewerID))
			return nil
		})
		if err != nil {
			return nil, err
		}
		records := make([]xstore.BlockRecord, 0, len(out.Val())+len(in.Val()))
		for blocked, at := range out.Val() {
			created, err := parseMillis(at)
			if err != nil {
				return nil, err
			}
			records = append(records, xstore.BlockRecord{BlockerID: viewerID, BlockedID: blocked, CreatedAt: created})
		}
		for blocker, at := range in.Val() {
			created, err := parseMillis(at)
			if err != nil {
				return nil, err
			}
			records = append(records, xstore.BlockRecord{BlockerID: blocker, BlockedID: viewerID, CreatedAt: created})
		}
		return records, nil
	})
}

// FetchMutes 返回 viewer 的全部静音记录，包括尚未清理的过期记录。
func (s *Store) FetchMutes(ctx context.Context, viewerID string) ([]xstore.MuteRecord, error) {
	return run(ctx, s, "fetch_mutes", func(ctx context.Context) ([]xstore.MuteRecord, error) {
		raw, err := s.client.HGetAll(ctx, s.keys.mutes(viewerID)).Result()
		if err != nil {
			return nil, err
		}
		records := make([]xstore.MuteRecord, 0, len(raw))
		for mutedID, data := range raw {
			var rec xstore.MuteRecord
			if err := json.Unmarshal([]byte(data), &rec); err != nil {
				return nil, fmt.Errorf("%w: mute %s/%s: %w", ErrCorruptRecord, viewerID, mutedID, err)
			}
			rec.MuterID, rec.MutedID = viewerID, mutedID
			records = append(records, rec)
		}
		return records, nil
	})
}

// PutBlock 写入屏蔽，已存在时保留原创建时间。
func (s *Store) PutBlock(ctx context.Context, rec xstore.BlockRecord) error {
	at := formatMillis(rec.CreatedAt)
	_, err := run(ctx, s, "put_block", func(ctx context.Context) ([]redis.Cmder, error) {
		return s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSetNX(ctx, s.keys.blocksOut(rec.BlockerID), rec.BlockedID, at)
			p.HSetNX(ctx, s.keys.blocksIn(rec.BlockedID), rec.BlockerID, at)
			return nil
		})
	})
	return err
}

// DeleteBlock 删除屏蔽，不存在时同样成功。
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	_, err := run(ctx, s, "delete_block", func(ctx context.Context) ([]redis.Cmder, error) {
		return s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, s.keys.blocksOut(blockerID), blockedID)
			p.HDel(ctx, s.keys.blocksIn(blockedID), blockerID)
			return nil
		})
	})
	return err
}

// PutMute 写入或覆盖静音，同步维护过期索引。
func (s *Store) PutMute(ctx context.Context, rec xstore.MuteRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("xrelation: marshal mute: %w", err)
	}
	member := expiryMember(rec.MuterID, rec.MutedID)
	_, err = run(ctx, s, "put_mute", func(ctx context.Context) ([]redis.Cmder, error) {
		return s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, s.keys.mutes(rec.MuterID), rec.MutedID, data)
			if rec.Indefinite() {
				p.ZRem(ctx, s.keys.muteExpiry(), member)
			} else {
				p.ZAdd(ctx, s.keys.muteExpiry(), redis.Z{
					Score:  float64(rec.ExpiresAt().UnixMilli()),
					Member: member,
				})
			}
			return nil
		})
	})
	return err
}

// DeleteMute 删除静音，不存在时同样成功。
func (s *Store) DeleteMute(ctx context.Context, muterID, mutedID string) error {
	_, err := run(ctx, s, "delete_mute", func(ctx context.Context) ([]redis.Cmder, error) {
		return s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, s.keys.mutes(muterID), mutedID)
			p.ZRem(ctx, s.keys.muteExpiry(), expiryMember(muterID, mutedID))
			return nil
		})
	})
	return err
}

// PurgeExpiredMutes 删除过期时间早于 now 的静音。
//
// 每条记录由脚本单独删除，扫描与删除之间被续期的静音会保留。
func (s *Store) PurgeExpiredMutes(ctx context.Context, now time.Time) (int, error) {
	nowMillis := now.UnixMilli()
	return run(ctx, s, "purge_expired_mutes", func(ctx context.Context) (int, error) {
		members, err := s.client.ZRangeByScore(ctx, s.keys.muteExpiry(), &redis.ZRangeBy{
			Min: "-inf",
			Max: "(" + strconv.FormatInt(nowMillis, 10),
		}).Result()
		if err != nil {
			return 0, err
		}
		purged := 0
		for _, member := range members {
			muterID, mutedID, err := splitExpiryMember(member)
			if err != nil {
				// 无法解析的成员直接移出索引
				if err := s.client.ZRem(ctx, s.keys.muteExpiry(), member).Err(); err != nil {
					return purged, err
				}
				continue
			}
			n, err := purgeMuteScript.Run(ctx, s.client,
				[]string{s.keys.muteExpiry(), s.keys.mutes(muterID)},
				member, mutedID, nowMillis,
			).Int()
			if err != nil {
				return purged, err
			}
			purged += n
		}
		return purged, nil
	})
}

// Health 通过 PING 检测连接。
func (s *Store) Health(ctx context.Context) (err error) {
	if ctx == nil {
		return ErrNilContext
	}
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, span := xmetrics.Start(ctx, s.options.Observer, xmetrics.SpanOptions{
		Component: redisComponent,
		Operation: "health",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("db.system", "redis")},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	s.health.IncPing()
	ctx, cancel := storageopt.HealthContext(ctx, s.options.HealthTimeout)
	defer cancel()
	if err = s.client.Ping(ctx).Err(); err != nil {
		s.health.IncPingError()
		return fmt.Errorf("xrelation health: %w", err)
	}
	return nil
}

// Stats 返回统计信息。
func (s *Store) Stats() Stats {
	return Stats{
		PingCount:   s.health.PingCount(),
		PingErrors:  s.health.PingErrors(),
		SlowQueries: s.slow.Count(),
	}
}

// Close 关闭客户端。重复调用返回 ErrClosed。
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.client.Close()
}

// run 为一次 Redis 操作加上观测、慢命令检测与错误归类。
func run[T any](ctx context.Context, s *Store, op string, fn func(ctx context.Context) (T, error)) (result T, err error) {
	if ctx == nil {
		return result, ErrNilContext
	}
	if s.closed.Load() {
		return result, fmt.Errorf("%w: %w", xstore.ErrUpstreamUnavailable, ErrClosed)
	}
	ctx, span := xmetrics.Start(ctx, s.options.Observer, xmetrics.SpanOptions{
		Component: redisComponent,
		Operation: op,
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("db.system", "redis")},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	start := time.Now()
	result, err = fn(ctx)
	s.slow.Observe(ctx, SlowCommandInfo{Operation: op}, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrCorruptRecord) {
			return result, err
		}
		return result, fmt.Errorf("%w: xrelation %s: %w", xstore.ErrUpstreamUnavailable, op, err)
	}
	return result, nil
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrCorruptRecord, s)
	}
	return time.UnixMilli(ms).UTC(), nil
}
