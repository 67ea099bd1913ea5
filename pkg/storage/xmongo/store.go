package xmongo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/omeyang/quanta/internal/storageopt"
	"github.com/omeyang/quanta/pkg/observability/xmetrics"
	"github.com/omeyang/quanta/pkg/social/xstore"
)

const mongoComponent = "xmongo"

// 文档字段名，与 xstore 类型的 bson 标签一致。
const (
	fieldID        = "_id"
	fieldAuthorID  = "author_id"
	fieldCreatedAt = "created_at"
	fieldBlockerID = "blocker_id"
	fieldBlockedID = "blocked_id"
	fieldMuterID   = "muter_id"
	fieldMutedID   = "muted_id"
	fieldMutedAt   = "muted_at"
	fieldDuration  = "duration"
	// fieldExpiresAt 仅用于清理查询，无限期静音不设置。
	fieldExpiresAt = "expires_at"
)

// feedSort 创建时间倒序，同一时间按 _id 升序，保证分页稳定。
var feedSort = bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: 1}}

// Stats 存储统计。
type Stats struct {
	PingCount   int64
	PingErrors  int64
	SlowQueries int64
}

// Store 是基于 MongoDB 的 xstore.Store 实现。
//
// 帖子、资料、统计、屏蔽与静音各占一个集合。除 ErrNotFound 与
// ErrInvalidArgument 外，所有失败都包装为 xstore.ErrUpstreamUnavailable。
type Store struct {
	client  clientOperations
	posts   collectionOperations
	avatars collectionOperations
	stats   collectionOperations
	blocks  collectionOperations
	mutes   collectionOperations

	options *Options
	slow    *storageopt.SlowQueryDetector[SlowQueryInfo]
	health  storageopt.HealthCounter
	closed  atomic.Bool
}

var _ xstore.Store = (*Store)(nil)

// New 在 database 上创建 Store。client 必须已连接。
func New(client *mongo.Client, database string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if database == "" {
		return nil, ErrEmptyDatabase
	}
	o := applyOptions(opts)
	db := client.Database(database)
	coll := func(name string) collectionOperations {
		return &collectionAdapter{coll: db.Collection(name)}
	}
	return newStore(client, coll, o), nil
}

func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func newStore(client clientOperations, coll func(name string) collectionOperations, o *Options) *Store {
	var hook storageopt.SlowQueryHook[SlowQueryInfo]
	if o.SlowQueryHook != nil {
		hook = storageopt.SlowQueryHook[SlowQueryInfo](o.SlowQueryHook)
	}
	return &Store{
		client:  client,
		posts:   coll(o.Collections.Posts),
		avatars: coll(o.Collections.Avatars),
		stats:   coll(o.Collections.Stats),
		blocks:  coll(o.Collections.Blocks),
		mutes:   coll(o.Collections.Mutes),
		options: o,
		slow:    storageopt.NewSlowQueryDetector(o.SlowQueryThreshold, hook),
	}
}

// FetchFeedPage 按创建时间倒序读取全局帖子。
func (s *Store) FetchFeedPage(ctx context.Context, offset, limit int) ([]xstore.FeedItem, error) {
	return s.findPosts(ctx, "fetch_feed_page", bson.D{}, offset, limit)
}

// FetchAvatarPosts 读取某个 avatar 发布的帖子。
func (s *Store) FetchAvatarPosts(ctx context.Context, avatarID string, offset, limit int) ([]xstore.FeedItem, error) {
	return s.findPosts(ctx, "fetch_avatar_posts", bson.D{{Key: fieldAuthorID, Value: avatarID}}, offset, limit)
}

func (s *Store) findPosts(ctx context.Context, op string, filter bson.D, offset, limit int) ([]xstore.FeedItem, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset %d limit %d", xstore.ErrInvalidArgument, offset, limit)
	}
	// Mongo 的 limit 0 表示不限制
	if limit == 0 {
		return []xstore.FeedItem{}, nil
	}
	return run(ctx, s, s.posts, op, func(ctx context.Context) ([]xstore.FeedItem, error) {
		findOpts := options.Find().
			SetSort(feedSort).
			SetSkip(int64(offset)).
			SetLimit(int64(limit))
		return findAll[xstore.FeedItem](ctx, s.posts, filter, findOpts)
	})
}

// FetchAvatarProfile 读取资料，不存在时返回 xstore.ErrNotFound。
func (s *Store) FetchAvatarProfile(ctx context.Context, avatarID string) (xstore.Profile, error) {
	return run(ctx, s, s.avatars, "fetch_avatar_profile", func(ctx context.Context) (xstore.Profile, error) {
		return findByID[xstore.Profile](ctx, s.avatars, avatarID)
	})
}

// FetchAvatarStats 读取统计，不存在时返回 xstore.ErrNotFound。
func (s *Store) FetchAvatarStats(ctx context.Context, avatarID string) (xstore.Stats, error) {
	return run(ctx, s, s.stats, "fetch_avatar_stats", func(ctx context.Context) (xstore.Stats, error) {
		return findByID[xstore.Stats](ctx, s.stats, avatarID)
	})
}

// FetchBlocks 返回 viewer 作为屏蔽者或被屏蔽者的记录。
func (s *Store) FetchBlocks(ctx context.Context, viewerID string) ([]xstore.BlockRecord, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: fieldBlockerID, Value: viewerID}},
		bson.D{{Key: fieldBlockedID, Value: viewerID}},
	}}}
	return run(ctx, s, s.blocks, "fetch_blocks", func(ctx context.Context) ([]xstore.BlockRecord, error) {
		return findAll[xstore.BlockRecord](ctx, s.blocks, filter)
	})
}

// FetchMutes 返回 viewer 作为静音者的记录。
func (s *Store) FetchMutes(ctx context.Context, viewerID string) ([]xstore.MuteRecord, error) {
	filter := bson.D{{Key: fieldMuterID, Value: viewerID}}
	return run(ctx, s, s.mutes, "fetch_mutes", func(ctx context.Context) ([]xstore.MuteRecord, error) {
		return findAll[xstore.MuteRecord](ctx, s.mutes, filter)
	})
}

// PutBlock 以 upsert 写入屏蔽，已存在时保留原创建时间。
func (s *Store) PutBlock(ctx context.Context, rec xstore.BlockRecord) error {
	filter := bson.D{{Key: fieldBlockerID, Value: rec.BlockerID}, {Key: fieldBlockedID, Value: rec.BlockedID}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: fieldCreatedAt, Value: rec.CreatedAt}}}}
	_, err := run(ctx, s, s.blocks, "put_block", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return s.blocks.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	})
	return err
}

// DeleteBlock 删除屏蔽，不存在时同样成功。
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	filter := bson.D{{Key: fieldBlockerID, Value: blockerID}, {Key: fieldBlockedID, Value: blockedID}}
	_, err := run(ctx, s, s.blocks, "delete_block", func(ctx context.Context) (*mongo.DeleteResult, error) {
		return s.blocks.DeleteOne(ctx, filter)
	})
	return err
}

// PutMute 以 upsert 写入静音，覆盖旧的时间与时长。
func (s *Store) PutMute(ctx context.Context, rec xstore.MuteRecord) error {
	filter := bson.D{{Key: fieldMuterID, Value: rec.MuterID}, {Key: fieldMutedID, Value: rec.MutedID}}
	set := bson.D{{Key: fieldMutedAt, Value: rec.MutedAt}}
	var unset bson.D
	if rec.Indefinite() {
		unset = bson.D{{Key: fieldDuration, Value: ""}, {Key: fieldExpiresAt, Value: ""}}
	} else {
		set = append(set,
			bson.E{Key: fieldDuration, Value: int64(rec.Duration)},
			bson.E{Key: fieldExpiresAt, Value: rec.ExpiresAt()})
	}
	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	_, err := run(ctx, s, s.mutes, "put_mute", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return s.mutes.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	})
	return err
}

// DeleteMute 删除静音，不存在时同样成功。
func (s *Store) DeleteMute(ctx context.Context, muterID, mutedID string) error {
	filter := bson.D{{Key: fieldMuterID, Value: muterID}, {Key: fieldMutedID, Value: mutedID}}
	_, err := run(ctx, s, s.mutes, "delete_mute", func(ctx context.Context) (*mongo.DeleteResult, error) {
		return s.mutes.DeleteOne(ctx, filter)
	})
	return err
}

// PurgeExpiredMutes 删除 expires_at 早于 now 的静音。
func (s *Store) PurgeExpiredMutes(ctx context.Context, now time.Time) (int, error) {
	filter := bson.D{{Key: fieldExpiresAt, Value: bson.D{{Key: "$lt", Value: now}}}}
	res, err := run(ctx, s, s.mutes, "purge_expired_mutes", func(ctx context.Context) (*mongo.DeleteResult, error) {
		return s.mutes.DeleteMany(ctx, filter)
	})
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, nil
	}
	return int(res.DeletedCount), nil
}

// EnsureIndexes 创建查询所需的索引，可重复调用。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   collectionOperations
		models []mongo.IndexModel
	}{
		{s.posts, []mongo.IndexModel{
			{Keys: feedSort},
			{Keys: bson.D{{Key: fieldAuthorID, Value: 1}, {Key: fieldCreatedAt, Value: -1}}},
		}},
		{s.blocks, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: fieldBlockerID, Value: 1}, {Key: fieldBlockedID, Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: fieldBlockedID, Value: 1}}},
		}},
		{s.mutes, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: fieldMuterID, Value: 1}, {Key: fieldMutedID, Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: fieldExpiresAt, Value: 1}}},
		}},
	}
	for _, idx := range indexes {
		_, err := run(ctx, s, idx.coll, "ensure_indexes", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, idx.coll.CreateIndexes(ctx, idx.models)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Health 通过 Ping 检测连接。
func (s *Store) Health(ctx context.Context) (err error) {
	if ctx == nil {
		return ErrNilContext
	}
	if s.closed.Load() {
		return ErrClosed
	}
	ctx, span := xmetrics.Start(ctx, s.options.Observer, xmetrics.SpanOptions{
		Component: mongoComponent,
		Operation: "health",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{xmetrics.String("db.system", "mongodb")},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	s.health.IncPing()
	ctx, cancel := storageopt.HealthContext(ctx, s.options.HealthTimeout)
	defer cancel()
	if err = s.client.Ping(ctx, readpref.Primary()); err != nil {
		s.health.IncPingError()
		return fmt.Errorf("xmongo health: %w", err)
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

// Close 断开连接。重复调用返回 ErrClosed。
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.client.Disconnect(ctx)
}

// run 为一次集合操作加上观测、慢查询检测与错误归类。
func run[T any](ctx context.Context, s *Store, coll collectionOperations, op string, fn func(ctx context.Context) (T, error)) (result T, err error) {
	if ctx == nil {
		return result, ErrNilContext
	}
	if s.closed.Load() {
		return result, fmt.Errorf("%w: %w", xstore.ErrUpstreamUnavailable, ErrClosed)
	}
	name := coll.Name()
	ctx, span := xmetrics.Start(ctx, s.options.Observer, xmetrics.SpanOptions{
		Component: mongoComponent,
		Operation: op,
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String("db.system", "mongodb"),
			xmetrics.String("db.collection", name),
		},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	start := time.Now()
	result, err = fn(ctx)
	s.slow.Observe(ctx, SlowQueryInfo{Collection: name, Operation: op}, time.Since(start))
	if err != nil {
		return result, classify(op, err)
	}
	return result, nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, xstore.ErrNotFound):
		return fmt.Errorf("xmongo %s: %w", op, xstore.ErrNotFound)
	case errors.Is(err, xstore.ErrInvalidArgument):
		return err
	default:
		return fmt.Errorf("%w: xmongo %s: %w", xstore.ErrUpstreamUnavailable, op, err)
	}
}

func findAll[T any](ctx context.Context, coll collectionOperations, filter any, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findByID[T any](ctx context.Context, coll collectionOperations, id string) (T, error) {
	var out T
	err := coll.FindOne(ctx, bson.D{{Key: fieldID, Value: id}}).Decode(&out)
	return out, err
}
