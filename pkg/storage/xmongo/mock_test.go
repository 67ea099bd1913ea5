package xmongo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// mockClientOps 实现 clientOperations 接口
type mockClientOps struct {
	pingErr       error
	pingCount     int
	disconnectErr error
	disconnected  bool
}

func (m *mockClientOps) Ping(_ context.Context, _ *readpref.ReadPref) error {
	m.pingCount++
	return m.pingErr
}

func (m *mockClientOps) Disconnect(_ context.Context) error {
	m.disconnected = true
	return m.disconnectErr
}

// mockCollectionOps 实现 collectionOperations 接口，记录最近一次调用的参数。
type mockCollectionOps struct {
	mu sync.Mutex

	name string

	// Find 返回的文档，经 mongo.NewCursorFromDocuments 转为 cursor
	docs    []any
	findErr error
	delay   time.Duration

	// FindOne 返回的文档，nil 时返回 ErrNoDocuments
	one    any
	oneErr error

	updateErr    error
	deleteErr    error
	deleteCount  int64
	indexErr     error
	indexModels  [][]mongo.IndexModel
	lastFilter   any
	lastUpdate   any
	lastFindOpts []options.Lister[options.FindOptions]
	lastUpsert   bool
	calls        map[string]int
}

func newMockCollectionOps(name string) *mockCollectionOps {
	return &mockCollectionOps{name: name, calls: map[string]int{}}
}

func (m *mockCollectionOps) record(op string, filter any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	m.lastFilter = filter
}

func (m *mockCollectionOps) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockCollectionOps) Find(_ context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	m.record("find", filter)
	m.lastFindOpts = opts
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	return mongo.NewCursorFromDocuments(m.docs, nil, nil)
}

func (m *mockCollectionOps) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	m.record("find_one", filter)
	switch {
	case m.oneErr != nil:
		return mongo.NewSingleResultFromDocument(bson.D{}, m.oneErr, nil)
	case m.one == nil:
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	default:
		return mongo.NewSingleResultFromDocument(m.one, nil, nil)
	}
}

func (m *mockCollectionOps) UpdateOne(_ context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	m.record("update_one", filter)
	m.lastUpdate = update
	m.lastUpsert = false
	for _, o := range opts {
		var uo options.UpdateOneOptions
		for _, set := range o.List() {
			_ = set(&uo)
		}
		if uo.Upsert != nil && *uo.Upsert {
			m.lastUpsert = true
		}
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockCollectionOps) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	m.record("delete_one", filter)
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &mongo.DeleteResult{DeletedCount: m.deleteCount}, nil
}

func (m *mockCollectionOps) DeleteMany(_ context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	m.record("delete_many", filter)
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	return &mongo.DeleteResult{DeletedCount: m.deleteCount}, nil
}

func (m *mockCollectionOps) CreateIndexes(_ context.Context, models []mongo.IndexModel) error {
	m.record("create_indexes", nil)
	m.indexModels = append(m.indexModels, models)
	return m.indexErr
}

func (m *mockCollectionOps) Name() string {
	return m.name
}

// mockSet 一个 Store 的全部集合。
type mockSet struct {
	client  *mockClientOps
	posts   *mockCollectionOps
	avatars *mockCollectionOps
	stats   *mockCollectionOps
	blocks  *mockCollectionOps
	mutes   *mockCollectionOps
}

func newTestStore(opts ...Option) (*Store, *mockSet) {
	o := applyOptions(opts)
	set := &mockSet{
		client:  &mockClientOps{},
		posts:   newMockCollectionOps(o.Collections.Posts),
		avatars: newMockCollectionOps(o.Collections.Avatars),
		stats:   newMockCollectionOps(o.Collections.Stats),
		blocks:  newMockCollectionOps(o.Collections.Blocks),
		mutes:   newMockCollectionOps(o.Collections.Mutes),
	}
	byName := map[string]*mockCollectionOps{
		o.Collections.Posts:   set.posts,
		o.Collections.Avatars: set.avatars,
		o.Collections.Stats:   set.stats,
		o.Collections.Blocks:  set.blocks,
		o.Collections.Mutes:   set.mutes,
	}
	s := newStore(set.client, func(name string) collectionOperations {
		return byName[name]
	}, o)
	return s, set
}
