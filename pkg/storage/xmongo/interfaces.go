package xmongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// clientOperations 客户端级别操作，*mongo.Client 实现此接口。
type clientOperations interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// collectionOperations 集合级别操作，测试中以假实现替换。
type collectionOperations interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error)
	CreateIndexes(ctx context.Context, models []mongo.IndexModel) error
	Name() string
}

// collectionAdapter 将 *mongo.Collection 适配为 collectionOperations。
type collectionAdapter struct {
	coll *mongo.Collection
}

func (a *collectionAdapter) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	return a.coll.Find(ctx, filter, opts...)
}

func (a *collectionAdapter) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	return a.coll.FindOne(ctx, filter, opts...)
}

func (a *collectionAdapter) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	return a.coll.UpdateOne(ctx, filter, update, opts...)
}

func (a *collectionAdapter) DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	return a.coll.DeleteOne(ctx, filter, opts...)
}

func (a *collectionAdapter) DeleteMany(ctx context.Context, filter any, opts ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	return a.coll.DeleteMany(ctx, filter, opts...)
}

func (a *collectionAdapter) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	_, err := a.coll.Indexes().CreateMany(ctx, models)
	return err
}

func (a *collectionAdapter) Name() string {
	return a.coll.Name()
}
