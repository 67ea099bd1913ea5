package xstore

//go:generate mockgen -destination=xstoremock/store.go -package=xstoremock . Store

import (
	"context"
	"time"
)

// FeedSource 提供帖子、资料与统计的读取。
//
// 帖子按创建时间倒序返回。offset 与 limit 以未过滤的条数计。
type FeedSource interface {
	FetchFeedPage(ctx context.Context, offset, limit int) ([]FeedItem, error)
	FetchAvatarProfile(ctx context.Context, avatarID string) (Profile, error)
	FetchAvatarPosts(ctx context.Context, avatarID string, offset, limit int) ([]FeedItem, error)
	FetchAvatarStats(ctx context.Context, avatarID string) (Stats, error)
}

// RelationStore 是屏蔽与静音关系的唯一数据源。
//
// 所有写操作幂等：重复屏蔽或删除不存在的关系都不返回错误。
type RelationStore interface {
	// FetchBlocks 返回 viewerID 作为屏蔽者或被屏蔽者的全部记录。
	FetchBlocks(ctx context.Context, viewerID string) ([]BlockRecord, error)
	// FetchMutes 返回 viewerID 作为静音者的记录，可能包含已过期的记录。
	FetchMutes(ctx context.Context, viewerID string) ([]MuteRecord, error)
	PutBlock(ctx context.Context, rec BlockRecord) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	// PutMute 新建或覆盖 (MuterID, MutedID) 的静音记录。
	PutMute(ctx context.Context, rec MuteRecord) error
	DeleteMute(ctx context.Context, muterID, mutedID string) error
	// PurgeExpiredMutes 删除在 now 已失效的静音记录，返回删除数量。
	PurgeExpiredMutes(ctx context.Context, now time.Time) (int, error)
}

// Store 组合了 FeedSource 与 RelationStore。
//
// 内存实现 [Memory] 与网络实现（xmongo、xrelation）都满足此接口，
// 由调用方在构造时选择注入哪一个。
type Store interface {
	FeedSource
	RelationStore
}
