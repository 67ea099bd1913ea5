package xstore

// composite 将独立的帖子源与关系存储组合为 Store。
type composite struct {
	FeedSource
	RelationStore
}

// Compose 组合帖子源与关系存储，例如 MongoDB 上的帖子与 Redis 上的屏蔽关系。
func Compose(feed FeedSource, relations RelationStore) Store {
	return composite{FeedSource: feed, RelationStore: relations}
}
