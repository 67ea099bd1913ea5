// Package xmongo 提供基于 MongoDB 的 xstore.Store 实现。
//
// 帖子、avatar 资料、avatar 统计、屏蔽与静音分别存放在独立集合中，
// 集合名可通过 WithCollections 覆盖：
//
//	client, _ := mongo.Connect(options.Client().ApplyURI(uri))
//	store, err := xmongo.New(client, "quanta",
//	    xmongo.WithSlowQueryThreshold(200*time.Millisecond),
//	    xmongo.WithObserver(observer),
//	)
//	if err != nil {
//	    return err
//	}
//	defer store.Close(context.Background())
//	_ = store.EnsureIndexes(ctx)
//
// # 排序
//
// 帖子按 created_at 倒序、_id 升序返回，相同时间戳的帖子在多次读取间顺序稳定，
// offset 分页因此不会重复或遗漏。
//
// # 错误
//
// 资料或统计不存在时返回 xstore.ErrNotFound；offset 或 limit 为负时返回
// xstore.ErrInvalidArgument；其余失败（网络、超时、已关闭）都包装为
// xstore.ErrUpstreamUnavailable，可直接交给 xstore.NewResilient 重试。
//
// # 静音过期
//
// 有期限的静音额外写入 expires_at 字段，PurgeExpiredMutes 据此删除，
// 无限期静音不带该字段，不会被清理。
//
// Close() 可安全重复调用，首次关闭执行断连，后续调用返回 ErrClosed。
// Stats() 在 Close() 后仍可调用。
package xmongo
