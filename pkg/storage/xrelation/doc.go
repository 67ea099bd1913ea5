// Package xrelation 提供基于 Redis 的屏蔽与静音关系存储，实现 xstore.RelationStore。
//
// 通常与 xmongo 的帖子源经 xstore.Compose 组合：
//
//	relations, err := xrelation.New(redis.NewClient(&redis.Options{Addr: addr}))
//	if err != nil {
//	    return err
//	}
//	defer relations.Close()
//	store := xstore.Compose(posts, relations)
//
// # 数据布局
//
//   - {prefix}blk:out:{blocker}  hash，被屏蔽者 -> 创建时间（毫秒）
//   - {prefix}blk:in:{blocked}   hash，屏蔽者 -> 创建时间（毫秒）
//   - {prefix}mute:{muter}       hash，被静音者 -> 记录 JSON
//   - {prefix}mute:expiry        zset，有期限静音的过期时间（毫秒）
//
// 屏蔽在两个方向各写一份，读取无需扫描。写入多个 key 时使用 MULTI/EXEC。
//
// # 过期清理
//
// PurgeExpiredMutes 先按 score 取出到期成员，再逐条用 Lua 脚本校验并删除，
// 扫描后被续期的静音不会误删。时间精度为毫秒。
//
// 无法解析的记录返回 ErrCorruptRecord，不计为上游不可用，重试没有意义。
package xrelation
