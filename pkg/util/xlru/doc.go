// Package xlru 提供带 TTL 的 LRU 缓存实现。
//
// xlru 基于 github.com/hashicorp/golang-lru/v2/simplelru 封装，
// 在其哈希表 + 双向链表结构之上增加条目级 TTL、可注入时钟和命中统计。
//
// # 核心特性
//
//   - 泛型支持：支持任意 comparable 的键类型和任意值类型
//   - TTL 过期：条目超过 TTL 视为未命中，在访问时惰性移除
//   - LRU 淘汰：缓存满时淘汰最久未访问的条目（同等情况下按插入顺序）
//   - 统计信息：Hits/Misses/Evictions 自创建或 Clear 起累加
//   - 并发安全：每个缓存实例一把互斥锁
//
// # 过期降级
//
// GetStale 在条目过期后仍返回其值（stale=true）且不移除条目，
// 用于上游不可用时返回旧数据，而不是空结果。
//
// # 性能特性
//
//   - Get/Set/Delete 操作 O(1)
//   - Keys() 与 RemoveExpired() 为 O(n)
//
// # 注意事项
//
//   - TTL 从 Set 时刻开始计算，覆盖已有 key 会重置插入时间
//   - Get 不会刷新 TTL，只更新 LastAccessedAt 和 LRU 顺序
//   - Size 是条目数量，不是内存大小
//   - 回调在锁内执行，严禁在回调中调用 Cache 自身方法
package xlru
