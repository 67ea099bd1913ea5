// Package xavatar 缓存 avatar 的资料、帖子首页与统计。
//
// 三个视图各自是一个带 TTL 的 LRU 缓存（默认容量 100/500/200，TTL 15 分钟）。
// InvalidateAvatar 总是同时失效三个视图。
//
// LoadXxx 为缓存优先的回源读取：同一 id 的并发回源通过 singleflight 合并，
// 回源失败时若有过期缓存则降级返回旧值。Warm 以有限并发预热资料缓存，
// 单个失败不影响其他 id。
//
// 回源在脱离调用方取消的 context 中执行，某个调用方取消不会让其他等待者失败。
// InvalidateAvatar 与 PutXxx 之前已开始的回源完成后不写回缓存。
//
// 只有帖子首页被缓存。avatar 有新帖子时应失效该 avatar，
// 否则后续页可能与缓存的首页重复。
package xavatar
