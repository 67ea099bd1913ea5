// Package xstore 定义 feed 核心所依赖的后端存储契约与数据模型。
//
// Store 是唯一的注入点：内存实现 [Memory] 用于演示与测试，
// 网络实现位于 pkg/storage/xmongo（帖子、资料、统计、关系）与
// pkg/storage/xrelation（Redis 上的屏蔽与静音关系），可以用 [Compose] 组合。
//
// [Resilient] 为任意 Store 增加单次调用超时、重试、熔断与观测，
// 并把传输层失败统一为 [ErrUpstreamUnavailable]。
package xstore
