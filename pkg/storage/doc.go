// Package storage 提供 xstore 接口的网络存储实现。
//
// 子包列表：
//   - xmongo: MongoDB 上的帖子、avatar 资料与统计、屏蔽与静音
//   - xrelation: Redis 上的屏蔽与静音关系
//
// 两者可以单独使用，也可以经 xstore.Compose 组合为帖子在 MongoDB、
// 关系在 Redis 的后端。
//
// 设计原则：
//   - 失败统一归类为 xstore.ErrUpstreamUnavailable，交给上层重试与降级
//   - 内置可观测性（追踪、慢查询检测、健康检查统计）
package storage
