// Package xbreaker 提供基于 sony/gobreaker/v2 的熔断器。
//
// 连续失败达到阈值后熔断器进入 Open 状态，在 Timeout 内直接拒绝请求，
// 之后进入 HalfOpen 放行少量探测请求。熔断拒绝返回 BreakerError，
// 该错误对 xretry 不可重试，避免重试放大故障。
package xbreaker
