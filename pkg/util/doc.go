// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xlru: LRU 缓存，泛型支持、条目级 TTL、过期降级读取
package util
