// Package xsafety 实现屏蔽与静音过滤。
//
// 作者对 viewer 不可见的条件：双方任一方向存在屏蔽，
// 或 viewer 对作者的静音仍然生效（mutedAt + duration >= now，duration 为 0 表示无限期）。
//
// 关系以 xstore.RelationStore 为唯一数据源，Filter 仅短暂缓存每个 viewer 的快照。
// Janitor 通过 xcron 周期清理后端中已过期的静音记录。
package xsafety
