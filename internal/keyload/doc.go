// Package keyload 合并同一 key 的并发回源，并保证失效之后旧的回源结果不会写回缓存。
//
// # Context 处理
//
// 回源在脱离调用方取消链的 context 中执行（保留 Value），并带独立超时：
//   - 首个调用者取消不影响其他等待者
//   - 每个调用者按自己的 ctx 独立放弃等待
//
// # 版本
//
// 每个版本 key 维护一个单调递增的版本号。回源开始时记录版本，
// 结束时版本未变才调用 store 写回缓存。Invalidate 推进版本，
// 之后发起的调用不会加入失效前已在进行的回源。
//
// 调用方必须先 Invalidate 再删除缓存条目，否则回源可能在两者之间写回旧值。
package keyload
