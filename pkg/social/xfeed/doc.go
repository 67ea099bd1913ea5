// Package xfeed 组装 feed 与 avatar 帖子的分页。
//
// 一次 GetNextPage 的流程：
//
//  1. 向 xpage.Tracker 申请票据，同一范围已在加载时失败
//  2. 从当前 offset 读取请求条数的未过滤条目
//  3. 读取 viewer 的排除作者集合并过滤
//  4. 若过滤后不满页且上一批读满，从推进后的 offset 读取缺少的条数再过滤，
//     最多 MaxBackfillRounds 轮
//  5. 以所有轮次消费的未过滤条数推进游标
//
// HasMore 以未过滤的条数判定，被大量过滤的 viewer 不会过早看到"没有更多"。
// 补齐轮数用尽时返回短页并设置 BackfillExhausted，而不是报错。
package xfeed
