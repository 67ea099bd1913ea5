// Package distributed 提供后台调度相关的子包。
//
// 子包列表：
//   - xcron: 定时任务，基于 robfig/cron，带超时、panic 恢复与运行统计
//
// 设计原则：
//   - 任务以 context 控制生命周期，Stop 等待运行中的任务结束
//   - 单个任务失败不影响调度器
package distributed
