// Package xcron 封装 robfig/cron/v3，为后台维护任务提供调度。
//
// 任务函数接收 context，Stop 时该 context 被取消。
// 任务的错误与 panic 被记录到日志并计入 Stats，不会中断调度器。
package xcron
