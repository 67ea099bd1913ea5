package xsafety

import (
	"context"
	"time"

	"github.com/omeyang/quanta/pkg/distributed/xcron"
	"github.com/omeyang/quanta/pkg/observability/xlog"
)

// DefaultCleanupSpec 默认清理周期。
const DefaultCleanupSpec = "@every 10m"

// Janitor 按 cron 周期清理过期静音。
type Janitor struct {
	scheduler *xcron.Scheduler
}

// NewJanitor 创建清理任务，spec 为空时使用 DefaultCleanupSpec。
// 每次清理受 timeout 限制，<= 0 表示不限制。
func NewJanitor(f *Filter, spec string, timeout time.Duration, logger xlog.Logger) (*Janitor, error) {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	s := xcron.New(xcron.WithLogger(logger))
	_, err := s.AddFunc(spec, func(ctx context.Context) error {
		_, err := f.CleanupExpiredMutes(ctx)
		return err
	}, xcron.WithName("xsafety.mute_cleanup"), xcron.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return &Janitor{scheduler: s}, nil
}

// Start 开始调度。
func (j *Janitor) Start() {
	j.scheduler.Start()
}

// Stop 停止调度并等待进行中的清理结束。
func (j *Janitor) Stop(ctx context.Context) error {
	return j.scheduler.Stop(ctx)
}

// Stats 返回清理任务的执行统计。
func (j *Janitor) Stats() xcron.Stats {
	return j.scheduler.Stats()
}
