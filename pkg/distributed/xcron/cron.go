package xcron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/quanta/pkg/observability/xlog"
)

// ErrNilJob 表示任务为 nil。
var ErrNilJob = errors.New("xcron: job cannot be nil")

// JobID 任务唯一标识，复用 cron.EntryID。
type JobID = cron.EntryID

// Option 调度器选项。
type Option func(*options)

type options struct {
	location *time.Location
	seconds  bool
	logger   xlog.Logger
}

// WithLocation 设置时区，默认 time.Local。
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithSeconds 启用 6 段（秒级）cron 表达式。
func WithSeconds() Option {
	return func(o *options) { o.seconds = true }
}

// WithLogger 设置日志，任务失败与 panic 会记录到此。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// JobOption 任务选项。
type JobOption func(*jobOptions)

type jobOptions struct {
	name      string
	timeout   time.Duration
	immediate bool
}

// WithName 设置任务名，用于日志与统计。
func WithName(name string) JobOption {
	return func(o *jobOptions) { o.name = name }
}

// WithTimeout 设置单次执行超时。
func WithTimeout(d time.Duration) JobOption {
	return func(o *jobOptions) { o.timeout = d }
}

// WithImmediate 注册后立即执行一次（Start 之前也会执行）。
func WithImmediate() JobOption {
	return func(o *jobOptions) { o.immediate = true }
}

// Stats 执行统计快照。
type Stats struct {
	Runs     uint64
	Failures uint64
	Panics   uint64
}

// Scheduler 基于 robfig/cron/v3 的调度器。
//
// 同一任务上一次执行未结束时，本次触发会被跳过。
type Scheduler struct {
	cron   *cron.Cron
	logger xlog.Logger

	baseCtx    context.Context
	cancel     context.CancelFunc
	immediates sync.WaitGroup

	runs     atomic.Uint64
	failures atomic.Uint64
	panics   atomic.Uint64
}

// New 创建调度器，默认 5 段表达式、本地时区。
func New(opts ...Option) *Scheduler {
	o := &options{location: time.Local, logger: xlog.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	fields := cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
	if o.seconds {
		fields |= cron.Second
	}
	c := cron.New(
		cron.WithLocation(o.location),
		cron.WithParser(cron.NewParser(fields)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    c,
		logger:  o.logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// AddFunc 添加函数任务，spec 如 "@every 10m" 或 "0 * * * *"。
func (s *Scheduler) AddFunc(spec string, fn func(ctx context.Context) error, opts ...JobOption) (JobID, error) {
	if fn == nil {
		return 0, ErrNilJob
	}
	jo := &jobOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(jo)
		}
	}

	run := func() { s.run(jo, fn) }
	id, err := s.cron.AddFunc(spec, run)
	if err != nil {
		return 0, fmt.Errorf("xcron: failed to add job: %w", err)
	}

	if jo.immediate {
		s.immediates.Add(1)
		go func() {
			defer s.immediates.Done()
			run()
		}()
	}
	return id, nil
}

func (s *Scheduler) run(jo *jobOptions, fn func(ctx context.Context) error) {
	ctx := s.baseCtx
	if jo.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, jo.timeout)
		defer cancel()
	}

	s.runs.Add(1)
	defer func() {
		if r := recover(); r != nil {
			s.panics.Add(1)
			s.logger.Error(ctx, "cron job panicked",
				xlog.Component(jo.name), xlog.Err(fmt.Errorf("panic: %v", r)))
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.failures.Add(1)
		s.logger.Warn(ctx, "cron job failed",
			xlog.Component(jo.name), xlog.Duration(time.Since(start)), xlog.Err(err))
		return
	}
	s.logger.Debug(ctx, "cron job done",
		xlog.Component(jo.name), xlog.Duration(time.Since(start)))
}

// Remove 移除任务，正在执行的任务不受影响。
func (s *Scheduler) Remove(id JobID) {
	s.cron.Remove(id)
}

// Start 启动调度器（非阻塞），重复调用无效果。
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并取消任务 context，阻塞直到运行中的任务结束或 ctx 到期。
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	s.immediates.Wait()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries 返回已注册的任务。
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// Stats 返回执行统计快照。
func (s *Scheduler) Stats() Stats {
	return Stats{
		Runs:     s.runs.Load(),
		Failures: s.failures.Load(),
		Panics:   s.panics.Load(),
	}
}
