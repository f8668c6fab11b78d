package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job 是一个按 cron 表达式周期执行的任务
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// entry 记录任务是否正在运行；cron 触发、首轮执行与 RunOnce 共用同一个标记
type entry struct {
	Job
	running atomic.Bool
}

type Scheduler struct {
	cron    *cron.Cron
	entries []*entry
	log     zerolog.Logger

	// StartupDelay 之后执行首轮任务；为负数时不做首轮执行
	StartupDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New 注册所有任务；同一个任务上一轮未结束时跳过本轮
func New(jobs []Job, log zerolog.Logger) (*Scheduler, error) {
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:         c,
		log:          log,
		StartupDelay: -1,
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, j := range jobs {
		e := &entry{Job: j}
		s.entries = append(s.entries, e)
		if j.Spec == "" {
			continue
		}
		if _, err := c.AddFunc(j.Spec, func() { _ = s.runJob(s.ctx, e) }); err != nil {
			cancel()
			return nil, fmt.Errorf("scheduler: add job %s (%q): %w", j.Name, j.Spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay < 0 {
		return
	}
	// 延迟执行首轮，避免与服务启动争抢数据库连接
	time.AfterFunc(s.StartupDelay, func() {
		_ = s.RunOnce(s.ctx)
	})
}

// Stop 停止调度并取消正在运行的任务，等待 cron 触发的任务退出
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunOnce 按注册顺序执行一轮全部任务，方便手动触发；正在运行的任务被跳过
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, e := range s.entries {
		if err := s.runJob(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) runJob(ctx context.Context, e *entry) error {
	if !e.running.CompareAndSwap(false, true) {
		s.log.Info().Str("job", e.Name).Msg("job still running, skip")
		return nil
	}
	defer e.running.Store(false)

	start := time.Now()
	s.log.Info().Str("job", e.Name).Msg("start job")
	if err := e.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", e.Name).Dur("took", time.Since(start)).Msg("job failed")
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	s.log.Info().Str("job", e.Name).Dur("took", time.Since(start)).Msg("job done")
	return nil
}

// cronLogger 把 cron 内部日志转到 zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
