// Package scheduler drives periodic runs from a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"jobwatch/internal/logging"
)

type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron. At most one invocation of the task runs at a
// time; ticks that arrive while it is still running are skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	name string
	task Task
	log  *logging.Logger
}

func New(spec string, loc *time.Location, name string, task Task, log *logging.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec: spec,
		name: name,
		task: task,
		log:  log,
	}
}

// Start registers the task and starts the cron loop. With runOnStart the
// task also fires immediately, sharing the overlap guard with the ticks.
func (s *Scheduler) Start(ctx context.Context, runOnStart bool) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info("[scheduler] cron started", "task", s.name, "spec", s.spec, "next", s.cron.Entry(id).Next)

	if runOnStart {
		// the wrapped job carries SkipIfStillRunning
		go s.cron.Entry(id).WrappedJob.Run()
	}
	return nil
}

// Stop stops scheduling and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("[scheduler] cron stopped", "task", s.name)
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context, runOnStart bool) error {
	if err := s.Start(ctx, runOnStart); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.task(ctx); err != nil {
		s.log.Error(fmt.Sprintf("[%s] error", s.name), "err", err, "took", time.Since(start))
		return
	}
	s.log.Debug(fmt.Sprintf("[%s] done", s.name), "took", time.Since(start))
}

// cronLogger adapts the zap wrapper to cron.Logger.
type cronLogger struct{ l *logging.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("[cron] "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("[cron] "+msg, append(keysAndValues, "err", err)...)
}
