package service

import (
	"context"
	"fmt"
	"time"

	"itemshare/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Runner triggers advance sweeps on a cron schedule. A sweep still running
// when the next one is due makes the next one skip.
type Runner struct {
	cron     *cron.Cron
	advancer AdvancerService
	timeout  time.Duration
	log      *logger.Logger
}

func NewRunner(advancer AdvancerService, schedule string, loc *time.Location, timeout time.Duration, log *logger.Logger) (*Runner, error) {
	if loc == nil {
		loc = time.UTC
	}
	log = log.Component("advancer")
	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	r := &Runner{cron: c, advancer: advancer, timeout: timeout, log: log}
	if _, err := c.AddFunc(schedule, r.sweep); err != nil {
		return nil, fmt.Errorf("invalid advancer schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Runner) Start() {
	r.log.Info("Advancer started", "entries", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.log.Info("Advancer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) sweep() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if _, err := r.advancer.Advance(ctx); err != nil {
		r.log.Error("Advance sweep failed", "error", err)
	}
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
