package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dockhand/statusagent/internal/config"
	"github.com/dockhand/statusagent/internal/logging"
	"github.com/dockhand/statusagent/internal/metrics"
)

// Daemon drives a Task on a fixed delay until stopped. Ticks never overlap:
// the delay is measured from the end of one tick to the start of the next.
type Daemon struct {
	task     Task
	interval time.Duration
	Now      func() time.Time // injectable clock for testing

	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup // tracks the in-flight tick
}

// New creates a daemon running task at the configured poll interval
func New(cfg *config.Config, task Task) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		task:     task,
		interval: cfg.Interval(),
		Now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
	}

	for _, w := range cfg.Validate() {
		logging.Get().Warn().Str("warning", w).Msg("config validation")
	}
	return d
}

// Start runs the poll loop. It blocks until Stop is called.
func (d *Daemon) Start() {
	logging.Get().Info().Str("task", d.task.Name()).Dur("interval", d.interval).Msg("starting agent")
	for {
		if !d.runTick() {
			return
		}
		timer := time.NewTimer(d.interval)
		select {
		case <-timer.C:
		case <-d.quit:
			timer.Stop()
			logging.Get().Info().Msg("stopping agent")
			return
		}
	}
}

// RunOnce runs a single tick and returns its error (CLI / tests)
func (d *Daemon) RunOnce() error {
	if !d.beginTick() {
		return context.Canceled
	}
	defer d.wg.Done()
	return d.tick(d.ctx)
}

// runTick runs one tick unless the daemon was stopped. Returns false when stopped.
func (d *Daemon) runTick() bool {
	if !d.beginTick() {
		return false
	}
	defer d.wg.Done()
	_ = d.tick(d.ctx)
	return true
}

// beginTick registers a tick with the waitgroup; no tick may begin after Stop.
func (d *Daemon) beginTick() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.wg.Add(1)
	return true
}

// tick runs the task once, recovering panics so a single bad tick cannot end the loop.
func (d *Daemon) tick(ctx context.Context) (err error) {
	start := d.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.IncTickPanic()
			err = fmt.Errorf("tick panicked: %v", r)
		}
		d.record(ctx, start, err)
	}()
	return d.task.Tick(ctx)
}

// record logs and counts the outcome of one tick
func (d *Daemon) record(ctx context.Context, start time.Time, err error) {
	now := d.Now()
	metrics.ObserveTickDuration(now.Sub(start).Seconds())
	metrics.SetLastRun(now)
	switch {
	case err == nil:
		metrics.IncTick()
	case ctx.Err() != nil:
		// shutdown raced the in-flight call
		logging.Get().Info().Err(err).Str("task", d.task.Name()).Msg("tick interrupted by shutdown")
	default:
		metrics.IncTickFailed()
		logging.Get().Error().Err(err).Str("task", d.task.Name()).Msg("tick failed")
	}
}

// Stop cancels the in-flight tick, prevents new ticks and waits for the
// current one to return or ctx to expire. Safe to call more than once.
func (d *Daemon) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	close(d.quit)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Get().Info().Msg("all active operations completed")
	case <-ctx.Done():
		logging.Get().Warn().Msg("shutdown timeout exceeded, in-flight tick abandoned")
	}
}
