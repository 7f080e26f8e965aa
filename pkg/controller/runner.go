package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sprinkler-go/sprinkler-go/pkg/log"
)

// Runner defaults.
const (
	DefaultTickInterval = time.Second
	DefaultStatusSpec   = "* * * * *"
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Interval is the tick period.
	Interval time.Duration

	// StatusSpec is the cron expression on which a status snapshot is
	// published even when nothing changed.
	StatusSpec string

	// Logger is the operational logger.
	Logger *slog.Logger
}

// Runner owns a Controller, ticks it and serializes access to it.
type Runner struct {
	mu   sync.Mutex
	ctrl *Controller

	interval  time.Duration
	cron      *cron.Cron
	statusDue atomic.Bool
	logger    *slog.Logger

	subsMu  sync.Mutex
	subs    map[int]chan Status
	nextSub int
}

// NewRunner creates a runner for ctrl.
func NewRunner(ctrl *Controller, cfg RunnerConfig) (*Runner, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTickInterval
	}
	if cfg.StatusSpec == "" {
		cfg.StatusSpec = DefaultStatusSpec
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Runner{
		ctrl:     ctrl,
		interval: cfg.Interval,
		cron:     cron.New(),
		logger:   cfg.Logger,
		subs:     make(map[int]chan Status),
	}
	if _, err := r.cron.AddFunc(cfg.StatusSpec, func() { r.statusDue.Store(true) }); err != nil {
		return nil, fmt.Errorf("invalid status schedule %q: %w", cfg.StatusSpec, err)
	}
	return r, nil
}

// Exec runs fn with exclusive access to the controller.
func (r *Runner) Exec(fn func(c *Controller) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.ctrl)
}

// Defer queues task for a later tick and returns immediately.
func (r *Runner) Defer(task Task) {
	r.ctrl.Tasks().Push(task)
}

// Status returns a snapshot of the controller.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctrl.Status()
}

// Step runs one tick and publishes a status snapshot when one is due.
func (r *Runner) Step() {
	r.mu.Lock()
	r.ctrl.Tick()
	due := r.ctrl.TakeDirty()
	if r.statusDue.Swap(false) {
		due = true
	}
	var st Status
	if due {
		st = r.ctrl.Status()
	}
	r.mu.Unlock()

	if due {
		r.publish(st)
	}
}

// Run ticks the controller until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	_ = r.Exec(func(c *Controller) error {
		c.logEvent(log.Event{Category: log.CategorySystem, Op: log.OpStart})
		return nil
	})
	r.logger.Info("control loop started", "interval", r.interval)

	r.cron.Start()
	defer r.cron.Stop()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("control loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Step()
		}
	}
}

// Subscribe returns a channel receiving status snapshots and a function
// that ends the subscription. A slow reader only sees the latest snapshot.
func (r *Runner) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	r.subsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subsMu.Lock()
			delete(r.subs, id)
			r.subsMu.Unlock()
		})
	}
}

func (r *Runner) publish(st Status) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- st:
		default:
			// Drop the stale snapshot.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
