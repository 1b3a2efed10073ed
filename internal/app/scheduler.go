package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// TaskFunc is one recurring piece of work driven by the scheduler.
type TaskFunc func(now time.Time)

// scheduledTask tracks one registered task and when it last ran.
type scheduledTask struct {
	name    string
	every   time.Duration
	fn      TaskFunc
	lastRun time.Time
}

// Scheduler is an explicit registry of periodic tasks. The host either
// drives Tick directly from its own update cycle or starts the built-in
// timer loop; nothing here assumes a UI redraw loop. Tick is idempotent for
// a given instant: a task fires at most once per elapsed interval.
type Scheduler struct {
	mu     sync.Mutex
	tasks  []*scheduledTask
	cancel context.CancelFunc
	logger *log.Logger
}

// NewScheduler constructs an empty task registry.
func NewScheduler(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{logger: logger}
}

// Register adds a recurring task. Names must be unique; the interval must
// be positive.
func (s *Scheduler) Register(name string, every time.Duration, fn TaskFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("scheduler: task name and func are required")
	}
	if every <= 0 {
		return fmt.Errorf("scheduler: interval for %q must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.name == name {
			return fmt.Errorf("scheduler: task %q already registered", name)
		}
	}
	s.tasks = append(s.tasks, &scheduledTask{name: name, every: every, fn: fn})
	return nil
}

// Tick runs every task whose interval has elapsed since its last run. A
// panicking task is logged and skipped; it does not stop the others.
func (s *Scheduler) Tick(now time.Time) {
	s.mu.Lock()
	due := make([]*scheduledTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.lastRun.IsZero() || now.Sub(task.lastRun) >= task.every {
			task.lastRun = now
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	for _, task := range due {
		s.runOne(task, now)
	}
}

func (s *Scheduler) runOne(task *scheduledTask, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "task", task.name, "panic", r)
		}
	}()
	task.fn(now)
}

// Start drives Tick on a timer until the context is canceled or Stop is
// called. Calling Start while running is a no-op.
func (s *Scheduler) Start(ctx context.Context, resolution time.Duration) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	if resolution <= 0 {
		resolution = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Tick(now)
			}
		}
	}()
}

// Stop halts the timer loop. Registered tasks stay registered.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
