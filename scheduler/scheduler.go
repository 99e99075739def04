// Package scheduler runs the workflow's cron triggers in serve mode and
// keeps them in sync with the workflow file on disk.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
	"github.com/github-devtools-2022/ghas-to-csv/workflow"
)

// JobRunner executes the report job once.
type JobRunner interface {
	Execute(ctx context.Context, event string) *pipeline.Run
}

// LoadFunc re-reads the workflow definition during a sync.
type LoadFunc func() (*workflow.Definition, error)

// runTimeout bounds a single scheduled run. Walking every repository on
// a large server can take a while.
const runTimeout = 30 * time.Minute

// maxHistory caps how many finished runs the status API can see.
const maxHistory = 50

// Scheduler manages the workflow's cron triggers.
type Scheduler struct {
	runner  JobRunner
	load    LoadFunc
	cron    *cron.Cron
	history *History

	mu         sync.RWMutex
	registered map[string]cron.EntryID
	lastSync   time.Time
	running    bool
}

// New creates a new Scheduler.
func New(runner JobRunner, load LoadFunc, loc *time.Location) *Scheduler {
	// 5-field standard cron (no WithSeconds)
	c := cron.New(cron.WithLocation(loc))

	s := &Scheduler{
		runner:     runner,
		load:       load,
		cron:       c,
		history:    NewHistory(maxHistory),
		registered: make(map[string]cron.EntryID),
	}

	c.Start()
	slog.Info("cron scheduler started", "timezone", loc.String())

	return s
}

// AddSchedule registers a cron trigger.
func (s *Scheduler) AddSchedule(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Skip if already registered
	if _, exists := s.registered[expr]; exists {
		return nil
	}

	entryID, err := s.cron.AddFunc(expr, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron trigger %q: %w", expr, err)
	}

	s.registered[expr] = entryID
	slog.Info("registered cron trigger", "cron_expr", expr)

	return nil
}

// RemoveSchedule drops a cron trigger.
func (s *Scheduler) RemoveSchedule(expr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.registered[expr]; exists {
		s.cron.Remove(entryID)
		delete(s.registered, expr)
		slog.Info("removed cron trigger", "cron_expr", expr)
	}
}

// GetScheduleCount returns the number of registered triggers (StatusProvider).
func (s *Scheduler) GetScheduleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registered)
}

// GetLastSyncTime returns the last workflow sync timestamp (StatusProvider).
func (s *Scheduler) GetLastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// ScheduleDetail holds detailed information about a registered trigger.
type ScheduleDetail struct {
	CronExpr string    `json:"cron_expr"`
	NextRun  time.Time `json:"next_run"`
}

// GetScheduleDetails returns details of all registered triggers (StatusProvider).
func (s *Scheduler) GetScheduleDetails() []ScheduleDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := make([]ScheduleDetail, 0, len(s.registered))
	for expr, entryID := range s.registered {
		entry := s.cron.Entry(entryID)
		details = append(details, ScheduleDetail{
			CronExpr: expr,
			NextRun:  entry.Next,
		})
	}
	return details
}

// GetRecentRuns returns the retained run history, newest first (StatusProvider).
func (s *Scheduler) GetRecentRuns() []*pipeline.Run {
	return s.history.Runs()
}

// getRegisteredExprs returns all registered cron expressions.
func (s *Scheduler) getRegisteredExprs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exprs := make([]string, 0, len(s.registered))
	for expr := range s.registered {
		exprs = append(exprs, expr)
	}
	return exprs
}

// RunNow executes the job immediately, outside any schedule.
func (s *Scheduler) RunNow(ctx context.Context, event string) *pipeline.Run {
	return s.execute(ctx, event)
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("cron scheduler stopped")
}

// runScheduled is the handler every cron trigger fires.
func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	s.execute(ctx, workflow.EventSchedule)
}

func (s *Scheduler) execute(ctx context.Context, event string) *pipeline.Run {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		// A slow walk can outlast the gap to the next firing.
		slog.Warn("previous run still in progress, skipping", "event", event)
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	run := s.runner.Execute(ctx, event)
	s.history.Add(run)
	return run
}
