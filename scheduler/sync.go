package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Sync reloads the workflow definition and applies the difference
// between its declared schedules and the registered triggers. Edits to
// the workflow file take effect without a restart.
func (s *Scheduler) Sync() error {
	def, err := s.load()
	if err != nil {
		return err
	}

	desired := make(map[string]struct{})
	for _, sched := range def.On.Schedule {
		desired[sched.Cron] = struct{}{}
	}

	actual := s.getRegisteredExprs()
	actualSet := make(map[string]struct{})
	for _, expr := range actual {
		actualSet[expr] = struct{}{}
	}

	var added, removed int
	for expr := range desired {
		if _, exists := actualSet[expr]; !exists {
			if err := s.AddSchedule(expr); err != nil {
				slog.Error("failed to register trigger", "error", err)
				continue
			}
			added++
		}
	}

	for _, expr := range actual {
		if _, exists := desired[expr]; !exists {
			s.RemoveSchedule(expr)
			removed++
		}
	}

	s.mu.Lock()
	s.lastSync = time.Now()
	s.mu.Unlock()

	if added > 0 || removed > 0 {
		slog.Info("schedule sync applied",
			"added", added,
			"removed", removed,
			"desired_total", len(desired),
		)
	}

	return nil
}

// RunSyncLoop keeps the registered triggers aligned with the workflow
// file until the context is cancelled.
func (s *Scheduler) RunSyncLoop(ctx context.Context, interval time.Duration) {
	// Run immediately on startup
	s.runSync()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("schedule sync loop stopped")
			return
		case <-ticker.C:
			s.runSync()
		}
	}
}

func (s *Scheduler) runSync() {
	start := time.Now()

	if err := s.Sync(); err != nil {
		slog.Error("schedule sync failed", "error", err)
		return
	}

	slog.Info("schedule sync completed",
		"duration", time.Since(start).String(),
		"schedules", s.GetScheduleCount(),
	)
}
