// Package pipeline executes the report job as an ordered sequence of
// named steps with the same contract the CI platform gave the original
// workflow: strictly sequential, aborting on the first failing step.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Status of a run or step.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusSkipped marks steps after a failure; they never start.
	StatusSkipped Status = "skipped"
)

// Step is a named unit of work. The run ID is passed so steps can stamp
// what they produce.
type Step struct {
	Name string
	Run  func(ctx context.Context, runID string) error
}

// StepResult records one step of a run.
type StepResult struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Error      string    `json:"error,omitempty"`
}

// Run is one execution of a job.
type Run struct {
	ID         string       `json:"id"`
	Job        string       `json:"job"`
	Event      string       `json:"event"`
	Status     Status       `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
	Error      string       `json:"error,omitempty"`
}

// Runner executes a job's steps in declared order.
type Runner struct {
	job   string
	steps []Step
}

// NewRunner returns a Runner for the named job.
func NewRunner(job string, steps []Step) *Runner {
	return &Runner{job: job, steps: steps}
}

// Execute runs every step in order. The first failure marks the run
// failed and the remaining steps are recorded as skipped, never started.
func (r *Runner) Execute(ctx context.Context, event string) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Job:       r.job,
		Event:     event,
		Status:    StatusSuccess,
		StartedAt: time.Now().UTC(),
	}
	slog.Info("run started", "run", run.ID, "job", r.job, "event", event)

	for _, step := range r.steps {
		if run.Status == StatusFailed {
			run.Steps = append(run.Steps, StepResult{Name: step.Name, Status: StatusSkipped})
			continue
		}

		result := StepResult{Name: step.Name, StartedAt: time.Now().UTC()}
		slog.Info("step started", "run", run.ID, "step", step.Name)
		err := step.Run(ctx, run.ID)
		result.FinishedAt = time.Now().UTC()

		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			run.Status = StatusFailed
			run.Error = fmt.Sprintf("step %q: %s", step.Name, err)
			slog.Error("step failed", "run", run.ID, "step", step.Name, "error", err)
		} else {
			result.Status = StatusSuccess
			slog.Info("step finished", "run", run.ID, "step", step.Name,
				"duration", result.FinishedAt.Sub(result.StartedAt).String())
		}
		run.Steps = append(run.Steps, result)
	}

	run.FinishedAt = time.Now().UTC()
	if run.Status == StatusFailed {
		slog.Error("run failed", "run", run.ID, "job", r.job, "error", run.Error)
	} else {
		slog.Info("run finished", "run", run.ID, "job", r.job,
			"duration", run.FinishedAt.Sub(run.StartedAt).String())
	}
	return run
}
