package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecute_RunsStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string) Step {
		return Step{Name: name, Run: func(_ context.Context, _ string) error {
			order = append(order, name)
			return nil
		}}
	}
	r := NewRunner("demo-job", []Step{step("one"), step("two"), step("three")})

	run := r.Execute(context.Background(), "push")

	want := []string{"one", "two", "three"}
	if len(order) != len(want) {
		t.Fatalf("executed %v, want %v", order, want)
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("step %d: got %q, want %q", i, order[i], name)
		}
	}
	if run.Status != StatusSuccess {
		t.Errorf("run status = %q, want %q", run.Status, StatusSuccess)
	}
	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if run.Job != "demo-job" {
		t.Errorf("run job = %q, want %q", run.Job, "demo-job")
	}
	if run.Event != "push" {
		t.Errorf("run event = %q, want %q", run.Event, "push")
	}
	for _, sr := range run.Steps {
		if sr.Status != StatusSuccess {
			t.Errorf("step %q status = %q, want %q", sr.Name, sr.Status, StatusSuccess)
		}
		if sr.StartedAt.IsZero() || sr.FinishedAt.IsZero() {
			t.Errorf("step %q has zero timestamps", sr.Name)
		}
	}
	if run.FinishedAt.Before(run.StartedAt) {
		t.Error("run finished before it started")
	}
}

func TestExecute_FailFast(t *testing.T) {
	var order []string
	ok := func(name string) Step {
		return Step{Name: name, Run: func(_ context.Context, _ string) error {
			order = append(order, name)
			return nil
		}}
	}
	r := NewRunner("demo-job", []Step{
		ok("one"),
		{Name: "two", Run: func(_ context.Context, _ string) error {
			order = append(order, "two")
			return errors.New("boom")
		}},
		ok("three"),
	})

	run := r.Execute(context.Background(), "schedule")

	if got, want := len(order), 2; got != want {
		t.Fatalf("executed %d steps %v, want %d", got, order, want)
	}
	if run.Status != StatusFailed {
		t.Errorf("run status = %q, want %q", run.Status, StatusFailed)
	}
	if !strings.Contains(run.Error, `step "two"`) || !strings.Contains(run.Error, "boom") {
		t.Errorf("run error = %q, want step name and cause", run.Error)
	}
	if len(run.Steps) != 3 {
		t.Fatalf("recorded %d steps, want 3", len(run.Steps))
	}
	if run.Steps[1].Status != StatusFailed {
		t.Errorf("step two status = %q, want %q", run.Steps[1].Status, StatusFailed)
	}
	if run.Steps[1].Error != "boom" {
		t.Errorf("step two error = %q, want %q", run.Steps[1].Error, "boom")
	}
	if run.Steps[2].Status != StatusSkipped {
		t.Errorf("step three status = %q, want %q", run.Steps[2].Status, StatusSkipped)
	}
	if !run.Steps[2].StartedAt.IsZero() {
		t.Error("skipped step has a start time")
	}
}

func TestExecute_StepsReceiveRunID(t *testing.T) {
	var got string
	r := NewRunner("demo-job", []Step{
		{Name: "capture", Run: func(_ context.Context, runID string) error {
			got = runID
			return nil
		}},
	})

	run := r.Execute(context.Background(), "manual")

	if got == "" || got != run.ID {
		t.Errorf("step saw run ID %q, run has %q", got, run.ID)
	}
}

func TestExecute_DistinctRunIDs(t *testing.T) {
	r := NewRunner("demo-job", []Step{
		{Name: "noop", Run: func(_ context.Context, _ string) error { return nil }},
	})

	first := r.Execute(context.Background(), "manual")
	second := r.Execute(context.Background(), "manual")

	if first.ID == second.ID {
		t.Errorf("both runs got ID %q", first.ID)
	}
}
