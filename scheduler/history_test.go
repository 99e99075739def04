package scheduler

import (
	"fmt"
	"testing"

	"github.com/github-devtools-2022/ghas-to-csv/pipeline"
)

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory(10)

	h.Add(&pipeline.Run{ID: "first"})
	h.Add(&pipeline.Run{ID: "second"})
	h.Add(&pipeline.Run{ID: "third"})

	runs := h.Runs()
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	want := []string{"third", "second", "first"}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d].ID = %q, want %q", i, runs[i].ID, id)
		}
	}
	if h.Last().ID != "third" {
		t.Errorf("Last().ID = %q, want %q", h.Last().ID, "third")
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)

	for i := 1; i <= 5; i++ {
		h.Add(&pipeline.Run{ID: fmt.Sprintf("run-%d", i)})
	}

	runs := h.Runs()
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].ID != "run-5" || runs[2].ID != "run-3" {
		t.Errorf("retained %q..%q, want run-5..run-3", runs[0].ID, runs[2].ID)
	}
}

func TestHistory_IgnoresNil(t *testing.T) {
	h := NewHistory(3)

	h.Add(nil)

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
	if h.Last() != nil {
		t.Errorf("Last() = %+v, want nil", h.Last())
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(3)

	if got := h.Runs(); len(got) != 0 {
		t.Errorf("Runs() = %v, want empty", got)
	}
	if h.Last() != nil {
		t.Errorf("Last() = %+v, want nil", h.Last())
	}
}
