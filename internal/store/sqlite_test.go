package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nvandessel/sensornet/internal/simulation"
	"github.com/nvandessel/sensornet/internal/vecmath"
)

// newTestStore creates a RunStore backed by a throwaway database file.
func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(filepath.Join(t.TempDir(), "sensornet.db"))
	if err != nil {
		t.Fatalf("NewRunStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleRecords builds n sequential records with recognizable values.
func sampleRecords(n int) []simulation.Record {
	out := make([]simulation.Record, n)
	for i := range out {
		out[i] = simulation.Record{
			Step:           i,
			TargetReading:  vecmath.Vec{50},
			TargetPosition: vecmath.Vec{float64(i), float64(-i)},
			Mean:           vecmath.Vec{49.5 + float64(i)*0.01},
			Stddev:         vecmath.Vec{0.3},
			MaxNodeReading: vecmath.Vec{49.9},
			MinNodeReading: vecmath.Vec{48.7},
			Radius:         1.7,
		}
	}
	return out
}

func TestCreateRun_AndReadBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := RunMeta{
		Policy:       "Metropolis",
		Nodes:        10,
		RegionSize:   5,
		Radius:       1.7,
		MaxNeighbors: 4,
		Seed:         50,
		Iterations:   100,
	}
	id, err := s.CreateRun(ctx, meta)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateRun returned zero id")
	}

	got, err := s.Run(ctx, id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Policy != "Metropolis" || got.Nodes != 10 || got.Seed != 50 {
		t.Errorf("run meta = %+v, want fields preserved", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not recorded")
	}
}

func TestRun_Unknown(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Run(context.Background(), 999); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("error = %v, want ErrUnknownRun", err)
	}
}

func TestAppendSamples_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, RunMeta{Policy: "MaxDegree", Nodes: 3, Seed: 1})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	want := sampleRecords(5)
	if err := s.AppendSamples(ctx, id, want); err != nil {
		t.Fatalf("AppendSamples: %v", err)
	}

	got, err := s.Samples(ctx, id)
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Step != want[i].Step {
			t.Errorf("sample %d: step = %d, want %d", i, got[i].Step, want[i].Step)
		}
		if got[i].Mean[0] != want[i].Mean[0] {
			t.Errorf("sample %d: mean = %v, want %v", i, got[i].Mean[0], want[i].Mean[0])
		}
		if got[i].TargetPosition[1] != want[i].TargetPosition[1] {
			t.Errorf("sample %d: target y = %v, want %v", i, got[i].TargetPosition[1], want[i].TargetPosition[1])
		}
	}
}

func TestSamples_UnknownRun(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Samples(context.Background(), 7); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("error = %v, want ErrUnknownRun", err)
	}
}

func TestRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, RunMeta{Policy: "MaxDegree", Nodes: 3, Seed: 1})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	second, err := s.CreateRun(ctx, RunMeta{Policy: "WeightDesign1", Nodes: 5, Seed: 2})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("order = [%d %d], want [%d %d]", runs[0].ID, runs[1].ID, second, first)
	}
}

func TestAppendSamples_DuplicateStepFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateRun(ctx, RunMeta{Policy: "MaxDegree", Nodes: 3, Seed: 1})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.AppendSamples(ctx, id, sampleRecords(2)); err != nil {
		t.Fatalf("AppendSamples: %v", err)
	}
	if err := s.AppendSamples(ctx, id, sampleRecords(2)); err == nil {
		t.Error("expected primary-key violation on duplicate steps")
	}
}
