package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/ipc"

	"github.com/nvandessel/sensornet/internal/simulation"
)

// exportFixture creates a store with one run of n samples and returns both.
func exportFixture(t *testing.T, n int) (*RunStore, int64) {
	t.Helper()
	s := newTestStore(t)
	id, err := s.CreateRun(context.Background(), RunMeta{Policy: "MaxDegree", Nodes: 3, Seed: 1})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.AppendSamples(context.Background(), id, sampleRecords(n)); err != nil {
		t.Fatalf("AppendSamples: %v", err)
	}
	return s, id
}

func TestExportJSONL(t *testing.T) {
	s, id := exportFixture(t, 4)

	var buf bytes.Buffer
	if err := s.ExportJSONL(context.Background(), id, &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, line := range lines {
		var rec simulation.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d: invalid JSON: %v", i, err)
		}
		if rec.Step != i {
			t.Errorf("line %d: step = %d, want %d", i, rec.Step, i)
		}
		if rec.Radius != 1.7 {
			t.Errorf("line %d: radius = %v, want 1.7", i, rec.Radius)
		}
	}
}

func TestExportJSONL_UnknownRun(t *testing.T) {
	s := newTestStore(t)
	var buf bytes.Buffer
	if err := s.ExportJSONL(context.Background(), 12, &buf); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("error = %v, want ErrUnknownRun", err)
	}
}

func TestExportArrow_RoundTrip(t *testing.T) {
	s, id := exportFixture(t, 6)

	var buf bytes.Buffer
	if err := s.ExportArrow(context.Background(), id, &buf); err != nil {
		t.Fatalf("ExportArrow: %v", err)
	}

	reader, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("ipc.NewReader: %v", err)
	}
	defer reader.Release()

	if got, want := len(reader.Schema().Fields()), len(sampleSchema.Fields()); got != want {
		t.Fatalf("schema has %d fields, want %d", got, want)
	}

	if !reader.Next() {
		t.Fatalf("no record batch in stream: %v", reader.Err())
	}
	batch := reader.Record()
	if batch.NumRows() != 6 {
		t.Errorf("batch rows = %d, want 6", batch.NumRows())
	}
	if batch.NumCols() != int64(len(sampleSchema.Fields())) {
		t.Errorf("batch cols = %d, want %d", batch.NumCols(), len(sampleSchema.Fields()))
	}
	if reader.Next() {
		t.Error("expected a single record batch")
	}
}

func TestExportArrow_EmptyRun(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateRun(context.Background(), RunMeta{Policy: "Metropolis", Nodes: 2, Seed: 9})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	var buf bytes.Buffer
	if err := s.ExportArrow(context.Background(), id, &buf); err != nil {
		t.Fatalf("ExportArrow: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected schema-only stream, got empty output")
	}
}
