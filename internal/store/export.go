package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// sampleSchema is the Arrow schema for exported time series: one row per
// step, readings flattened to scalars and positions to x/y columns,
// matching the samples table.
var sampleSchema = arrow.NewSchema([]arrow.Field{
	{Name: "step", Type: arrow.PrimitiveTypes.Int64},
	{Name: "target_reading", Type: arrow.PrimitiveTypes.Float64},
	{Name: "target_x", Type: arrow.PrimitiveTypes.Float64},
	{Name: "target_y", Type: arrow.PrimitiveTypes.Float64},
	{Name: "mean", Type: arrow.PrimitiveTypes.Float64},
	{Name: "stddev", Type: arrow.PrimitiveTypes.Float64},
	{Name: "max_node_reading", Type: arrow.PrimitiveTypes.Float64},
	{Name: "min_node_reading", Type: arrow.PrimitiveTypes.Float64},
	{Name: "radius", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ExportJSONL writes a run's samples to w as one JSON object per line, the
// shape plotting collaborators consume directly.
func (s *RunStore) ExportJSONL(ctx context.Context, runID int64, w io.Writer) error {
	records, err := s.Samples(ctx, runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode sample step %d: %w", rec.Step, err)
		}
	}
	return nil
}

// ExportArrow writes a run's samples to w as an Arrow IPC stream: a single
// columnar record batch suitable for pandas/polars-side analysis.
func (s *RunStore) ExportArrow(ctx context.Context, runID int64, w io.Writer) error {
	records, err := s.Samples(ctx, runID)
	if err != nil {
		return err
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, sampleSchema)
	defer builder.Release()

	for _, rec := range records {
		builder.Field(0).(*array.Int64Builder).Append(int64(rec.Step))
		builder.Field(1).(*array.Float64Builder).Append(rec.TargetReading[0])
		builder.Field(2).(*array.Float64Builder).Append(rec.TargetPosition[0])
		builder.Field(3).(*array.Float64Builder).Append(rec.TargetPosition[1])
		builder.Field(4).(*array.Float64Builder).Append(rec.Mean[0])
		builder.Field(5).(*array.Float64Builder).Append(rec.Stddev[0])
		builder.Field(6).(*array.Float64Builder).Append(rec.MaxNodeReading[0])
		builder.Field(7).(*array.Float64Builder).Append(rec.MinNodeReading[0])
		builder.Field(8).(*array.Float64Builder).Append(rec.Radius)
	}

	batch := builder.NewRecord()
	defer batch.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(sampleSchema))
	if err := writer.Write(batch); err != nil {
		writer.Close()
		return fmt.Errorf("write arrow batch: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}
