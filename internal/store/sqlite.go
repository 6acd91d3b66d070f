package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/sensornet/internal/simulation"
	"github.com/nvandessel/sensornet/internal/vecmath"
)

// ErrUnknownRun is returned by queries for run ids that were never created.
var ErrUnknownRun = errors.New("unknown run")

// RunStore persists simulation runs and per-step samples in SQLite.
type RunStore struct {
	mu sync.Mutex
	db *sql.DB
}

// RunMeta describes one recorded simulation run.
type RunMeta struct {
	ID              int64
	CreatedAt       time.Time
	Policy          string
	Nodes           int
	RegionSize      float64
	Radius          float64
	AlternateRadius float64
	MaxNeighbors    int
	Seed            int64
	Iterations      int
}

// NewRunStore opens (or creates) the run database at path and initializes
// the schema.
func NewRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &RunStore{db: db}, nil
}

// CreateRun records a run's parameters and returns its id.
func (s *RunStore) CreateRun(ctx context.Context, meta RunMeta) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, policy, nodes, region_size, radius,
			alternate_radius, max_neighbors, seed, iterations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339), meta.Policy, meta.Nodes, meta.RegionSize,
		meta.Radius, meta.AlternateRadius, meta.MaxNeighbors, meta.Seed, meta.Iterations)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// AppendSamples writes a batch of time-series records for a run in one
// transaction.
func (s *RunStore) AppendSamples(ctx context.Context, runID int64, records []simulation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, step, target_reading, target_x, target_y,
			mean, stddev, max_node_reading, min_node_reading, radius)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, runID, rec.Step,
			rec.TargetReading[0], rec.TargetPosition[0], rec.TargetPosition[1],
			rec.Mean[0], rec.Stddev[0],
			rec.MaxNodeReading[0], rec.MinNodeReading[0], rec.Radius); err != nil {
			return fmt.Errorf("insert sample step %d: %w", rec.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	return nil
}

// Run returns the metadata for one run.
func (s *RunStore) Run(ctx context.Context, runID int64) (*RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, policy, nodes, region_size, radius,
			alternate_radius, max_neighbors, seed, iterations
		FROM runs WHERE id = ?`, runID)

	var meta RunMeta
	var createdAt string
	err := row.Scan(&meta.ID, &createdAt, &meta.Policy, &meta.Nodes,
		&meta.RegionSize, &meta.Radius, &meta.AlternateRadius,
		&meta.MaxNeighbors, &meta.Seed, &meta.Iterations)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRun, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
		meta.CreatedAt = t
	}
	return &meta, nil
}

// Runs lists all recorded runs, newest first.
func (s *RunStore) Runs(ctx context.Context) ([]RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, policy, nodes, region_size, radius,
			alternate_radius, max_neighbors, seed, iterations
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		var meta RunMeta
		var createdAt string
		if err := rows.Scan(&meta.ID, &createdAt, &meta.Policy, &meta.Nodes,
			&meta.RegionSize, &meta.Radius, &meta.AlternateRadius,
			&meta.MaxNeighbors, &meta.Seed, &meta.Iterations); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
			meta.CreatedAt = t
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Samples loads a run's full time series in step order.
func (s *RunStore) Samples(ctx context.Context, runID int64) ([]simulation.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samplesUnlocked(ctx, runID)
}

func (s *RunStore) samplesUnlocked(ctx context.Context, runID int64) ([]simulation.Record, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRun, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT step, target_reading, target_x, target_y, mean, stddev,
			max_node_reading, min_node_reading, radius
		FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []simulation.Record
	for rows.Next() {
		var rec simulation.Record
		var reading, tx, ty, mean, stddev, maxR, minR float64
		if err := rows.Scan(&rec.Step, &reading, &tx, &ty, &mean, &stddev,
			&maxR, &minR, &rec.Radius); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		rec.TargetReading = vecmath.Vec{reading}
		rec.TargetPosition = vecmath.Vec{tx, ty}
		rec.Mean = vecmath.Vec{mean}
		rec.Stddev = vecmath.Vec{stddev}
		rec.MaxNodeReading = vecmath.Vec{maxR}
		rec.MinNodeReading = vecmath.Vec{minR}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
