package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/segmentio/encoding/json"
	"github.com/sqlc-dev/pqtype"

	"github.com/Agent59/Godot-Gravity-Simulator/internal/barneshut"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/circuitbreaker"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/metrics"
	"github.com/Agent59/Godot-Gravity-Simulator/internal/simulation"
)

// ErrNotFound is returned when a simulation has no snapshots.
var ErrNotFound = errors.New("store: snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS simulation_snapshots (
	id         uuid             NOT NULL,
	step       bigint           NOT NULL,
	sim_time   double precision NOT NULL,
	bodies     jsonb,
	stats      jsonb,
	created_at timestamptz      NOT NULL DEFAULT now(),
	PRIMARY KEY (id, step)
)`

// Store persists simulation snapshots in Postgres.
type Store struct {
	db *sql.DB
	// writes stop for a while once the database keeps failing
	writes *circuitbreaker.CircuitBreaker
}

// SnapshotInfo describes a stored snapshot without its bodies.
type SnapshotInfo struct {
	Step      int64     `json:"step"`
	Time      float64   `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Open connects to connStr and verifies the connection.
func Open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, writes: newWriteBreaker()}, nil
}

func newWriteBreaker() *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		Name:             "snapshot_writes",
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	})
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, schema)
	observe("ensure_schema", start, err)
	return err
}

// SaveSnapshot stores frame. Saving the same step twice overwrites it.
func (s *Store) SaveSnapshot(ctx context.Context, frame simulation.Frame) error {
	row, err := encodeFrame(frame)
	if err != nil {
		return err
	}

	err = s.writes.Call(func() error {
		start := time.Now()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO simulation_snapshots (id, step, sim_time, bodies, stats)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id, step) DO UPDATE
			SET sim_time = EXCLUDED.sim_time, bodies = EXCLUDED.bodies, stats = EXCLUDED.stats, created_at = now()`,
			row.id, row.step, row.time, row.bodies, row.stats)
		observe("save_snapshot", start, err)
		return err
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s@%d: %w", frame.ID, frame.Step, err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot of simulation id.
func (s *Store) LatestSnapshot(ctx context.Context, id uuid.UUID) (simulation.Frame, error) {
	start := time.Now()
	var row snapshotRow
	err := s.db.QueryRowContext(ctx, `
		SELECT id, step, sim_time, bodies, stats
		FROM simulation_snapshots
		WHERE id = $1
		ORDER BY step DESC
		LIMIT 1`, id).Scan(&row.id, &row.step, &row.time, &row.bodies, &row.stats)
	if errors.Is(err, sql.ErrNoRows) {
		observe("latest_snapshot", start, nil)
		return simulation.Frame{}, ErrNotFound
	}
	observe("latest_snapshot", start, err)
	if err != nil {
		return simulation.Frame{}, err
	}
	return row.decode()
}

// ListSnapshots returns the stored steps of simulation id, oldest first.
func (s *Store) ListSnapshots(ctx context.Context, id uuid.UUID) ([]SnapshotInfo, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, sim_time, created_at
		FROM simulation_snapshots
		WHERE id = $1
		ORDER BY step`, id)
	if err != nil {
		observe("list_snapshots", start, err)
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Step, &info.Time, &info.CreatedAt); err != nil {
			observe("list_snapshots", start, err)
			return nil, err
		}
		out = append(out, info)
	}
	err = rows.Err()
	observe("list_snapshots", start, err)
	return out, err
}

// CountSnapshots returns the number of stored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM simulation_snapshots`).Scan(&n)
	observe("count_snapshots", start, err)
	return n, err
}

func observe(op string, start time.Time, err error) {
	metrics.DBOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DBOperationErrors.WithLabelValues(op).Inc()
	}
}

type snapshotRow struct {
	id     uuid.UUID
	step   int64
	time   float64
	bodies pqtype.NullRawMessage
	stats  pqtype.NullRawMessage
}

func encodeFrame(f simulation.Frame) (snapshotRow, error) {
	id, err := uuid.Parse(f.ID)
	if err != nil {
		return snapshotRow{}, fmt.Errorf("snapshot id %q: %w", f.ID, err)
	}
	row := snapshotRow{id: id, step: f.Step, time: f.Time}
	if f.Bodies != nil {
		b, err := json.Marshal(f.Bodies)
		if err != nil {
			return snapshotRow{}, err
		}
		row.bodies = pqtype.NullRawMessage{RawMessage: b, Valid: true}
	}
	st, err := json.Marshal(f.Stats)
	if err != nil {
		return snapshotRow{}, err
	}
	row.stats = pqtype.NullRawMessage{RawMessage: st, Valid: true}
	return row, nil
}

func (r snapshotRow) decode() (simulation.Frame, error) {
	f := simulation.Frame{ID: r.id.String(), Step: r.step, Time: r.time}
	if r.bodies.Valid {
		if err := json.Unmarshal(r.bodies.RawMessage, &f.Bodies); err != nil {
			return simulation.Frame{}, fmt.Errorf("decode bodies: %w", err)
		}
	}
	if r.stats.Valid {
		var st barneshut.Stats
		if err := json.Unmarshal(r.stats.RawMessage, &st); err != nil {
			return simulation.Frame{}, fmt.Errorf("decode stats: %w", err)
		}
		f.Stats = st
	}
	return f, nil
}
