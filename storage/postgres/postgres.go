// Package postgres archives latency snapshots in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EEWBot/webhook-benchmark/internal/utils"
	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSnapshot is returned by Latest when nothing has been archived yet.
var ErrNoSnapshot = errors.New("no snapshot archived")

const createTable = `
CREATE TABLE IF NOT EXISTS latency_snapshots (
	id           BIGSERIAL PRIMARY KEY,
	taken_at     TIMESTAMPTZ NOT NULL,
	sample_count BIGINT NOT NULL,
	total_ms     BIGINT NOT NULL,
	best_ms      BIGINT,
	avg_ms       BIGINT,
	worst_ms     BIGINT
)`

const insertSnapshot = `
INSERT INTO latency_snapshots (taken_at, sample_count, total_ms, best_ms, avg_ms, worst_ms)
VALUES ($1, $2, $3, $4, $5, $6)`

const selectLatest = `
SELECT taken_at, sample_count, total_ms, best_ms, worst_ms
FROM latency_snapshots
ORDER BY taken_at DESC, id DESC
LIMIT 1`

// Snapshot is one archived row.
type Snapshot struct {
	TakenAt time.Time
	Gauge   model.Gauge
}

type PostgresStorage struct {
	db *pgxpool.Pool
}

// NewPostgresStorage connects and makes sure the snapshot table exists.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = utils.WithRetry(ctx, func() error {
		_, err := db.Exec(ctx, createTable)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

func (store *PostgresStorage) SaveSnapshot(ctx context.Context, takenAt time.Time, g model.Gauge) error {
	args := snapshotArgs(takenAt, g)
	return utils.WithRetry(ctx, func() error {
		_, err := store.db.Exec(ctx, insertSnapshot, args...)
		return err
	})
}

// Latest returns the most recent snapshot or ErrNoSnapshot.
func (store *PostgresStorage) Latest(ctx context.Context) (Snapshot, error) {
	var (
		s           Snapshot
		best, worst *int64
	)
	err := utils.WithRetry(ctx, func() error {
		return store.db.QueryRow(ctx, selectLatest).
			Scan(&s.TakenAt, &s.Gauge.Count, &s.Gauge.TotalMs, &best, &worst)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select latest snapshot: %w", err)
	}

	s.Gauge.BestMs, s.Gauge.WorstMs = restoreBounds(best, worst)
	return s, nil
}

func (store *PostgresStorage) Ping(ctx context.Context) error {
	return store.db.Ping(ctx)
}

func (store *PostgresStorage) Close() {
	store.db.Close()
}

// snapshotArgs maps a gauge onto insertSnapshot's parameters. Empty gauges store NULL bounds.
func snapshotArgs(takenAt time.Time, g model.Gauge) []any {
	st := g.Stats()
	return []any{takenAt.UTC(), g.Count, g.TotalMs, st.BestMs, st.AvgMs, st.WorstMs}
}

func restoreBounds(best, worst *int64) (int64, int64) {
	empty := model.NewGauge()
	b, w := empty.BestMs, empty.WorstMs
	if best != nil {
		b = *best
	}
	if worst != nil {
		w = *worst
	}
	return b, w
}
