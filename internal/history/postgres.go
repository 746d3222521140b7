package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createBatchRuns = `
CREATE TABLE IF NOT EXISTS batch_runs (
    id          UUID PRIMARY KEY,
    url         TEXT        NOT NULL,
    rows        INTEGER     NOT NULL,
    succeeded   INTEGER     NOT NULL,
    failed      INTEGER     NOT NULL,
    result      JSONB       NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT      NOT NULL
);
CREATE INDEX IF NOT EXISTS batch_runs_started_at_idx ON batch_runs (started_at DESC);
`

const selectBatchRun = `
SELECT id::text, url, rows, result, started_at, duration_ms
FROM batch_runs`

// PostgresStore persists batch reports in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store on pool, creating the batch_runs table
// if it does not exist.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createBatchRuns); err != nil {
		return nil, fmt.Errorf("create batch_runs: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save implements core.RunStore.
func (p *PostgresStore) Save(ctx context.Context, report core.BatchReport) error {
	result, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO batch_runs (id, url, rows, succeeded, failed, result, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID,
		report.URL,
		report.Rows,
		len(report.Result.Correctos),
		len(report.Result.Erroneos),
		result,
		report.StartedAt,
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert batch run %s: %w", report.ID, err)
	}
	return nil
}

// Get implements core.RunStore.
func (p *PostgresStore) Get(ctx context.Context, id string) (*core.BatchReport, error) {
	rows, err := p.pool.Query(ctx, selectBatchRun+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query batch run %s: %w", id, err)
	}

	report, err := pgx.CollectExactlyOneRow(rows, scanReport)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan batch run %s: %w", id, err)
	}
	return &report, nil
}

// Recent implements core.RunStore.
func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]core.BatchReport, error) {
	if limit <= 0 {
		limit = DefaultMemoryCapacity
	}

	rows, err := p.pool.Query(ctx, selectBatchRun+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent batch runs: %w", err)
	}

	reports, err := pgx.CollectRows(rows, scanReport)
	if err != nil {
		return nil, fmt.Errorf("scan batch runs: %w", err)
	}
	if reports == nil {
		reports = []core.BatchReport{}
	}
	return reports, nil
}

// Prune deletes reports started before cutoff.
func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM batch_runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune batch runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReport(row pgx.CollectableRow) (core.BatchReport, error) {
	var (
		r          core.BatchReport
		result     []byte
		durationMS int64
	)
	if err := row.Scan(&r.ID, &r.URL, &r.Rows, &result, &r.StartedAt, &durationMS); err != nil {
		return core.BatchReport{}, err
	}
	if err := json.Unmarshal(result, &r.Result); err != nil {
		return core.BatchReport{}, fmt.Errorf("decode result of %s: %w", r.ID, err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}
