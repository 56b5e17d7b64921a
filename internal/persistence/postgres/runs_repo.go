// Package postgres archives engine run results for reporting and pace
// history. The engine itself stays stateless; this is an outer-layer audit
// trail keyed by property and run time.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/revpilot/revpilot/internal/domain/comps"
	"github.com/revpilot/revpilot/internal/domain/engine"
)

// ErrNoRuns is returned when a property has no archived runs yet.
var ErrNoRuns = errors.New("no archived runs for property")

// RunSnapshot is one archived engine run.
type RunSnapshot struct {
	RunID      string           `db:"run_id"`
	PropertyID string           `db:"property_id"`
	MarketID   string           `db:"market_id"`
	Tier       comps.Tier       `db:"tier"`
	SampleSize int              `db:"sample_size"`
	RanAt      time.Time        `db:"ran_at"`
	Result     engine.RunResult `db:"-"`
}

// RunsRepo stores and retrieves run snapshots.
type RunsRepo interface {
	Save(ctx context.Context, snapshot RunSnapshot) error
	Latest(ctx context.Context, propertyID string) (RunSnapshot, error)
	History(ctx context.Context, propertyID string, limit int) ([]RunSnapshot, error)
}

// Open connects and verifies a PostgreSQL DSN.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type runsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRunsRepo creates a PostgreSQL-backed run archive.
func NewRunsRepo(db *sqlx.DB, timeout time.Duration) RunsRepo {
	return &runsRepo{db: db, timeout: timeout}
}

// Save upserts a run snapshot; re-running the same run ID replaces its row.
func (r *runsRepo) Save(ctx context.Context, snapshot RunSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resultJSON, err := json.Marshal(snapshot.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	query := `
		INSERT INTO engine_runs
		(run_id, property_id, market_id, tier, sample_size, ran_at, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			market_id = EXCLUDED.market_id,
			tier = EXCLUDED.tier,
			sample_size = EXCLUDED.sample_size,
			ran_at = EXCLUDED.ran_at,
			result = EXCLUDED.result`

	if _, err := r.db.ExecContext(ctx, query,
		snapshot.RunID, snapshot.PropertyID, snapshot.MarketID,
		string(snapshot.Tier), snapshot.SampleSize, snapshot.RanAt, resultJSON); err != nil {
		return fmt.Errorf("failed to save run %s: %w", snapshot.RunID, err)
	}
	return nil
}

// Latest returns the most recent archived run for a property.
func (r *runsRepo) Latest(ctx context.Context, propertyID string) (RunSnapshot, error) {
	runs, err := r.History(ctx, propertyID, 1)
	if err != nil {
		return RunSnapshot{}, err
	}
	if len(runs) == 0 {
		return RunSnapshot{}, ErrNoRuns
	}
	return runs[0], nil
}

// History returns archived runs for a property, newest first.
func (r *runsRepo) History(ctx context.Context, propertyID string, limit int) ([]RunSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT run_id, property_id, market_id, tier, sample_size, ran_at, result
		FROM engine_runs
		WHERE property_id = $1
		ORDER BY ran_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for %s: %w", propertyID, err)
	}
	defer rows.Close()

	var snapshots []RunSnapshot
	for rows.Next() {
		var (
			snapshot   RunSnapshot
			tier       string
			resultJSON []byte
		)
		if err := rows.Scan(&snapshot.RunID, &snapshot.PropertyID, &snapshot.MarketID,
			&tier, &snapshot.SampleSize, &snapshot.RanAt, &resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		snapshot.Tier = comps.Tier(tier)
		if err := json.Unmarshal(resultJSON, &snapshot.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s result: %w", snapshot.RunID, err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run row iteration failed: %w", err)
	}
	return snapshots, nil
}

// Schema is the DDL for the run archive, applied by deploy tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS engine_runs (
	run_id      TEXT PRIMARY KEY,
	property_id TEXT NOT NULL,
	market_id   TEXT NOT NULL,
	tier        TEXT NOT NULL,
	sample_size INTEGER NOT NULL DEFAULT 0,
	ran_at      TIMESTAMPTZ NOT NULL,
	result      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_engine_runs_property_ran
	ON engine_runs (property_id, ran_at DESC);`

// EnsureSchema applies the run archive DDL.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply engine_runs schema: %w", err)
	}
	return nil
}
