package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"adinsight/domain/core"
	"adinsight/internal/errors"
	"adinsight/ports"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a PostgreSQL run repository.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Connect opens and pings a PostgreSQL connection.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	return db, nil
}

// EnsureSchema creates the runs table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id          TEXT PRIMARY KEY,
			query       TEXT NOT NULL,
			summary     JSONB NOT NULL,
			hypotheses  JSONB NOT NULL,
			idea_count  INTEGER NOT NULL DEFAULT 0,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`)
	return errors.Wrap(err, "ensure analysis_runs schema")
}

// SaveRun upserts one completed run.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *ports.RunRecord) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return errors.Wrap(err, "marshal run summary")
	}
	hypothesesJSON, err := json.Marshal(run.Hypotheses)
	if err != nil {
		return errors.Wrap(err, "marshal run hypotheses")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, query, summary, hypotheses, idea_count, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			query = EXCLUDED.query,
			summary = EXCLUDED.summary,
			hypotheses = EXCLUDED.hypotheses,
			idea_count = EXCLUDED.idea_count,
			finished_at = EXCLUDED.finished_at`,
		run.ID.String(), run.Query, summaryJSON, hypothesesJSON,
		run.IdeaCount, run.StartedAt.Time(), run.FinishedAt.Time())
	if err != nil {
		return errors.DatabaseError("save run: " + err.Error())
	}
	return nil
}

// GetRun retrieves one run by ID.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, query, summary, hypotheses, idea_count, started_at, finished_at
		FROM analysis_runs WHERE id = $1`, id.String())
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*ports.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, query, summary, hypotheses, idea_count, started_at, finished_at
		FROM analysis_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.DatabaseError("list runs: " + err.Error())
	}
	defer rows.Close()

	var out []*ports.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*ports.RunRecord, error) {
	var (
		run            ports.RunRecord
		id             string
		summaryJSON    []byte
		hypothesesJSON []byte
		startedAt      sql.NullTime
		finishedAt     sql.NullTime
	)
	err := row.Scan(&id, &run.Query, &summaryJSON, &hypothesesJSON, &run.IdeaCount, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeDatabaseError, "run not found")
	}
	if err != nil {
		return nil, errors.DatabaseError("scan run: " + err.Error())
	}

	run.ID = core.RunID(id)
	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return nil, errors.Wrap(err, "unmarshal run summary")
	}
	if err := json.Unmarshal(hypothesesJSON, &run.Hypotheses); err != nil {
		return nil, errors.Wrap(err, "unmarshal run hypotheses")
	}
	if startedAt.Valid {
		run.StartedAt = core.NewTimestamp(startedAt.Time)
	}
	if finishedAt.Valid {
		run.FinishedAt = core.NewTimestamp(finishedAt.Time)
	}
	return &run, nil
}
