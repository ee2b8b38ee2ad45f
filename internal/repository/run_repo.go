package repository

import (
	"context"
	"database/sql"
	"time"

	"electrometer_acquisition/internal/models"

	"github.com/google/uuid"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

// Ensure implementation of the RunRepo interface at compile time.
var _ RunRepo = (*RunSQLite)(nil)

const (
	insertRunSQL = `
		INSERT INTO acquisition_runs (id, started_at, finished_at, state, samples, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `
		SELECT id, started_at, finished_at, state, samples, message
		FROM acquisition_runs ORDER BY started_at DESC
	`
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Append persists the summary of one finished run.
func (r *RunSQLite) Append(ctx context.Context, rec models.RunRecord) error {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertRunSQL,
		rec.RunID,
		rec.StartedAt.UTC().Format(sqliteTimeLayout),
		rec.FinishedAt.UTC().Format(sqliteTimeLayout),
		rec.State,
		rec.Samples,
		rec.Message,
	)
	return err
}

// List returns all run summaries, most recent first.
func (r *RunSQLite) List(ctx context.Context) ([]models.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRunsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RunRecord, 0, 16)
	for rows.Next() {
		var rec models.RunRecord
		if err := rows.Scan(&rec.RunID, &rec.StartedAt, &rec.FinishedAt, &rec.State, &rec.Samples, &rec.Message); err != nil {
			return nil, err
		}
		rec.StartedAt = rec.StartedAt.UTC()
		rec.FinishedAt = rec.FinishedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
