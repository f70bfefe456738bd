package engine

import (
	"context"
	"fmt"
	"time"
)

// Every run leaves an audit row in import_runs, written inside the run's own
// transaction so a rolled-back run leaves no trace.

const insertRunSQL = `
INSERT INTO import_runs (
    id, kind, file_name, rows_total, rows_skipped, modules_created,
    users_created, users_updated, enrollments_inserted, enrollments_updated,
    grades_recorded, error_count, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func recordRun(ctx context.Context, tx Tx, s *Stats) error {
	_, err := tx.Exec(ctx, insertRunSQL,
		s.RunID, string(s.Kind), s.FileName,
		s.RowsTotal, s.RowsSkipped, s.ModulesCreated,
		s.UsersCreated, s.UsersUpdated,
		s.EnrollmentsInserted, s.EnrollmentsUpdated,
		s.GradesRecorded, s.ErrorCount,
		s.StartedAt, s.Duration.Milliseconds(),
	)
	if err != nil {
		return dbErr("record run", err)
	}
	return nil
}

// RunRecord is one row of the import-run history.
type RunRecord struct {
	ID                  string     `json:"id"`
	Kind                ImportKind `json:"kind"`
	FileName            string     `json:"fileName"`
	RowsTotal           int        `json:"rowsTotal"`
	RowsSkipped         int        `json:"rowsSkipped"`
	ModulesCreated      int        `json:"modulesCreated"`
	UsersCreated        int        `json:"usersCreated"`
	UsersUpdated        int        `json:"usersUpdated"`
	EnrollmentsInserted int        `json:"enrollmentsInserted"`
	EnrollmentsUpdated  int        `json:"enrollmentsUpdated"`
	GradesRecorded      int        `json:"gradesRecorded"`
	ErrorCount          int        `json:"errorCount"`
	StartedAt           time.Time  `json:"startedAt"`
	DurationMs          int64      `json:"durationMs"`
}

const listRunsSQL = `
SELECT id, kind, file_name, rows_total, rows_skipped, modules_created,
       users_created, users_updated, enrollments_inserted, enrollments_updated,
       grades_recorded, error_count, started_at, duration_ms
FROM import_runs
ORDER BY started_at DESC
LIMIT $1`

// ListRuns returns the most recent import runs, newest first.
func ListRuns(ctx context.Context, q Querier, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var kind string
		if err := rows.Scan(&r.ID, &kind, &r.FileName, &r.RowsTotal, &r.RowsSkipped,
			&r.ModulesCreated, &r.UsersCreated, &r.UsersUpdated,
			&r.EnrollmentsInserted, &r.EnrollmentsUpdated,
			&r.GradesRecorded, &r.ErrorCount, &r.StartedAt, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Kind = ImportKind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}
