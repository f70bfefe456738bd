package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// batchSet accumulates the write operations of one run. Each kind becomes a
// single batched statement instead of one statement per row; the only writes
// that bypass it are module and evaluation creations, which must execute
// immediately on the run's transaction because later rows in the same file
// need the generated ids.
type batchSet struct {
	userUpserts       []userUpsert
	enrollInserts     []enrollInsert
	enrollUpdates     []enrollUpdate
	gradeUpserts      []gradeUpsert
}

type userUpsert struct {
	userID         string
	fullName       string
	email          string
	position       string
	division       string
	location       string
	businessUnitID *int64
}

type enrollInsert struct {
	userID     string
	moduleID   int64
	status     Status
	startDate  *time.Time
	completion *time.Time
}

type enrollUpdate struct {
	userID     string
	moduleID   int64
	status     Status
	startDate  *time.Time
	completion *time.Time
}

type gradeUpsert struct {
	userID       string
	moduleID     int64
	evaluationID int64
	score        float64
	passed       bool
}

const upsertUserSQL = `
INSERT INTO users (user_id, full_name, email, position, division, location, business_unit_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
    full_name        = COALESCE(NULLIF(EXCLUDED.full_name, ''), users.full_name),
    email            = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
    position         = COALESCE(NULLIF(EXCLUDED.position, ''), users.position),
    division         = COALESCE(NULLIF(EXCLUDED.division, ''), users.division),
    location         = COALESCE(NULLIF(EXCLUDED.location, ''), users.location),
    business_unit_id = COALESCE(EXCLUDED.business_unit_id, users.business_unit_id)`

const insertEnrollmentSQL = `
INSERT INTO enrollments (user_id, module_id, status, start_date, completion_date, percent_complete)
VALUES ($1, $2, $3, $4, $5, $6)`

// completion_date is only overwritten with a non-null value, so a blank cell
// never erases a completion recorded by an earlier import. A completion date
// already on file also keeps the status completed even when a later row's
// status text lags behind, the same precedence rule the resolver applies.
const updateEnrollmentSQL = `
UPDATE enrollments SET
    status           = CASE WHEN COALESCE($5, completion_date) IS NOT NULL THEN 'completed' ELSE $3 END,
    start_date       = COALESCE($4, start_date),
    completion_date  = COALESCE($5, completion_date),
    percent_complete = CASE WHEN COALESCE($5, completion_date) IS NOT NULL OR $3 = 'completed' THEN 100 ELSE percent_complete END
WHERE user_id = $1 AND module_id = $2`

// Grade rows resolve their enrollment id at write time, after the enrollment
// batch has run, so grades on enrollments inserted in the same run work.
const upsertGradeSQL = `
INSERT INTO grade_results (enrollment_id, evaluation_id, score, passed, attempt_number, recorded_at)
SELECT e.id, $3, $4, $5, 1, now()
FROM enrollments e
WHERE e.user_id = $1 AND e.module_id = $2
ON CONFLICT (enrollment_id, evaluation_id) DO UPDATE SET
    score       = EXCLUDED.score,
    passed      = EXCLUDED.passed,
    recorded_at = EXCLUDED.recorded_at`

// write executes the accumulated operations as one pgx batch per kind,
// ordered so every statement only references rows that already exist:
// users before enrollments, enrollment inserts before updates, grades last.
func (b *batchSet) write(ctx context.Context, tx Tx) error {
	if err := b.send(ctx, tx, "upsert users", b.queueUsers()); err != nil {
		return err
	}
	if err := b.send(ctx, tx, "insert enrollments", b.queueEnrollInserts()); err != nil {
		return err
	}
	if err := b.send(ctx, tx, "update enrollments", b.queueEnrollUpdates()); err != nil {
		return err
	}
	return b.send(ctx, tx, "upsert grades", b.queueGrades())
}

func (b *batchSet) queueUsers() *pgx.Batch {
	q := &pgx.Batch{}
	for _, u := range b.userUpserts {
		q.Queue(upsertUserSQL, u.userID, u.fullName, u.email, u.position, u.division, u.location, u.businessUnitID)
	}
	return q
}

func (b *batchSet) queueEnrollInserts() *pgx.Batch {
	q := &pgx.Batch{}
	for _, e := range b.enrollInserts {
		q.Queue(insertEnrollmentSQL, e.userID, e.moduleID, string(e.status), e.startDate, e.completion, e.status.Percent())
	}
	return q
}

func (b *batchSet) queueEnrollUpdates() *pgx.Batch {
	q := &pgx.Batch{}
	for _, e := range b.enrollUpdates {
		q.Queue(updateEnrollmentSQL, e.userID, e.moduleID, string(e.status), e.startDate, e.completion)
	}
	return q
}

func (b *batchSet) queueGrades() *pgx.Batch {
	q := &pgx.Batch{}
	for _, g := range b.gradeUpserts {
		q.Queue(upsertGradeSQL, g.userID, g.moduleID, g.evaluationID, g.score, g.passed)
	}
	return q
}

func (b *batchSet) send(ctx context.Context, tx Tx, op string, q *pgx.Batch) error {
	if q.Len() == 0 {
		return nil
	}
	res := tx.SendBatch(ctx, q)
	for i := 0; i < q.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			_ = res.Close()
			return dbErr(op, err)
		}
	}
	if err := res.Close(); err != nil {
		return dbErr(op, err)
	}
	return nil
}
