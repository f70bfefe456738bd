package engine

import (
	"context"

	"github.com/ldelafuente/capacita/internal/catalog"
)

// referenceCache preloads the reference keys an import run reconciles
// against. Everything is fetched up front in one query per concern; without
// it every row would cost a lookup round-trip, which is unacceptable at
// thousands of rows.
//
// The cache is scoped to a single run and discarded with it, so there is no
// cross-run staleness to invalidate.
type referenceCache struct {
	modules       map[int]int64            // module_no -> modules.id
	evaluations   map[int64]int64          // module_id -> default evaluations.id
	enrollments   map[enrollmentKey]int64  // (user_id, module_id) -> enrollments.id
	users         map[string]bool          // user_id -> exists before this run
	businessUnits map[string]int64         // folded name -> business_units.id
}

type enrollmentKey struct {
	userID   string
	moduleID int64
}

func newReferenceCache() *referenceCache {
	return &referenceCache{
		modules:       make(map[int]int64),
		evaluations:   make(map[int64]int64),
		enrollments:   make(map[enrollmentKey]int64),
		users:         make(map[string]bool),
		businessUnits: make(map[string]int64),
	}
}

// preloadModules loads the whole module catalog as stored in the database.
func (c *referenceCache) preloadModules(ctx context.Context, tx Tx) error {
	rows, err := tx.Query(ctx, `SELECT module_no, id FROM modules`)
	if err != nil {
		return dbErr("preload modules", err)
	}
	defer rows.Close()
	for rows.Next() {
		var no int
		var id int64
		if err := rows.Scan(&no, &id); err != nil {
			return dbErr("scan module", err)
		}
		c.modules[no] = id
	}
	if err := rows.Err(); err != nil {
		return dbErr("preload modules", err)
	}
	return nil
}

// preloadEvaluations loads the default evaluation per module.
func (c *referenceCache) preloadEvaluations(ctx context.Context, tx Tx) error {
	rows, err := tx.Query(ctx,
		`SELECT module_id, id FROM evaluations WHERE name = $1`, catalog.DefaultEvaluationName)
	if err != nil {
		return dbErr("preload evaluations", err)
	}
	defer rows.Close()
	for rows.Next() {
		var moduleID, id int64
		if err := rows.Scan(&moduleID, &id); err != nil {
			return dbErr("scan evaluation", err)
		}
		c.evaluations[moduleID] = id
	}
	if err := rows.Err(); err != nil {
		return dbErr("preload evaluations", err)
	}
	return nil
}

// preloadEnrollments loads every existing (user, module) enrollment key for
// the distinct users present in the current batch, one IN-clause query.
func (c *referenceCache) preloadEnrollments(ctx context.Context, tx Tx, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows, err := tx.Query(ctx,
		`SELECT user_id, module_id, id FROM enrollments WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return dbErr("preload enrollments", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		var moduleID, id int64
		if err := rows.Scan(&userID, &moduleID, &id); err != nil {
			return dbErr("scan enrollment", err)
		}
		c.enrollments[enrollmentKey{userID, moduleID}] = id
	}
	if err := rows.Err(); err != nil {
		return dbErr("preload enrollments", err)
	}
	return nil
}

// preloadUsers marks which of the batch's users already exist, so the run can
// count creations versus updates.
func (c *referenceCache) preloadUsers(ctx context.Context, tx Tx, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows, err := tx.Query(ctx, `SELECT user_id FROM users WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return dbErr("preload users", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return dbErr("scan user", err)
		}
		c.users[id] = true
	}
	if err := rows.Err(); err != nil {
		return dbErr("preload users", err)
	}
	return nil
}

// preloadBusinessUnits loads the unit name lookup used by roster imports.
func (c *referenceCache) preloadBusinessUnits(ctx context.Context, tx Tx) error {
	rows, err := tx.Query(ctx, `SELECT name, id FROM business_units`)
	if err != nil {
		return dbErr("preload business units", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return dbErr("scan business unit", err)
		}
		c.businessUnits[catalog.Fold(name)] = id
	}
	if err := rows.Err(); err != nil {
		return dbErr("preload business units", err)
	}
	return nil
}

func (c *referenceCache) moduleID(no int) (int64, bool) {
	id, ok := c.modules[no]
	return id, ok
}

func (c *referenceCache) addModule(no int, id int64) { c.modules[no] = id }

func (c *referenceCache) evaluationID(moduleID int64) (int64, bool) {
	id, ok := c.evaluations[moduleID]
	return id, ok
}

func (c *referenceCache) addEvaluation(moduleID, id int64) { c.evaluations[moduleID] = id }

func (c *referenceCache) enrollmentID(userID string, moduleID int64) (int64, bool) {
	id, ok := c.enrollments[enrollmentKey{userID, moduleID}]
	return id, ok
}

// markEnrollment records a pending insert so a second occurrence of the same
// (user, module) later in the same file updates instead of double-inserting.
// The id is unknown until the batch runs; 0 marks it pending.
func (c *referenceCache) markEnrollment(userID string, moduleID int64) {
	c.enrollments[enrollmentKey{userID, moduleID}] = 0
}

func (c *referenceCache) userExists(userID string) bool { return c.users[userID] }

func (c *referenceCache) markUser(userID string) { c.users[userID] = true }

func (c *referenceCache) businessUnitID(name string) (int64, bool) {
	id, ok := c.businessUnits[catalog.Fold(name)]
	return id, ok
}
