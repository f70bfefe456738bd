// Package engine implements the capacitación reconciliation engine: it
// ingests training-status and organizational-roster spreadsheet exports and
// reconciles them against the relational schema of users, modules,
// enrollments, evaluations and grade results.
//
// One import run is one transaction. Data-quality problems are isolated per
// row and surfaced through Stats; only column detection and database
// failures are returned as errors.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ldelafuente/capacita/internal/catalog"
)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	// HeaderSearchRows is how many leading rows are scanned for the header.
	HeaderSearchRows int
	// PassingThreshold is the default evaluation's passing score.
	PassingThreshold float64
	// Now is the injected clock used for overdue computation.
	Now func() time.Time
	// Logger receives run summaries and row-level debug output.
	Logger *slog.Logger
}

// Engine reconciles spreadsheet exports against the database behind a
// Gateway. It is synchronous and non-reentrant: callers running imports from
// multiple goroutines must serialize them.
type Engine struct {
	gw      Gateway
	opts    Options
	lastRun *Stats
}

// New builds an Engine on top of a database gateway.
func New(gw Gateway, opts Options) *Engine {
	if opts.HeaderSearchRows <= 0 {
		opts.HeaderSearchRows = 20
	}
	if opts.PassingThreshold <= 0 {
		opts.PassingThreshold = catalog.DefaultPassingThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{gw: gw, opts: opts}
}

// ImportTrainingReport imports a training-status export from disk.
func (e *Engine) ImportTrainingReport(ctx context.Context, path string) (*Stats, error) {
	return e.importFile(ctx, KindTraining, path)
}

// ImportOrgPlanning imports an organizational-roster export from disk.
func (e *Engine) ImportOrgPlanning(ctx context.Context, path string) (*Stats, error) {
	return e.importFile(ctx, KindRoster, path)
}

// ImportTrainingReportFrom imports a training-status export from a reader
// (an HTTP upload, typically).
func (e *Engine) ImportTrainingReportFrom(ctx context.Context, r io.Reader, fileName string) (*Stats, error) {
	rows, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, KindTraining, fileName, rows)
}

// ImportOrgPlanningFrom imports an organizational-roster export from a reader.
func (e *Engine) ImportOrgPlanningFrom(ctx context.Context, r io.Reader, fileName string) (*Stats, error) {
	rows, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, KindRoster, fileName, rows)
}

// LastRun returns the Stats of the most recent completed run, or nil.
func (e *Engine) LastRun() *Stats { return e.lastRun }

// GenerateReport renders the last run's summary for display.
func (e *Engine) GenerateReport() string {
	if e.lastRun == nil {
		return "no import has run yet"
	}
	return e.lastRun.Summary()
}

func (e *Engine) importFile(ctx context.Context, kind ImportKind, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := readSheet(f)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, kind, filepath.Base(path), rows)
}

// run is the orchestrator: detect columns, open the run transaction, preload
// reference keys, walk the rows with per-row fault isolation, flush the
// batches, record the run, commit.
func (e *Engine) run(ctx context.Context, kind ImportKind, fileName string, rows [][]string) (*Stats, error) {
	start := e.opts.Now()

	cm, err := detectColumns(rows, kind, e.opts.HeaderSearchRows)
	if err != nil {
		return nil, err
	}
	dataRows := rows[cm.HeaderRow+1:]

	stats := newStats(kind, fileName, start)
	stats.RunID = uuid.New().String()

	tx, err := e.gw.Begin(ctx)
	if err != nil {
		return nil, dbErr("begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	cache := newReferenceCache()
	userIDs := distinctUserIDs(dataRows, cm)
	if err := cache.preloadUsers(ctx, tx, userIDs); err != nil {
		return nil, err
	}
	switch kind {
	case KindTraining:
		if err := cache.preloadModules(ctx, tx); err != nil {
			return nil, err
		}
		if err := cache.preloadEvaluations(ctx, tx); err != nil {
			return nil, err
		}
		if err := cache.preloadEnrollments(ctx, tx, userIDs); err != nil {
			return nil, err
		}
	case KindRoster:
		if err := cache.preloadBusinessUnits(ctx, tx); err != nil {
			return nil, err
		}
	}

	batch := &batchSet{}
	seenUsers := make(map[string]bool, len(userIDs))

	for i, row := range dataRows {
		if isEmptyRow(row) {
			continue
		}
		stats.RowsTotal++
		line := cm.HeaderRow + i + 2 // 1-based, as shown in Excel

		var rowErr error
		if kind == KindTraining {
			rowErr = e.processTrainingRow(ctx, tx, cm, row, cache, batch, seenUsers, stats)
		} else {
			rowErr = e.processRosterRow(cm, row, cache, batch, seenUsers, stats)
		}
		if rowErr != nil {
			if errors.Is(rowErr, ErrDatabase) {
				return nil, rowErr
			}
			stats.addError(line, rowErr)
			e.opts.Logger.Debug("row skipped", "kind", kind, "line", line, "error", rowErr)
		}
	}

	if err := batch.write(ctx, tx); err != nil {
		return nil, err
	}

	stats.Duration = e.opts.Now().Sub(start)
	if err := recordRun(ctx, tx, stats); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, dbErr("commit", err)
	}
	committed = true

	e.lastRun = stats
	e.opts.Logger.Info("import finished",
		"kind", kind,
		"file", fileName,
		"rows", stats.RowsTotal,
		"inserted", stats.EnrollmentsInserted,
		"updated", stats.EnrollmentsUpdated,
		"grades", stats.GradesRecorded,
		"errors", stats.ErrorCount,
		"duration", stats.Duration,
	)
	return stats, nil
}

// processTrainingRow reconciles one row of the training-status export.
// Returned errors are row-scoped unless they wrap ErrDatabase.
func (e *Engine) processTrainingRow(ctx context.Context, tx Tx, cm *ColumnMap, row []string, cache *referenceCache, batch *batchSet, seenUsers map[string]bool, stats *Stats) error {
	userID := cm.Cell(row, FieldUserID)
	if userID == "" {
		return rowErrorf(FieldUserID, "missing user id")
	}
	title := cm.Cell(row, FieldTrainingTitle)
	if title == "" {
		return rowErrorf(FieldTrainingTitle, "missing training title")
	}

	moduleNo, ok := catalog.Normalize(title)
	if !ok {
		// Non-catalog training (administrative courses etc.), not an error.
		stats.RowsSkipped++
		return nil
	}

	// Parse every cell before touching the batch, cache or stats. A row that
	// fails on any cell must leave no trace at all: a half-queued row (an
	// enrollment without its user upsert, say) would break foreign keys at
	// write time and escalate one bad cell into a failed run.
	startDate, err := parseDate(cm.Cell(row, FieldStartDate))
	if err != nil {
		return rowErrorf(FieldStartDate, "%v", err)
	}
	completion, err := parseDate(cm.Cell(row, FieldCompletionDate))
	if err != nil {
		return rowErrorf(FieldCompletionDate, "%v", err)
	}
	due, err := parseDate(cm.Cell(row, FieldDueDate))
	if err != nil {
		return rowErrorf(FieldDueDate, "%v", err)
	}
	var score float64
	var hasScore bool
	if cm.Has(FieldScore) {
		score, hasScore, err = parseScore(cm.Cell(row, FieldScore))
		if err != nil {
			return rowErrorf(FieldScore, "%v", err)
		}
	}

	moduleID, ok := cache.moduleID(moduleNo)
	if !ok {
		// The one per-row write that cannot be deferred: later rows in this
		// same run may reference the new module's id.
		id, err := createModule(ctx, tx, moduleNo)
		if err != nil {
			return err
		}
		moduleID = id
		cache.addModule(moduleNo, id)
		stats.ModulesCreated++
	}

	status := resolveStatus(cm.Cell(row, FieldRecordStatus), completion, due, e.opts.Now())

	if _, exists := cache.enrollmentID(userID, moduleID); exists {
		batch.enrollUpdates = append(batch.enrollUpdates, enrollUpdate{
			userID: userID, moduleID: moduleID, status: status,
			startDate: startDate, completion: completion,
		})
		stats.EnrollmentsUpdated++
	} else {
		batch.enrollInserts = append(batch.enrollInserts, enrollInsert{
			userID: userID, moduleID: moduleID, status: status,
			startDate: startDate, completion: completion,
		})
		cache.markEnrollment(userID, moduleID)
		stats.EnrollmentsInserted++
	}

	if hasScore {
		evalID, ok := cache.evaluationID(moduleID)
		if !ok {
			id, err := createEvaluation(ctx, tx, moduleID, e.opts.PassingThreshold)
			if err != nil {
				return err
			}
			evalID = id
			cache.addEvaluation(moduleID, id)
		}
		batch.gradeUpserts = append(batch.gradeUpserts, gradeUpsert{
			userID: userID, moduleID: moduleID, evaluationID: evalID,
			score: score, passed: score >= e.opts.PassingThreshold,
		})
		stats.GradesRecorded++
	}

	e.upsertUser(cm, row, userID, nil, cache, batch, seenUsers, stats)
	return nil
}

// processRosterRow upserts one row of the organizational-roster export.
func (e *Engine) processRosterRow(cm *ColumnMap, row []string, cache *referenceCache, batch *batchSet, seenUsers map[string]bool, stats *Stats) error {
	userID := cm.Cell(row, FieldUserID)
	if userID == "" {
		return rowErrorf(FieldUserID, "missing user id")
	}
	if cm.Cell(row, FieldFullName) == "" {
		return rowErrorf(FieldFullName, "missing employee name")
	}

	var businessUnitID *int64
	if name := cm.Cell(row, FieldBusinessUnit); name != "" {
		// Unresolved units stay null; this engine never creates units.
		if id, ok := cache.businessUnitID(name); ok {
			businessUnitID = &id
		}
	}

	e.upsertUser(cm, row, userID, businessUnitID, cache, batch, seenUsers, stats)
	return nil
}

// upsertUser queues one user upsert per distinct user id per run.
func (e *Engine) upsertUser(cm *ColumnMap, row []string, userID string, businessUnitID *int64, cache *referenceCache, batch *batchSet, seenUsers map[string]bool, stats *Stats) {
	if seenUsers[userID] {
		return
	}
	seenUsers[userID] = true

	batch.userUpserts = append(batch.userUpserts, userUpsert{
		userID:         userID,
		fullName:       cm.Cell(row, FieldFullName),
		email:          cm.Cell(row, FieldEmail),
		position:       cm.Cell(row, FieldPosition),
		division:       cm.Cell(row, FieldDepartment),
		location:       cm.Cell(row, FieldLocation),
		businessUnitID: businessUnitID,
	})
	if cache.userExists(userID) {
		stats.UsersUpdated++
	} else {
		cache.markUser(userID)
		stats.UsersCreated++
	}
}

func createModule(ctx context.Context, tx Tx, moduleNo int) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO modules (module_no, title, active) VALUES ($1, $2, true) RETURNING id`,
		moduleNo, catalog.Title(moduleNo),
	).Scan(&id)
	if err != nil {
		return 0, dbErr("create module", err)
	}
	return id, nil
}

func createEvaluation(ctx context.Context, tx Tx, moduleID int64, threshold float64) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO evaluations (module_id, name, passing_threshold) VALUES ($1, $2, $3) RETURNING id`,
		moduleID, catalog.DefaultEvaluationName, threshold,
	).Scan(&id)
	if err != nil {
		return 0, dbErr("create evaluation", err)
	}
	return id, nil
}

func distinctUserIDs(rows [][]string, cm *ColumnMap) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range rows {
		id := cm.Cell(row, FieldUserID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
