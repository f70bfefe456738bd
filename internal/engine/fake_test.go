package engine

// In-memory Gateway/Tx fakes. Preload queries are served from seeded maps;
// every write the engine issues is recorded for assertion.

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeGateway struct {
	tx       *fakeTx
	beginErr error
}

func (g *fakeGateway) Begin(ctx context.Context) (Tx, error) {
	if g.beginErr != nil {
		return nil, g.beginErr
	}
	return g.tx, nil
}

type seedEnrollment struct {
	userID   string
	moduleID int64
	id       int64
}

type sqlCall struct {
	sql  string
	args []any
}

type batchCall struct {
	sql  string
	rows [][]any
}

type fakeTx struct {
	// seeded reference data served to the preloads
	modules       map[int]int64   // module_no -> id
	evaluations   map[int64]int64 // module_id -> evaluation id
	enrollments   []seedEnrollment
	users         []string
	businessUnits map[string]int64 // name as stored -> id

	nextID int64

	// recorded writes
	createdModules     map[int]int64
	createdEvaluations map[int64]int64
	execs              []sqlCall
	batches            []batchCall

	batchErr   error // when set, every batch Exec fails with it
	committed  bool
	rolledBack bool
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		modules:            make(map[int]int64),
		evaluations:        make(map[int64]int64),
		businessUnits:      make(map[string]int64),
		createdModules:     make(map[int]int64),
		createdEvaluations: make(map[int64]int64),
		nextID:             1000,
	}
}

func (t *fakeTx) next() int64 {
	t.nextID++
	return t.nextID
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sqlCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	var data [][]any
	switch {
	case strings.Contains(sql, "FROM modules"):
		for no, id := range t.modules {
			data = append(data, []any{no, id})
		}
	case strings.Contains(sql, "FROM evaluations"):
		for moduleID, id := range t.evaluations {
			data = append(data, []any{moduleID, id})
		}
	case strings.Contains(sql, "FROM enrollments"):
		for _, e := range t.enrollments {
			data = append(data, []any{e.userID, e.moduleID, e.id})
		}
	case strings.Contains(sql, "FROM users"):
		for _, id := range t.users {
			data = append(data, []any{id})
		}
	case strings.Contains(sql, "FROM business_units"):
		for name, id := range t.businessUnits {
			data = append(data, []any{name, id})
		}
	default:
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	return &fakeRows{data: data}, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	switch {
	case strings.Contains(sql, "INSERT INTO modules"):
		id := t.next()
		t.createdModules[args[0].(int)] = id
		return fakeRow{vals: []any{id}}
	case strings.Contains(sql, "INSERT INTO evaluations"):
		id := t.next()
		t.createdEvaluations[args[0].(int64)] = id
		return fakeRow{vals: []any{id}}
	}
	return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) BatchResults {
	call := batchCall{}
	for _, q := range b.QueuedQueries {
		if call.sql == "" {
			call.sql = q.SQL
		}
		call.rows = append(call.rows, q.Arguments)
	}
	t.batches = append(t.batches, call)
	return &fakeBatchResults{n: b.Len(), err: t.batchErr}
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

// batchFor returns the recorded batch whose SQL contains sub.
func (t *fakeTx) batchFor(sub string) (batchCall, bool) {
	for _, b := range t.batches {
		if strings.Contains(b.sql, sub) {
			return b, true
		}
	}
	return batchCall{}, false
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	if r.i < len(r.data) {
		r.i++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	for j, d := range dest {
		if err := assignCell(d, row[j]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if err := assignCell(d, r.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func assignCell(dest, v any) error {
	switch d := dest.(type) {
	case *int:
		val, ok := v.(int)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int", v)
		}
		*d = val
	case *int64:
		val, ok := v.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", v)
		}
		*d = val
	case *string:
		val, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", v)
		}
		*d = val
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}

type fakeBatchResults struct {
	n   int
	err error
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeBatchResults) Close() error { return nil }
