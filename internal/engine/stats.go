package engine

import (
	"fmt"
	"strings"
	"time"
)

// MaxRecordedErrors bounds the per-row error list kept in memory. ErrorCount
// keeps counting past the cap.
var MaxRecordedErrors = 200

// ImportKind identifies which of the two spreadsheet shapes a run ingested.
type ImportKind string

const (
	KindTraining ImportKind = "training"
	KindRoster   ImportKind = "roster"
)

// Stats accumulates the outcome of one import run. It is the only channel by
// which row-level problems reach the caller: the import never returns a Go
// error for bad data, only for bad columns or a failing database.
type Stats struct {
	RunID    string     `json:"runId"`
	Kind     ImportKind `json:"kind"`
	FileName string     `json:"fileName"`

	RowsTotal           int `json:"rowsTotal"`
	RowsSkipped         int `json:"rowsSkipped"` // no catalog module matched; not an error
	ModulesCreated      int `json:"modulesCreated"`
	UsersCreated        int `json:"usersCreated"`
	UsersUpdated        int `json:"usersUpdated"`
	EnrollmentsInserted int `json:"enrollmentsInserted"`
	EnrollmentsUpdated  int `json:"enrollmentsUpdated"`
	GradesRecorded      int `json:"gradesRecorded"`

	Errors     []string `json:"errors"`
	ErrorCount int      `json:"errorCount"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

func newStats(kind ImportKind, fileName string, start time.Time) *Stats {
	return &Stats{Kind: kind, FileName: fileName, StartedAt: start, Errors: []string{}}
}

// addError records a row-scoped failure. line is the 1-based spreadsheet row.
func (s *Stats) addError(line int, err error) {
	s.ErrorCount++
	if len(s.Errors) < MaxRecordedErrors {
		s.Errors = append(s.Errors, fmt.Sprintf("row %d: %v", line, err))
	}
}

// Summary renders the run as the human-readable report shown to operators.
func (s *Stats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Import %s (%s)\n", s.Kind, s.FileName)
	fmt.Fprintf(&b, "  rows read:            %d\n", s.RowsTotal)
	fmt.Fprintf(&b, "  rows without module:  %d\n", s.RowsSkipped)
	if s.Kind == KindTraining {
		fmt.Fprintf(&b, "  modules created:      %d\n", s.ModulesCreated)
		fmt.Fprintf(&b, "  enrollments inserted: %d\n", s.EnrollmentsInserted)
		fmt.Fprintf(&b, "  enrollments updated:  %d\n", s.EnrollmentsUpdated)
		fmt.Fprintf(&b, "  grades recorded:      %d\n", s.GradesRecorded)
	}
	fmt.Fprintf(&b, "  users created:        %d\n", s.UsersCreated)
	fmt.Fprintf(&b, "  users updated:        %d\n", s.UsersUpdated)
	fmt.Fprintf(&b, "  errors:               %d\n", s.ErrorCount)

	shown := len(s.Errors)
	if shown > 10 {
		shown = 10
	}
	for _, msg := range s.Errors[:shown] {
		fmt.Fprintf(&b, "    - %s\n", msg)
	}
	if rest := s.ErrorCount - shown; rest > 0 {
		fmt.Fprintf(&b, "    ... and %d more\n", rest)
	}
	fmt.Fprintf(&b, "  duration: %s\n", s.Duration.Round(time.Millisecond))
	return b.String()
}
