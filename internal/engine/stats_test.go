package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestStatsAddErrorCap(t *testing.T) {
	orig := MaxRecordedErrors
	MaxRecordedErrors = 5
	defer func() { MaxRecordedErrors = orig }()

	s := newStats(KindTraining, "r.xlsx", time.Now())
	for i := 0; i < 8; i++ {
		s.addError(i+2, errors.New("bad date"))
	}

	if s.ErrorCount != 8 {
		t.Errorf("ErrorCount = %d, want 8", s.ErrorCount)
	}
	if len(s.Errors) != 5 {
		t.Errorf("len(Errors) = %d, want 5 (capped)", len(s.Errors))
	}
	if s.Errors[0] != "row 2: bad date" {
		t.Errorf("Errors[0] = %q", s.Errors[0])
	}
}

func TestStatsSummary(t *testing.T) {
	s := newStats(KindTraining, "reporte.xlsx", time.Now())
	s.RowsTotal = 120
	s.RowsSkipped = 7
	s.EnrollmentsInserted = 80
	s.EnrollmentsUpdated = 28
	s.GradesRecorded = 64
	s.UsersCreated = 12
	s.UsersUpdated = 41
	for i := 0; i < 13; i++ {
		s.addError(i+2, fmt.Errorf("completion_date: unparseable date %q", "x"))
	}

	out := s.Summary()
	for _, want := range []string{
		"Import training (reporte.xlsx)",
		"rows read:            120",
		"rows without module:  7",
		"enrollments inserted: 80",
		"enrollments updated:  28",
		"grades recorded:      64",
		"errors:               13",
		"row 2: completion_date",
		"... and 3 more",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	// Only the first ten errors are listed.
	if strings.Contains(out, "row 13:") {
		t.Errorf("summary lists more than ten errors:\n%s", out)
	}
}

func TestStatsSummaryRosterOmitsEnrollmentLines(t *testing.T) {
	s := newStats(KindRoster, "plantilla.xlsx", time.Now())
	s.RowsTotal = 10
	s.UsersCreated = 4
	s.UsersUpdated = 6

	out := s.Summary()
	if strings.Contains(out, "enrollments") || strings.Contains(out, "grades") {
		t.Errorf("roster summary carries training lines:\n%s", out)
	}
	if !strings.Contains(out, "users created:        4") {
		t.Errorf("summary missing user counts:\n%s", out)
	}
}
