package engine

import (
	"strings"
	"time"

	"github.com/ldelafuente/capacita/internal/catalog"
)

// Status is the canonical enrollment status stored in the database.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusInProgress        Status = "in_progress"
	StatusInProgressOverdue Status = "in_progress_overdue"
	StatusRegistered        Status = "registered"
	StatusRegisteredOverdue Status = "registered_overdue"
	StatusNotStarted        Status = "not_started"
)

func (s Status) String() string { return string(s) }

// Percent returns the completion percentage implied by the status. Only a
// completed enrollment is 100; everything else starts at 0 and keeps
// whatever the row already had on update.
func (s Status) Percent() int {
	if s == StatusCompleted {
		return 100
	}
	return 0
}

// resolveStatus derives the canonical status from the raw status text plus
// the completion and due dates. Precedence is business policy, not accident:
//
//  1. Status text saying completed wins outright.
//  2. A completion date is authoritative even when the status text lags
//     behind it ("In Progress" with a completion date means completed).
//  3. Overdue is reported only inside the in-progress and registered bands,
//     never for completed or not-started.
func resolveStatus(raw string, completion, due *time.Time, now time.Time) Status {
	text := catalog.Fold(raw)

	if text == "completed" || text == "terminado" {
		return StatusCompleted
	}
	if completion != nil {
		return StatusCompleted
	}

	overdue := due != nil && due.Before(now)

	switch {
	case strings.Contains(text, "progress") || strings.Contains(text, "curso"):
		if overdue {
			return StatusInProgressOverdue
		}
		return StatusInProgress
	case containsAny(text, "registered", "enrolled", "registrado", "inscrito"):
		if overdue {
			return StatusRegisteredOverdue
		}
		return StatusRegistered
	}
	return StatusNotStarted
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
