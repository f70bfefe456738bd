package engine

import (
	"testing"
	"time"
)

func TestResolveStatus(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	past := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		raw        string
		completion *time.Time
		due        *time.Time
		want       Status
	}{
		{"completed text", "Completed", nil, nil, StatusCompleted},
		{"terminado text", "Terminado", nil, nil, StatusCompleted},
		{"completed text beats overdue due date", "Terminado", nil, &past, StatusCompleted},
		{"completion date beats lagging status text", "In Progress", &past, nil, StatusCompleted},
		{"completion date beats overdue", "En curso", &past, &past, StatusCompleted},
		{"completion date with empty text", "", &past, nil, StatusCompleted},
		{"in progress", "In Progress", nil, nil, StatusInProgress},
		{"en curso", "En curso", nil, nil, StatusInProgress},
		{"in progress future due", "In Progress", nil, &future, StatusInProgress},
		{"in progress past due", "In Progress", nil, &past, StatusInProgressOverdue},
		{"en curso past due", "En curso", nil, &past, StatusInProgressOverdue},
		{"registered", "Registered", nil, nil, StatusRegistered},
		{"inscrito", "Inscrito", nil, nil, StatusRegistered},
		{"registrado past due", "Registrado", nil, &past, StatusRegisteredOverdue},
		{"enrolled future due", "Enrolled", nil, &future, StatusRegistered},
		{"empty text", "", nil, nil, StatusNotStarted},
		{"unknown text", "Pendiente de revisión", nil, nil, StatusNotStarted},
		{"unknown text past due stays not started", "Pendiente", nil, &past, StatusNotStarted},
		{"accented uppercase", "TERMINADO", nil, nil, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStatus(tt.raw, tt.completion, tt.due, now)
			if got != tt.want {
				t.Errorf("resolveStatus(%q, %v, %v) = %s, want %s",
					tt.raw, tt.completion, tt.due, got, tt.want)
			}
		})
	}
}

func TestStatusPercent(t *testing.T) {
	if got := StatusCompleted.Percent(); got != 100 {
		t.Errorf("completed percent = %d, want 100", got)
	}
	for _, s := range []Status{StatusInProgress, StatusInProgressOverdue, StatusRegistered, StatusRegisteredOverdue, StatusNotStarted} {
		if got := s.Percent(); got != 0 {
			t.Errorf("%s percent = %d, want 0", s, got)
		}
	}
}
