package engine

import (
	"errors"
	"testing"
)

func TestDetectColumnsSpanishTraining(t *testing.T) {
	rows := [][]string{
		{"No. de Empleado", "Nombre Completo", "Título del Curso", "Estatus", "Calificación", "Fecha de Término"},
		{"E001", "Ana Solís", "SEGURIDAD EN LAS OPERACIONES", "Terminado", "85", "2024-02-20"},
	}

	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}
	if cm.HeaderRow != 0 {
		t.Errorf("HeaderRow = %d, want 0", cm.HeaderRow)
	}

	row := rows[1]
	checks := []struct {
		field Field
		want  string
	}{
		{FieldUserID, "E001"},
		{FieldFullName, "Ana Solís"},
		{FieldTrainingTitle, "SEGURIDAD EN LAS OPERACIONES"},
		{FieldRecordStatus, "Terminado"},
		{FieldScore, "85"},
		{FieldCompletionDate, "2024-02-20"},
	}
	for _, c := range checks {
		if got := cm.Cell(row, c.field); got != c.want {
			t.Errorf("Cell(%s) = %q, want %q", c.field, got, c.want)
		}
	}
}

func TestDetectColumnsEnglishReordered(t *testing.T) {
	rows := [][]string{
		{"Completion Date", "Score", "Training Title", "Record Status", "User ID", "Due Date"},
	}

	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}

	row := []string{"2024-02-20", "90", "SAFETY", "Completed", "E002", "2024-03-01"}
	if got := cm.Cell(row, FieldUserID); got != "E002" {
		t.Errorf("Cell(user_id) = %q, want E002", got)
	}
	if got := cm.Cell(row, FieldTrainingTitle); got != "SAFETY" {
		t.Errorf("Cell(training_title) = %q, want SAFETY", got)
	}
	if got := cm.Cell(row, FieldDueDate); got != "2024-03-01" {
		t.Errorf("Cell(due_date) = %q, want 2024-03-01", got)
	}
}

func TestDetectColumnsHeaderBelowBanner(t *testing.T) {
	rows := [][]string{
		{"Reporte de Capacitación"},
		{"Generado: 2024-03-01"},
		{},
		{"No. de Empleado", "Título del Curso"},
		{"E001", "SEGURIDAD EN LAS OPERACIONES"},
	}

	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}
	if cm.HeaderRow != 3 {
		t.Errorf("HeaderRow = %d, want 3", cm.HeaderRow)
	}
}

func TestDetectColumnsHeaderBeyondSearchWindow(t *testing.T) {
	rows := [][]string{
		{"banner"}, {"banner"}, {"banner"},
		{"No. de Empleado", "Título del Curso"},
	}

	if _, err := detectColumns(rows, KindTraining, 3); err == nil {
		t.Fatal("header outside the search window should not be found")
	}
}

func TestDetectColumnsMissingRequired(t *testing.T) {
	rows := [][]string{
		{"No. de Empleado", "Estatus", "Calificación"},
	}

	_, err := detectColumns(rows, KindTraining, 20)
	if err == nil {
		t.Fatal("expected a column detection error")
	}

	var colErr *ColumnDetectionError
	if !errors.As(err, &colErr) {
		t.Fatalf("error type %T, want *ColumnDetectionError", err)
	}
	if colErr.Kind != KindTraining {
		t.Errorf("Kind = %s, want training", colErr.Kind)
	}
	if len(colErr.Missing) != 1 || colErr.Missing[0] != FieldTrainingTitle {
		t.Errorf("Missing = %v, want [training_title]", colErr.Missing)
	}
}

func TestDetectColumnsRosterRequiresEmailAndName(t *testing.T) {
	rows := [][]string{
		{"Employee ID", "Employee Name", "Email", "Puesto"},
	}
	if _, err := detectColumns(rows, KindRoster, 20); err != nil {
		t.Fatalf("detectColumns: %v", err)
	}

	rows = [][]string{{"Employee ID", "Puesto"}}
	_, err := detectColumns(rows, KindRoster, 20)
	var colErr *ColumnDetectionError
	if !errors.As(err, &colErr) {
		t.Fatalf("error = %v, want *ColumnDetectionError", err)
	}
	if len(colErr.Missing) != 2 {
		t.Errorf("Missing = %v, want email and full_name", colErr.Missing)
	}
}

func TestColumnMapCellShortRow(t *testing.T) {
	rows := [][]string{{"No. de Empleado", "Título del Curso", "Calificación"}}
	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}

	// GetRows trims trailing empty cells, so data rows can be shorter than
	// the header.
	if got := cm.Cell([]string{"E001", "CURSO"}, FieldScore); got != "" {
		t.Errorf("Cell on short row = %q, want empty", got)
	}
}

func TestDetectColumnsContainmentSkipsClaimedColumns(t *testing.T) {
	// "Cursos Asignados" is not a listed title label, so training_title must
	// fall back to containment on "curso" without stealing the "Tipo de
	// Curso" column that training_type matched exactly.
	rows := [][]string{{"No. de Empleado", "Tipo de Curso", "Cursos Asignados", "Estatus"}}
	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}
	if got := cm.Label(FieldTrainingType); got != "Tipo de Curso" {
		t.Errorf("Label(training_type) = %q, want Tipo de Curso", got)
	}
	if got := cm.Label(FieldTrainingTitle); got != "Cursos Asignados" {
		t.Errorf("Label(training_title) = %q, want Cursos Asignados", got)
	}

	row := []string{"E001", "Obligatorio", "SEGURIDAD EN LAS OPERACIONES", "Terminado"}
	if got := cm.Cell(row, FieldTrainingTitle); got != "SEGURIDAD EN LAS OPERACIONES" {
		t.Errorf("Cell(training_title) = %q", got)
	}
}

func TestDetectColumnsExactBeatsContainment(t *testing.T) {
	// "Estatus" must map to record_status even when another column's label
	// merely contains a status-like word.
	rows := [][]string{{"No. de Empleado", "Título del Curso", "Estatus", "Estatus de Baja"}}
	cm, err := detectColumns(rows, KindTraining, 20)
	if err != nil {
		t.Fatalf("detectColumns: %v", err)
	}
	row := []string{"E001", "CURSO", "Terminado", "N/A"}
	if got := cm.Cell(row, FieldRecordStatus); got != "Terminado" {
		t.Errorf("Cell(record_status) = %q, want Terminado", got)
	}
	if got := cm.Label(FieldRecordStatus); got != "Estatus" {
		t.Errorf("Label(record_status) = %q, want Estatus", got)
	}
}
