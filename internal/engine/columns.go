package engine

import (
	"strings"

	"github.com/ldelafuente/capacita/internal/catalog"
)

// Field is a canonical column name, independent of the literal header text a
// given export uses.
type Field string

const (
	FieldUserID         Field = "user_id"
	FieldTrainingTitle  Field = "training_title"
	FieldTrainingType   Field = "training_type"
	FieldRecordStatus   Field = "record_status"
	FieldScore          Field = "score"
	FieldStartDate      Field = "start_date"
	FieldCompletionDate Field = "completion_date"
	FieldDueDate        Field = "due_date"
	FieldDepartment     Field = "department"
	FieldPosition       Field = "position"
	FieldEmail          Field = "email"
	FieldFullName       Field = "full_name"
	FieldLocation       Field = "location"
	FieldBusinessUnit   Field = "business_unit"
)

// fieldLabels maps each canonical field to the header labels seen across
// vendor exports, Spanish and English, folded (lowercase, accentless).
// Matching is exact first, containment second, so a generic label like
// "status" does not shadow a more specific one on another column.
var fieldLabels = map[Field][]string{
	FieldUserID:         {"user id", "userid", "id de usuario", "no. de empleado", "numero de empleado", "employee id", "id empleado", "ficha"},
	FieldTrainingTitle:  {"training title", "titulo del curso", "nombre del curso", "capacitacion", "training name", "curso"},
	FieldTrainingType:   {"training type", "tipo de curso", "tipo de capacitacion"},
	FieldRecordStatus:   {"record status", "estatus", "estado", "status"},
	FieldScore:          {"score", "calificacion", "puntaje", "nota"},
	FieldStartDate:      {"start date", "fecha de inicio", "fecha inicio", "fecha de registro"},
	FieldCompletionDate: {"completion date", "fecha de termino", "fecha de terminacion", "fecha de finalizacion", "completado el"},
	FieldDueDate:        {"due date", "fecha limite", "fecha de vencimiento", "vence el"},
	FieldDepartment:     {"department", "departamento", "division", "gerencia"},
	FieldPosition:       {"position", "puesto", "cargo", "job title"},
	FieldEmail:          {"email", "e-mail", "correo electronico", "correo"},
	FieldFullName:       {"full name", "nombre completo", "employee name", "nombre del empleado", "nombre"},
	FieldLocation:       {"location", "ubicacion", "sede", "localidad", "site"},
	FieldBusinessUnit:   {"business unit", "unidad de negocio", "unidad"},
}

// fieldOrder fixes the priority with which fields claim columns; earlier
// fields win a contested column.
var fieldOrder = []Field{
	FieldUserID, FieldTrainingTitle, FieldTrainingType, FieldRecordStatus,
	FieldScore, FieldStartDate, FieldCompletionDate, FieldDueDate,
	FieldFullName, FieldEmail, FieldPosition, FieldDepartment,
	FieldLocation, FieldBusinessUnit,
}

// Required fields per file kind. Everything else is optional and treated as
// null-valued when absent.
var requiredFields = map[ImportKind][]Field{
	KindTraining: {FieldUserID, FieldTrainingTitle},
	KindRoster:   {FieldUserID, FieldEmail, FieldFullName},
}

// ColumnMap is the result of column detection: canonical field to column
// index within the sheet's rows, plus the literal label that matched.
type ColumnMap struct {
	HeaderRow int
	index     map[Field]int
	label     map[Field]string
}

// Has reports whether the field was present in the header.
func (m *ColumnMap) Has(f Field) bool {
	_, ok := m.index[f]
	return ok
}

// Cell returns the cleaned value of field f in row, or "" when the column is
// absent or the row is too short.
func (m *ColumnMap) Cell(row []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

// Label returns the source column label that matched field f.
func (m *ColumnMap) Label(f Field) string { return m.label[f] }

// detectColumns scans the first maxSearch rows for the header row and builds
// the canonical-field mapping. The header is the first row on which every
// required field for the file kind can be located; a ColumnDetectionError is
// returned when no such row exists.
func detectColumns(rows [][]string, kind ImportKind, maxSearch int) (*ColumnMap, error) {
	required := requiredFields[kind]
	if maxSearch > len(rows) {
		maxSearch = len(rows)
	}

	var bestMissing []Field
	for r := 0; r < maxSearch; r++ {
		m := mapHeader(rows[r])
		missing := missingFields(m, required)
		if len(missing) == 0 {
			m.HeaderRow = r
			return m, nil
		}
		if bestMissing == nil || len(missing) < len(bestMissing) {
			bestMissing = missing
		}
	}

	if bestMissing == nil {
		bestMissing = required
	}
	return nil, &ColumnDetectionError{Kind: kind, Missing: bestMissing}
}

func mapHeader(header []string) *ColumnMap {
	m := &ColumnMap{
		index: make(map[Field]int, len(fieldLabels)),
		label: make(map[Field]string, len(fieldLabels)),
	}
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = catalog.Fold(cleanCell(h))
	}

	// Exact label matches run first and claim their columns; the containment
	// pass only sees the columns left over, so a generic label like "curso"
	// cannot steal a column that spells out another field ("Tipo de Curso").
	// Earlier fields and earlier columns win contested matches.
	claimed := make(map[int]bool)
	for _, f := range fieldOrder {
		if i, ok := matchColumn(folded, fieldLabels[f], true, claimed); ok {
			m.index[f], m.label[f] = i, header[i]
			claimed[i] = true
		}
	}
	for _, f := range fieldOrder {
		if m.Has(f) {
			continue
		}
		if i, ok := matchColumn(folded, fieldLabels[f], false, claimed); ok {
			m.index[f], m.label[f] = i, header[i]
			claimed[i] = true
		}
	}
	return m
}

func matchColumn(folded []string, labels []string, exact bool, claimed map[int]bool) (int, bool) {
	for i, h := range folded {
		if h == "" || claimed[i] {
			continue
		}
		for _, lab := range labels {
			if exact && h == lab {
				return i, true
			}
			if !exact && strings.Contains(h, lab) {
				return i, true
			}
		}
	}
	return 0, false
}

func missingFields(m *ColumnMap, required []Field) []Field {
	var missing []Field
	for _, f := range required {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
