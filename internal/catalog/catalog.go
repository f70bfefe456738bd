// Package catalog holds the fixed catalog of training modules and the
// normalizer that maps free-text course titles onto it.
//
// Spreadsheet exports never agree on how a module is spelled: some carry the
// full "MÓDULO 5 . SEGURIDAD EN LAS OPERACIONES" heading, some only the bare
// title, some a truncated alias. The matching policy lives here, as data, so
// it can be audited and tested on its own.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Module is one entry of the canonical catalog.
type Module struct {
	Number  int
	Title   string
	Aliases []string
}

// Modules is the canonical catalog, ordered by module number.
// Titles are stored without the "MÓDULO N" heading the exports prepend.
var Modules = []Module{
	{1, "INDUCCIÓN Y POLÍTICA DE SEGURIDAD", []string{"inducción general", "política de seguridad"}},
	{2, "IDENTIFICACIÓN DE PELIGROS Y EVALUACIÓN DE RIESGOS", []string{"iper", "evaluación de riesgos"}},
	{3, "EQUIPO DE PROTECCIÓN PERSONAL", []string{"epp", "protección personal"}},
	{4, "TRABAJOS EN ALTURA", []string{"trabajo en alturas"}},
	{5, "SEGURIDAD EN LAS OPERACIONES", []string{"seguridad operativa", "seguridad en operaciones"}},
	{6, "MANEJO DEFENSIVO", []string{"conducción segura"}},
	{7, "PRIMEROS AUXILIOS", []string{"auxilios básicos"}},
	{8, "PREVENCIÓN Y COMBATE DE INCENDIOS", []string{"uso de extintores", "combate de incendios"}},
	{9, "BLOQUEO Y ETIQUETADO DE ENERGÍAS", []string{"loto", "bloqueo de energía"}},
	{10, "ESPACIOS CONFINADOS", []string{"espacio confinado"}},
	{11, "MANEJO DE SUSTANCIAS QUÍMICAS", []string{"materiales peligrosos", "hazmat"}},
	{12, "ERGONOMÍA LABORAL", []string{"ergonomía"}},
	{13, "PLAN DE RESPUESTA A EMERGENCIAS", []string{"respuesta a emergencias", "evacuación"}},
	{14, "MEDIO AMBIENTE Y MANEJO DE RESIDUOS", []string{"manejo de residuos", "gestión ambiental"}},
}

// DefaultEvaluationName is the name given to the evaluation created the first
// time a grade is seen for a module.
const DefaultEvaluationName = "Evaluación final"

// DefaultPassingThreshold is the passing score of the default evaluation.
const DefaultPassingThreshold = 70.0

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string, strips diacritics and collapses runs of
// whitespace, so that "MÓDULO  5" and "modulo 5" compare equal.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// folded entries, built once at init.
var folded = func() []struct {
	number  int
	title   string
	aliases []string
} {
	fs := make([]struct {
		number  int
		title   string
		aliases []string
	}, len(Modules))
	for i, m := range Modules {
		fs[i].number = m.Number
		fs[i].title = Fold(m.Title)
		fs[i].aliases = make([]string, len(m.Aliases))
		for j, a := range m.Aliases {
			fs[i].aliases[j] = Fold(a)
		}
	}
	return fs
}()

// Normalize maps a free-text course title to a canonical module number.
//
// Matching runs in two passes over the catalog in module-number order, so the
// lowest number wins when more than one entry matches:
//
//  1. the canonical title is contained in the input;
//  2. an alias is contained in the input, or the input in the alias (some
//     exports truncate long titles, so containment is tested both ways).
//
// The second return is false when nothing matches. That is not an error:
// exports mix catalog modules with administrative trainings the engine is not
// interested in.
func Normalize(title string) (int, bool) {
	in := Fold(title)
	if in == "" {
		return 0, false
	}
	for _, m := range folded {
		if strings.Contains(in, m.title) {
			return m.number, true
		}
	}
	for _, m := range folded {
		for _, a := range m.aliases {
			if strings.Contains(in, a) || strings.Contains(a, in) {
				return m.number, true
			}
		}
	}
	return 0, false
}

// Title returns the canonical title for a module number, or "" if the number
// is not in the catalog.
func Title(number int) string {
	for _, m := range Modules {
		if m.Number == number {
			return m.Title
		}
	}
	return ""
}
