package engine

// convert.go parses the messy cell values real exports contain: mixed date
// formats (day-first Latin layouts, ISO, Excel serials), scores with percent
// signs or comma decimals, and Excel formula artifacts.

import (
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted in cells, tried in order. Latin exports are
// day-first; ISO shows up when a sheet was post-processed.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"01-02-06", // excelize's default short-date rendering (month-first)
	"1/2/06",
}

// excelEpoch is day zero of the 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// cleanCell strips spreadsheet artifacts from a raw cell: surrounding
// whitespace, Excel formula prefixes (="value") and stray quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else {
		s = strings.TrimPrefix(s, "=")
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// parseDate parses a cell into a date. Returns (nil, nil) for empty cells:
// a blank date is data, not an error.
func parseDate(s string) (*time.Time, error) {
	s = cleanCell(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t, nil
		}
	}

	// Excel serial date. Plausibility bounds keep bare numbers like a score
	// of 85 from being read as the year 1900.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		t := excelEpoch.AddDate(0, 0, int(serial))
		return &t, nil
	}

	return nil, rowErrorf("", "unparseable date %q", s)
}

// parseScore parses a numeric score cell. Accepts decimal comma and a
// trailing percent sign. Returns (0, false, nil) for empty cells.
func parseScore(s string) (float64, bool, error) {
	s = cleanCell(s)
	if s == "" || strings.EqualFold(s, "n/a") || s == "-" {
		return 0, false, nil
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, rowErrorf("", "unparseable score %q", s)
	}
	return v, true, nil
}
