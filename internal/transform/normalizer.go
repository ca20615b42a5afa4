package transform

import (
	"woonstat/internal/extract"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

// Normalize deduplicates raw dimension rows into a canonical table.
// Paginated extraction can hand us the same code on multiple pages;
// the first occurrence wins. A code that reappears with different
// attributes signals upstream cube drift and fails the run.
func Normalize(name string, rows []extract.DimensionRow) (*Table, error) {
	t := &Table{Name: name, index: make(map[string]int, len(rows))}
	for _, row := range rows {
		d := Descriptor{Code: row.Code, Label: row.Title, Parent: row.Parent}
		if i, seen := t.index[row.Code]; seen {
			if t.Rows[i] != d {
				return nil, errors.DuplicateConflictError(name, row.Code)
			}
			continue
		}
		t.index[row.Code] = len(t.Rows)
		t.Rows = append(t.Rows, d)
	}
	return t, nil
}

// NormalizePeriods builds the combined period dimension from one or
// more cube period extracts, parsing year and quarter/month from each
// code and dropping periods outside the configured window. Duplicate
// codes across cubes must agree on their label.
func NormalizePeriods(window models.Window, rowSets ...[]extract.DimensionRow) (*PeriodTable, error) {
	t := &PeriodTable{index: make(map[string]int)}
	for _, rows := range rowSets {
		for _, row := range rows {
			p, err := ParsePeriod(row.Code, row.Title)
			if err != nil {
				return nil, err
			}
			if !window.Contains(p.Jaar) {
				continue
			}
			if i, seen := t.index[row.Code]; seen {
				if t.Rows[i].Naam != p.Naam {
					return nil, errors.DuplicateConflictError("perioden", row.Code)
				}
				continue
			}
			t.index[row.Code] = len(t.Rows)
			t.Rows = append(t.Rows, p)
		}
	}
	return t, nil
}
